package relay

import (
	"fmt"
	"html"
)

// Rendering composes the HTML fragments sent through the transport. User
// controlled values (names, question text, captions) are escaped so a user
// cannot inject markup into the operator channel; operator reply text is
// passed through verbatim so operators keep their own formatting.

// RenderInbound builds the operator-channel rendering of a user message:
// the sender's name, a divider, and a payload-kind-specific body. For media
// kinds the result is used as the forwarded caption.
func RenderInbound(c *Catalog, m Message) string {
	head := fmt.Sprintf("👤 <b>%s:</b> %s\n%s\n", c.NameLabel, html.EscapeString(m.Sender.FullName()), c.Divider)
	switch m.Kind {
	case KindText:
		return head + fmt.Sprintf("💬 <b>%s :</b> %s", c.QuestionLabel, html.EscapeString(m.Text))
	case KindPhoto:
		return head + c.PhotoLabel + "\n" + html.EscapeString(m.Caption)
	case KindDocument:
		return head + c.DocumentLabel + "\n" + html.EscapeString(m.Caption)
	case KindVideo:
		return head + c.VideoLabel + "\n" + html.EscapeString(m.Caption)
	case KindVoice:
		return head + c.VoiceLabel
	default:
		return head
	}
}

// RenderReply builds the user-facing rendering of an operator answer:
// fixed header, divider, answered-by label plus the operator's content, and
// the personalized thank-you footer. content is the operator's text (text
// replies), caption (media replies), or the voice placeholder.
func RenderReply(c *Catalog, userName, content string) string {
	return c.ReplyHeader + "\n" + c.Divider + "\n" +
		c.AnswerLabel + content +
		fmt.Sprintf(c.ReplyFooter, html.EscapeString(userName))
}

// ReplyContent selects the operator content fragment for a reply or edit of
// the given kind.
func ReplyContent(c *Catalog, m Message) string {
	switch m.Kind {
	case KindText:
		return m.Text
	case KindVoice:
		return c.VoiceNote
	default:
		return m.Caption
	}
}

// RenderBroadcast builds the fan-out rendering of an operator announcement.
func RenderBroadcast(c *Catalog, body string) string {
	return c.BroadcastHeader + "\n" + c.Divider + "\n" + body
}

// RenderWelcome builds the branded welcome menu shown on /start and /clear.
func RenderWelcome(c *Catalog, name, displayID string) string {
	return c.BrandHeader + "\n\n" + fmt.Sprintf(c.MenuMain, html.EscapeString(name), displayID)
}
