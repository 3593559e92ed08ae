// Package relay defines the transport-neutral message model shared by the
// relay services and the Telegram adapter, together with the HTML rendering
// used for both relay directions and broadcasts. Keeping this model free of
// transport types lets the services be tested against fakes and keeps the
// Telegram dependency confined to one package.
package relay

import "strings"

// Kind identifies the single payload an inbound or outbound message
// carries. Exactly one kind applies per message.
type Kind int

const (
	KindText Kind = iota
	KindPhoto
	KindDocument
	KindVideo
	KindVoice
)

// String returns a stable lowercase name, used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPhoto:
		return "photo"
	case KindDocument:
		return "document"
	case KindVideo:
		return "video"
	case KindVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// Sender is the transport-level identity of whoever authored a message.
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// FullName joins the name parts the way chat clients display them.
func (s Sender) FullName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		name = s.Username
	}
	return name
}

// Message is one chat event as seen by the relay engine: an inbound user
// message, an operator reply, or an operator edit.
//
// Text is set for KindText; Caption and FileID are set for media kinds
// (voice carries no caption on the inbound path). ReplyToID is non-zero
// when the message is a direct reply, and Edited marks edit events.
type Message struct {
	ID        int
	ChatID    int64
	Sender    Sender
	Kind      Kind
	Text      string
	Caption   string
	FileID    string
	ReplyToID int
	Edited    bool
}

// Content returns the raw snapshot persisted with a ticket or answer: the
// verbatim text for text messages, and a media placeholder otherwise.
func (m Message) Content() string {
	if m.Kind == KindText {
		return m.Text
	}
	return "[Media/File]"
}
