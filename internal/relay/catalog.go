package relay

import "golang.org/x/text/language"

// Catalog holds every user- and operator-facing text fragment the relay
// renders. Strings may contain Telegram HTML markup; placeholders are
// filled by the render helpers, never by callers.
type Catalog struct {
	Divider string

	// User-side menu and session texts.
	BrandHeader    string
	MenuMain       string // verbs: %[1]s name, %[2]s display code
	MenuBtnSupport string
	ContactIntro   string
	SessionCleared string

	// Inbound rendering (user -> operator channel).
	NameLabel     string
	QuestionLabel string
	PhotoLabel    string
	DocumentLabel string
	VideoLabel    string
	VoiceLabel    string

	// Outbound rendering (operator reply -> user).
	ReplyHeader string
	AnswerLabel string
	ReplyFooter string // %s resolved user's name
	VoiceNote   string

	// Broadcast.
	BroadcastHeader   string
	BroadcastUsage    string
	BroadcastProgress string // %d recipient count
	BroadcastDone     string // %d success count

	// Operator channel notices.
	OperatorHelp  string
	ContextLost   string
	DeliverFailed string // %v transport error
	SentFallback  string
}

// english is the default catalog.
var english = Catalog{
	Divider: "───────────────",

	BrandHeader:    "🏢 <b>Support Relay</b>",
	MenuMain:       "Hi, <b>%[1]s</b>! 👋\nWelcome to the support desk.\n\n🆔 Your ID: <code>%[2]s</code>\n\nWe are ready to help. Tap the button below 👇",
	MenuBtnSupport: "💬 Contact the support team",
	ContactIntro:   "💬 <b>Talk to support</b>\n───────────────\n📝 What can we help you with? Describe your issue below.",
	SessionCleared: "♻️ <b>Conversation closed.</b>",

	NameLabel:     "Name",
	QuestionLabel: "Question",
	PhotoLabel:    "🖼 <b>Photo</b>",
	DocumentLabel: "📂 <b>Document</b>",
	VideoLabel:    "🎥 <b>Video</b>",
	VoiceLabel:    "🎤 <b>Voice message</b>",

	ReplyHeader: "👨‍💼 <b>Answer from the support team</b>",
	AnswerLabel: "<b>Reply:</b> ",
	ReplyFooter: "\n\n🙏 Thank you, <b>%s</b>, for using our support bot! If anything else comes up, just write to us again.",
	VoiceNote:   "(Voice Message)",

	BroadcastHeader:   "📢 <b>Official announcement</b>",
	BroadcastUsage:    "Usage: /broadcast [Message]",
	BroadcastProgress: "⏳ Sending to %d users...",
	BroadcastDone:     "✅ Successfully sent to %d users.",

	OperatorHelp: "🛠 <b>Command center</b>\n───────────────\n• <code>/broadcast [msg]</code> : send an announcement to every known user\n• <code>/help</code> : show this list again\n\nℹ️ <i>Expired tickets are removed automatically to save storage.</i>",
	ContextLost:  "⚠️ Ticket context lost (Old message).",

	DeliverFailed: "❌ Failed to send: %v",
	SentFallback:  "✅ Sent",
}

// khmer matches the catalog shipped with the original deployment.
var khmer = Catalog{
	Divider: "───────────────",

	BrandHeader:    "🏢 <b>ប្រព័ន្ធជំនួយនិស្សិតហាត់ការគ្រប់ជំនាន់</b>",
	MenuMain:       "សួស្តី, <b>%[1]s</b>! 👋\nសូមស្វាគមន៍មកកាន់ប្រព័ន្ធដោះស្រាយបញ្ហា។\n\n🆔 លេខសម្គាល់របស់អ្នក: <code>%[2]s</code>\n\nយើងខ្ញុំត្រៀមខ្លួនជាស្រេចដើម្បីជួយដោះស្រាយនិងសម្រួលបញ្ហារបស់លោកអ្នក។\nសូមចុចប៊ូតុងខាងក្រោម👇",
	MenuBtnSupport: "💬 សុំជំនួយពីក្រុមការងារ IT_Support",
	ContactIntro:   "💬 <b>ដោះស្រាយបញ្ហាផ្សេងៗតាម Chat_Bot</b>\n───────────────\n📝 តើអ្នកមានបញ្ហាអ្វី​? តើអ្នកមានអ្វីឳ្យជួយដោះស្រាយ?",
	SessionCleared: "♻️ <b>ការសន្ទនាត្រូវបានបិទបញ្ចប់។</b>",

	NameLabel:     "ឈ្មោះ",
	QuestionLabel: "សំណួរ",
	PhotoLabel:    "🖼 <b>រូបភាព</b>",
	DocumentLabel: "📂 <b>ឯកសារ</b>",
	VideoLabel:    "🎥 <b>វីដេអូ</b>",
	VoiceLabel:    "🎤 <b>សំឡេង</b>",

	ReplyHeader: "👨‍💼 <b>ដំណោះស្រាយពីក្រុមការងារ IT_Support</b>",
	AnswerLabel: "<b>ឆ្លើយតប :</b> ",
	ReplyFooter: "\n\n🙏 អរគុណ <b>%s</b> ដែលបានប្រើប្រាស់ Chat_Bot របស់យើង! បើមានសំណើរឬបញ្ហាផ្សេងទៀត សូមទាក់ទងមកក្រុមការងារយើងវិញ។",
	VoiceNote:   "(Voice Message)",

	BroadcastHeader:   "📢 <b>សេចក្តីជូនដំណឹងផ្លូវការ</b>",
	BroadcastUsage:    "Usage: /broadcast [Message]",
	BroadcastProgress: "⏳ Sending to %d users...",
	BroadcastDone:     "✅ Successfully sent to %d users.",

	OperatorHelp: "🛠 <b>មជ្ឈមណ្ឌលបញ្ជា</b>\n───────────────\n• <code>/broadcast [msg]</code> : ផ្ញើសារជូនដំណឹងទៅកាន់អ្នកទាំងអស់គ្នា\n• <code>/help</code> : បង្ហាញបញ្ជីនេះម្តងទៀត\n\nℹ️ <i>ទិន្នន័យចាស់ៗនឹងត្រូវលុបចោលដោយស្វ័យប្រវត្តិដើម្បីសន្សំទំហំផ្ទុក។</i>",
	ContextLost:  "⚠️ Ticket context lost (Old message).",

	DeliverFailed: "❌ Failed to send: %v",
	SentFallback:  "✅ Sent",
}

// catalogs pairs supported tags with their catalogs; order matters for the
// matcher (first entry is the fallback).
var catalogTags = []language.Tag{language.English, language.Khmer}

// CatalogFor resolves the catalog for a BCP 47 tag string ("en", "km",
// "km-KH", ...). Unknown or empty tags fall back to English.
func CatalogFor(tag string) *Catalog {
	if tag == "" {
		return &english
	}
	t, err := language.Parse(tag)
	if err != nil {
		return &english
	}
	_, idx, _ := language.NewMatcher(catalogTags).Match(t)
	if idx == 1 {
		return &khmer
	}
	return &english
}
