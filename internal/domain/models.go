// Package domain defines the persistence models for the relay bridge: the
// user directory, the ticket map (one row per question forwarded into the
// operator channel), and the reply-tracking table that supports edit
// propagation. These types are mapped with GORM and form the core data
// layer of the relay bot.
package domain

import "time"

// Ticket status values. A ticket has exactly two states and one legal
// transition: TicketPending -> TicketSolved.
const (
	TicketPending = "PENDING"
	TicketSolved  = "SOLVED"
)

// User is one end-user known to the relay, keyed by the transport-level
// identity. Rows are created on first contact and are never removed by the
// retention sweeper.
//
// Fields:
//   - UserID: Telegram user ID (stable external identity, primary key).
//   - FirstName / Username: mutable profile fields, refreshed on every
//     contact.
//   - DisplayID: sequential human-readable code ("DI-001", "DI-002", ...),
//     assigned exactly once and never changed or reused afterwards.
//   - JoinedAt: timestamp of first contact.
type User struct {
	UserID    int64     `json:"user_id"    gorm:"primaryKey;autoIncrement:false"`
	FirstName string    `json:"first_name" gorm:"type:varchar(128)"`
	Username  string    `json:"username"   gorm:"type:varchar(64)"`
	DisplayID string    `json:"display_id" gorm:"type:varchar(16);uniqueIndex:ux_users_display_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Ticket is one forwarded question. It is created when a user message has
// been successfully relayed into the operator channel; the message ID the
// transport assigned to that forwarded copy (OperatorMessageID) is the
// correlation key used to match operator replies back to the ticket.
//
// Fields:
//   - ID: surrogate autoincrement key.
//   - OperatorMessageID: ID of the forwarded message inside the operator
//     channel; unique at creation time by construction of the transport.
//   - UserID / UserName / DisplayID: snapshot of the asker at forward time.
//   - QuestionText: the original, unrendered question text.
//   - Status: TicketPending until a reply is relayed, then TicketSolved.
//   - AnswerText / ResponderName: populated when the ticket is solved.
//   - CreatedAt: forward time; drives retention (tickets expire after the
//     configured window, 24h by default).
type Ticket struct {
	ID                int64     `json:"id"                  gorm:"primaryKey;autoIncrement"`
	OperatorMessageID int       `json:"operator_message_id" gorm:"not null;index:idx_tickets_operator_msg"`
	UserID            int64     `json:"user_id"             gorm:"not null"`
	UserName          string    `json:"user_name"           gorm:"type:varchar(128)"`
	DisplayID         string    `json:"display_id"          gorm:"type:varchar(16)"`
	QuestionText      string    `json:"question_text"       gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"          gorm:"index:idx_tickets_created"`
	Status            string    `json:"status"              gorm:"type:varchar(16);not null;default:'PENDING';check:status IN ('PENDING','SOLVED')"`
	AnswerText        string    `json:"answer_text"         gorm:"type:text"`
	ResponderName     string    `json:"responder_name"      gorm:"type:varchar(128)"`
}

// TableName returns the database table name for Ticket. The table keeps the
// name it has carried since the first schema version.
func (Ticket) TableName() string { return "message_map" }

// ReplyTracking records where a relayed answer landed, keyed by the
// operator's own reply message ID. When the operator later edits that reply,
// this row locates the user-facing message to edit in turn.
//
// Fields:
//   - OperatorReplyMessageID: ID of the operator's reply message in the
//     operator channel (primary key; upserted on re-answer).
//   - UserChatID: chat the answer was delivered to.
//   - RelayedMessageID: ID of the delivered user-facing message.
//   - ResponderName / UserName: snapshots used to re-render on edit.
//   - CreatedAt: insertion time; retention for this table is unbounded by
//     default and only applied when explicitly configured.
type ReplyTracking struct {
	OperatorReplyMessageID int       `json:"operator_reply_message_id" gorm:"primaryKey;autoIncrement:false"`
	UserChatID             int64     `json:"user_chat_id"              gorm:"not null"`
	RelayedMessageID       int       `json:"relayed_message_id"        gorm:"not null"`
	ResponderName          string    `json:"responder_name"            gorm:"type:varchar(128)"`
	UserName               string    `json:"user_name"                 gorm:"type:varchar(128)"`
	CreatedAt              time.Time `json:"created_at"`
}

// TableName returns the database table name for ReplyTracking.
func (ReplyTracking) TableName() string { return "reply_tracking" }
