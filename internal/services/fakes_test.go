package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-support-relay/internal/domain"
	"github.com/tbourn/go-support-relay/internal/relay"
)

// openBareDB returns a real (empty) SQLite handle for services that wrap
// repo calls in transactions. The fake repos below never touch it.
func openBareDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// ----- Fake user repo -----

type fakeUserRepo struct {
	users map[int64]*domain.User

	updateCalls int
	getErr      error
	createErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) GetUser(ctx context.Context, db *gorm.DB, userID int64) (*domain.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if u, ok := r.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, db *gorm.DB, userID int64, firstName, username, displayID string) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	u := &domain.User{UserID: userID, FirstName: firstName, Username: username, DisplayID: displayID, JoinedAt: time.Now().UTC()}
	r.users[userID] = u
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateUserProfile(ctx context.Context, db *gorm.DB, userID int64, firstName, username string) error {
	r.updateCalls++
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.FirstName, u.Username = firstName, username
	return nil
}

func (r *fakeUserRepo) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

// ----- Fake ticket repo -----

type fakeTicketRepo struct {
	byOperatorMsg map[int]*domain.Ticket

	createErr error
	solveErr  error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byOperatorMsg: map[int]*domain.Ticket{}}
}

func (r *fakeTicketRepo) CreateTicket(ctx context.Context, db *gorm.DB, operatorMessageID int, userID int64, userName, displayID, question string) (*domain.Ticket, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	t := &domain.Ticket{
		ID:                int64(len(r.byOperatorMsg) + 1),
		OperatorMessageID: operatorMessageID,
		UserID:            userID,
		UserName:          userName,
		DisplayID:         displayID,
		QuestionText:      question,
		CreatedAt:         time.Now().UTC(),
		Status:            domain.TicketPending,
	}
	r.byOperatorMsg[operatorMessageID] = t
	return t, nil
}

func (r *fakeTicketRepo) GetTicketByOperatorMessageID(ctx context.Context, db *gorm.DB, operatorMessageID int) (*domain.Ticket, error) {
	if t, ok := r.byOperatorMsg[operatorMessageID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTicketRepo) MarkTicketSolved(ctx context.Context, db *gorm.DB, operatorMessageID int, answer, responder string) error {
	if r.solveErr != nil {
		return r.solveErr
	}
	t, ok := r.byOperatorMsg[operatorMessageID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = domain.TicketSolved
	t.AnswerText = answer
	t.ResponderName = responder
	return nil
}

// ----- Fake tracking repo -----

type fakeTrackingRepo struct {
	rows map[int]*domain.ReplyTracking

	upsertErr error
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{rows: map[int]*domain.ReplyTracking{}}
}

func (r *fakeTrackingRepo) UpsertReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int, userChatID int64, relayedMessageID int, responder, userName string) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.rows[operatorReplyMessageID] = &domain.ReplyTracking{
		OperatorReplyMessageID: operatorReplyMessageID,
		UserChatID:             userChatID,
		RelayedMessageID:       relayedMessageID,
		ResponderName:          responder,
		UserName:               userName,
		CreatedAt:              time.Now().UTC(),
	}
	return nil
}

func (r *fakeTrackingRepo) GetReplyTracking(ctx context.Context, db *gorm.DB, operatorReplyMessageID int) (*domain.ReplyTracking, error) {
	if row, ok := r.rows[operatorReplyMessageID]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ----- Fake transport -----

type sentRecord struct {
	chatID int64
	kind   relay.Kind
	fileID string
	body   string
}

type editRecord struct {
	chatID    int64
	messageID int
	body      string
	caption   bool
}

type reactRecord struct {
	chatID    int64
	messageID int
	emoji     string
}

type fakeTransport struct {
	nextID int

	sent   []sentRecord
	edits  []editRecord
	reacts []reactRecord

	failChats map[int64]bool // chat IDs whose sends fail
	editErr   error
	reactErr  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 1000, failChats: map[int64]bool{}}
}

func (f *fakeTransport) SendText(ctx context.Context, chatID int64, html string) (int, error) {
	if f.failChats[chatID] {
		return 0, fmt.Errorf("chat %d unreachable", chatID)
	}
	f.nextID++
	f.sent = append(f.sent, sentRecord{chatID: chatID, kind: relay.KindText, body: html})
	return f.nextID, nil
}

func (f *fakeTransport) SendMedia(ctx context.Context, chatID int64, kind relay.Kind, fileID, captionHTML string) (int, error) {
	if f.failChats[chatID] {
		return 0, fmt.Errorf("chat %d unreachable", chatID)
	}
	f.nextID++
	f.sent = append(f.sent, sentRecord{chatID: chatID, kind: kind, fileID: fileID, body: captionHTML})
	return f.nextID, nil
}

func (f *fakeTransport) EditText(ctx context.Context, chatID int64, messageID int, html string) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, editRecord{chatID: chatID, messageID: messageID, body: html})
	return nil
}

func (f *fakeTransport) EditCaption(ctx context.Context, chatID int64, messageID int, captionHTML string) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, editRecord{chatID: chatID, messageID: messageID, body: captionHTML, caption: true})
	return nil
}

func (f *fakeTransport) React(ctx context.Context, chatID int64, messageID int, emoji string) error {
	if f.reactErr != nil {
		return f.reactErr
	}
	f.reacts = append(f.reacts, reactRecord{chatID: chatID, messageID: messageID, emoji: emoji})
	return nil
}

// sentTo filters the send log by chat.
func (f *fakeTransport) sentTo(chatID int64) []sentRecord {
	var out []sentRecord
	for _, s := range f.sent {
		if s.chatID == chatID {
			out = append(out, s)
		}
	}
	return out
}
