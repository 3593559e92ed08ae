package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-support-relay/internal/domain"
	"github.com/tbourn/go-support-relay/internal/relay"
)

const testOperatorChat = int64(-100500)

func newRelayService(t *testing.T) (*RelayService, *fakeTicketRepo, *fakeTrackingRepo, *fakeTransport) {
	t.Helper()
	tickets := newFakeTicketRepo()
	tracking := newFakeTrackingRepo()
	tp := newFakeTransport()
	s := &RelayService{
		DB:             nil,
		Tickets:        tickets,
		Tracking:       tracking,
		Identity:       NewIdentityService(openBareDB(t), newFakeUserRepo()),
		Transport:      tp,
		OperatorChatID: testOperatorChat,
		Msgs:           relay.CatalogFor("en"),
		Log:            zerolog.Nop(),
	}
	return s, tickets, tracking, tp
}

func TestRelayInbound_TextCreatesPendingTicket(t *testing.T) {
	s, tickets, _, tp := newRelayService(t)

	m := relay.Message{
		ID:     5,
		ChatID: 100,
		Sender: relay.Sender{ID: 100, FirstName: "Alice"},
		Kind:   relay.KindText,
		Text:   "Hello",
	}
	if err := s.RelayInbound(context.Background(), m); err != nil {
		t.Fatalf("RelayInbound: %v", err)
	}

	fwd := tp.sentTo(testOperatorChat)
	if len(fwd) != 1 {
		t.Fatalf("forwarded %d messages to operator channel, want 1", len(fwd))
	}
	if !strings.Contains(fwd[0].body, "Hello") || !strings.Contains(fwd[0].body, "Alice") {
		t.Fatalf("operator rendering missing content: %q", fwd[0].body)
	}

	if len(tickets.byOperatorMsg) != 1 {
		t.Fatalf("ticket count = %d, want 1", len(tickets.byOperatorMsg))
	}
	for id, tk := range tickets.byOperatorMsg {
		if tk.Status != domain.TicketPending {
			t.Fatalf("status = %q, want PENDING", tk.Status)
		}
		if tk.QuestionText != "Hello" {
			t.Fatalf("question = %q, want raw text", tk.QuestionText)
		}
		if tk.OperatorMessageID != id {
			t.Fatalf("ticket keyed by %d but stores %d", id, tk.OperatorMessageID)
		}
		if tk.DisplayID == "" {
			t.Fatal("ticket missing display code")
		}
	}

	// Ack reaction goes to the original user message.
	if len(tp.reacts) != 1 || tp.reacts[0].chatID != 100 || tp.reacts[0].messageID != 5 {
		t.Fatalf("unexpected reactions: %+v", tp.reacts)
	}
}

func TestRelayInbound_MediaPreservesPayload(t *testing.T) {
	s, tickets, _, tp := newRelayService(t)

	m := relay.Message{
		ID:      6,
		ChatID:  100,
		Sender:  relay.Sender{ID: 100, FirstName: "Alice"},
		Kind:    relay.KindPhoto,
		Caption: "see this",
		FileID:  "file-abc",
	}
	if err := s.RelayInbound(context.Background(), m); err != nil {
		t.Fatalf("RelayInbound: %v", err)
	}

	fwd := tp.sentTo(testOperatorChat)
	if len(fwd) != 1 || fwd[0].kind != relay.KindPhoto || fwd[0].fileID != "file-abc" {
		t.Fatalf("media payload not preserved: %+v", fwd)
	}
	for _, tk := range tickets.byOperatorMsg {
		if tk.QuestionText != "[Media/File]" {
			t.Fatalf("media question snapshot = %q", tk.QuestionText)
		}
	}
}

func TestRelayInbound_RejectsOperatorChannel(t *testing.T) {
	s, tickets, _, tp := newRelayService(t)

	err := s.RelayInbound(context.Background(), relay.Message{ChatID: testOperatorChat, Kind: relay.KindText, Text: "x"})
	if !errors.Is(err, ErrLoopback) {
		t.Fatalf("expected ErrLoopback, got %v", err)
	}
	if len(tp.sent) != 0 || len(tickets.byOperatorMsg) != 0 {
		t.Fatal("loopback message must not be forwarded or ticketed")
	}
}

func TestRelayInbound_ClearKeywordOnlyAcknowledges(t *testing.T) {
	s, tickets, _, tp := newRelayService(t)

	for _, text := range []string{"CLEAR", "clear", " Clear "} {
		if err := s.RelayInbound(context.Background(), relay.Message{ChatID: 100, Sender: relay.Sender{ID: 100}, Kind: relay.KindText, Text: text}); err != nil {
			t.Fatalf("RelayInbound(%q): %v", text, err)
		}
	}

	if got := len(tp.sentTo(100)); got != 3 {
		t.Fatalf("acks sent = %d, want 3", got)
	}
	if len(tp.sentTo(testOperatorChat)) != 0 {
		t.Fatal("CLEAR must not be forwarded")
	}
	if len(tickets.byOperatorMsg) != 0 {
		t.Fatal("CLEAR must not create tickets")
	}
}

func TestRelayInbound_ForwardFailureIsSilent(t *testing.T) {
	s, tickets, _, tp := newRelayService(t)
	tp.failChats[testOperatorChat] = true

	err := s.RelayInbound(context.Background(), relay.Message{ID: 5, ChatID: 100, Sender: relay.Sender{ID: 100}, Kind: relay.KindText, Text: "Hi"})
	if err != nil {
		t.Fatalf("forward failure must be swallowed, got %v", err)
	}
	if len(tickets.byOperatorMsg) != 0 {
		t.Fatal("no ticket on failed forward")
	}
	if len(tp.sentTo(100)) != 0 {
		t.Fatal("user must not be notified of the failure")
	}
}

func TestRelayInbound_ReactionFailureNonFatal(t *testing.T) {
	s, tickets, _, tp := newRelayService(t)
	tp.reactErr = errors.New("reactions disabled")

	if err := s.RelayInbound(context.Background(), relay.Message{ID: 5, ChatID: 100, Sender: relay.Sender{ID: 100}, Kind: relay.KindText, Text: "Hi"}); err != nil {
		t.Fatalf("RelayInbound: %v", err)
	}
	if len(tickets.byOperatorMsg) != 1 {
		t.Fatal("ticket must still be created when the ack reaction fails")
	}
}

func TestRelayReply_SolvesTicketAndTracks(t *testing.T) {
	s, tickets, tracking, tp := newRelayService(t)
	ctx := context.Background()

	if _, err := tickets.CreateTicket(ctx, nil, 555, 100, "Alice", "DI-001", "Hello"); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	m := relay.Message{
		ID:        42,
		ChatID:    testOperatorChat,
		Sender:    relay.Sender{ID: 9, FirstName: "Bob"},
		Kind:      relay.KindText,
		Text:      "Fixed",
		ReplyToID: 555,
	}
	if err := s.RelayReply(ctx, m); err != nil {
		t.Fatalf("RelayReply: %v", err)
	}

	delivered := tp.sentTo(100)
	if len(delivered) != 1 {
		t.Fatalf("delivered %d messages to user, want 1", len(delivered))
	}
	if !strings.Contains(delivered[0].body, "Fixed") || !strings.Contains(delivered[0].body, "Alice") {
		t.Fatalf("reply rendering incomplete: %q", delivered[0].body)
	}

	tk := tickets.byOperatorMsg[555]
	if tk.Status != domain.TicketSolved || tk.AnswerText != "Fixed" || tk.ResponderName != "Bob" {
		t.Fatalf("ticket not solved correctly: %+v", tk)
	}

	tr, ok := tracking.rows[42]
	if !ok {
		t.Fatal("missing tracking row keyed by the reply's own message id")
	}
	if tr.UserChatID != 100 {
		t.Fatalf("tracking chat = %d, want 100", tr.UserChatID)
	}

	if len(tp.reacts) != 1 || tp.reacts[0].messageID != 42 {
		t.Fatalf("expected ack reaction on the operator reply, got %+v", tp.reacts)
	}
}

func TestRelayReply_ReactionFailureFallsBackToNote(t *testing.T) {
	s, tickets, _, tp := newRelayService(t)
	ctx := context.Background()
	tp.reactErr = errors.New("reactions disabled")

	if _, err := tickets.CreateTicket(ctx, nil, 555, 100, "Alice", "DI-001", "Hello"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.RelayReply(ctx, relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindText, Text: "ok", ReplyToID: 555}); err != nil {
		t.Fatalf("RelayReply: %v", err)
	}

	ops := tp.sentTo(testOperatorChat)
	if len(ops) != 1 || ops[0].body != s.Msgs.SentFallback {
		t.Fatalf("expected fallback ack note, got %+v", ops)
	}
}

func TestRelayReply_ContextLostForNonCommandText(t *testing.T) {
	s, _, tracking, tp := newRelayService(t)

	err := s.RelayReply(context.Background(), relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindText, Text: "who was this?", ReplyToID: 404})
	if !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}

	ops := tp.sentTo(testOperatorChat)
	if len(ops) != 1 || ops[0].body != s.Msgs.ContextLost {
		t.Fatalf("expected exactly one context-lost notice, got %+v", ops)
	}
	if len(tracking.rows) != 0 {
		t.Fatal("correlation miss must not mutate the store")
	}
}

func TestRelayReply_CommandMissIsSilent(t *testing.T) {
	s, _, _, tp := newRelayService(t)

	if err := s.RelayReply(context.Background(), relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindText, Text: "/help", ReplyToID: 404}); err != nil {
		t.Fatalf("command miss must be silent, got %v", err)
	}
	if len(tp.sent) != 0 {
		t.Fatalf("no notice expected, got %+v", tp.sent)
	}
}

func TestRelayReply_DeliveryFailureNotifiesOperator(t *testing.T) {
	s, tickets, tracking, tp := newRelayService(t)
	ctx := context.Background()

	if _, err := tickets.CreateTicket(ctx, nil, 555, 100, "Alice", "DI-001", "Hello"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tp.failChats[100] = true

	if err := s.RelayReply(ctx, relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindText, Text: "ok", ReplyToID: 555}); err != nil {
		t.Fatalf("delivery failure must be swallowed after notifying, got %v", err)
	}

	ops := tp.sentTo(testOperatorChat)
	if len(ops) != 1 || !strings.Contains(ops[0].body, "Failed to send") {
		t.Fatalf("expected operator error note, got %+v", ops)
	}
	if tickets.byOperatorMsg[555].Status != domain.TicketPending {
		t.Fatal("ticket must stay PENDING on failed delivery")
	}
	if len(tracking.rows) != 0 {
		t.Fatal("no tracking row on failed delivery")
	}
}

func TestPropagateEdit_TextEdit(t *testing.T) {
	s, _, tracking, tp := newRelayService(t)
	ctx := context.Background()

	if err := tracking.UpsertReplyTracking(ctx, nil, 42, 100, 1001, "Bob", "Alice"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindText, Text: "Actually, do this", Edited: true}
	if err := s.PropagateEdit(ctx, m); err != nil {
		t.Fatalf("PropagateEdit: %v", err)
	}

	if len(tp.edits) != 1 {
		t.Fatalf("edits = %d, want 1", len(tp.edits))
	}
	e := tp.edits[0]
	if e.caption || e.chatID != 100 || e.messageID != 1001 {
		t.Fatalf("unexpected edit target: %+v", e)
	}
	if !strings.Contains(e.body, "Actually, do this") || !strings.Contains(e.body, "Alice") {
		t.Fatalf("edit rendering incomplete: %q", e.body)
	}
}

func TestPropagateEdit_CaptionEdit(t *testing.T) {
	s, _, tracking, tp := newRelayService(t)
	ctx := context.Background()

	if err := tracking.UpsertReplyTracking(ctx, nil, 42, 100, 1001, "Bob", "Alice"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindPhoto, Caption: "new caption", Edited: true}
	if err := s.PropagateEdit(ctx, m); err != nil {
		t.Fatalf("PropagateEdit: %v", err)
	}
	if len(tp.edits) != 1 || !tp.edits[0].caption {
		t.Fatalf("expected a caption edit, got %+v", tp.edits)
	}
}

func TestPropagateEdit_NoTrackingIsNoop(t *testing.T) {
	s, _, _, tp := newRelayService(t)

	if err := s.PropagateEdit(context.Background(), relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindText, Text: "x", Edited: true}); err != nil {
		t.Fatalf("missing tracking must be a silent no-op, got %v", err)
	}
	if len(tp.edits) != 0 || len(tp.sent) != 0 {
		t.Fatal("no transport calls expected")
	}
}

func TestPropagateEdit_IgnoresNonOperatorChats(t *testing.T) {
	s, _, tracking, tp := newRelayService(t)
	if err := tracking.UpsertReplyTracking(context.Background(), nil, 42, 100, 1001, "Bob", "Alice"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.PropagateEdit(context.Background(), relay.Message{ID: 42, ChatID: 777, Kind: relay.KindText, Text: "x", Edited: true}); err != nil {
		t.Fatalf("PropagateEdit: %v", err)
	}
	if len(tp.edits) != 0 {
		t.Fatal("edits outside the operator channel must be ignored")
	}
}

func TestPropagateEdit_TransportFailureSwallowed(t *testing.T) {
	s, _, tracking, tp := newRelayService(t)
	ctx := context.Background()
	tp.editErr = errors.New("message too old")

	if err := tracking.UpsertReplyTracking(ctx, nil, 42, 100, 1001, "Bob", "Alice"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.PropagateEdit(ctx, relay.Message{ID: 42, ChatID: testOperatorChat, Kind: relay.KindText, Text: "x", Edited: true}); err != nil {
		t.Fatalf("edit failure must be swallowed, got %v", err)
	}
}
