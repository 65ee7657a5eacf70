package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/infra/feishu"
)

const dedupeWindow = 5 * time.Minute

// FeishuClient is the part of the Feishu client the server drives
type FeishuClient interface {
	OnMessage(handler feishu.MessageHandler)
	Start(ctx context.Context) error
	GetMessage(ctx context.Context, messageID string) (*feishu.Message, error)
}

// EventHandler consumes converted chat events
type EventHandler interface {
	HandleEvent(ctx context.Context, ev *domain.ChatEvent) error
}

// FeishuServer turns Feishu messages into chat events
type FeishuServer struct {
	client  FeishuClient
	handler EventHandler
	log     zerolog.Logger
	ctx     context.Context

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
	now        func() time.Time
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(client FeishuClient, handler EventHandler, log zerolog.Logger) *FeishuServer {
	return &FeishuServer{
		client:   client,
		handler:  handler,
		log:      log.With().Str("component", "server").Logger(),
		ctx:      context.Background(),
		seenMsgs: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Start registers the message handler and blocks on the websocket connection
func (s *FeishuServer) Start(ctx context.Context) error {
	s.ctx = ctx
	s.client.OnMessage(s.handleMessage)
	return s.client.Start(ctx)
}

// handleMessage handles Feishu messages
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	if !s.markIfNew(msg.MsgID) {
		s.log.Debug().Str("message_id", msg.MsgID).Msg("duplicate message ignored")
		return
	}

	ctx := s.ctx
	ev := s.toChatEvent(ctx, msg)

	err := s.handler.HandleEvent(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrNoResolvableSource):
		s.log.Debug().Err(err).Str("message_id", msg.MsgID).Msg("event dropped")
	default:
		s.log.Error().Err(err).Str("message_id", msg.MsgID).Msg("handle event error")
	}
}

// toChatEvent converts a Feishu message. The replied-to message is only
// fetched when the text is a bare trigger word, the one case that reads it.
func (s *FeishuServer) toChatEvent(ctx context.Context, msg *feishu.Message) *domain.ChatEvent {
	ev := &domain.ChatEvent{
		ChatID:    msg.ChatID,
		ChatType:  domain.ChatTypeP2P,
		MessageID: msg.MsgID,
		Kind:      domain.KindText,
	}
	if msg.ChatType == string(domain.ChatTypeGroup) {
		ev.ChatType = domain.ChatTypeGroup
	}
	if msg.Sender != nil {
		ev.UserID = msg.Sender.SenderID
	}

	if msg.HasAttachment() {
		ev.Kind = domain.KindDocument
		ev.Caption = msg.Text
	} else {
		ev.Text = msg.Text
		for _, m := range msg.Mentions {
			ev.Mentions = append(ev.Mentions, domain.MentionSpan{
				Offset: m.Offset,
				Length: m.Length,
				Name:   m.Name,
				UserID: m.OpenID,
			})
		}
	}

	if msg.ParentID != "" && !ev.IsDocument() && domain.IsTriggerWord(ev.Text) {
		ev.ReplyTo = s.fetchReplyTarget(ctx, msg.ParentID)
	}
	return ev
}

// fetchReplyTarget loads the replied-to message. A failed lookup yields a
// target without content so the event is dropped rather than reinterpreted.
func (s *FeishuServer) fetchReplyTarget(ctx context.Context, parentID string) *domain.ReplyTarget {
	target := &domain.ReplyTarget{MessageID: parentID}

	parent, err := s.client.GetMessage(ctx, parentID)
	if err != nil {
		s.log.Warn().Err(err).Str("parent_id", parentID).Msg("failed to fetch replied-to message")
		return target
	}

	if parent.HasAttachment() {
		target.Caption = parent.Text
	} else {
		target.Text = parent.Text
	}
	return target
}

// markIfNew records msgID and reports whether it was unseen
func (s *FeishuServer) markIfNew(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()

	now := s.now()

	// Clean up expired message records to prevent memory leaks
	cutoff := now.Add(-dedupeWindow)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}

	if _, exists := s.seenMsgs[msgID]; exists {
		return false
	}
	s.seenMsgs[msgID] = now
	return true
}
