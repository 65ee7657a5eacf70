package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/usecase"
)

// Scheduler arranges deletion of ephemeral replies
type Scheduler interface {
	Schedule(chatID, messageID string, delay time.Duration)
}

// Options tunes the translate service
type Options struct {
	DeleteDelay        time.Duration
	PublicInfoCommands bool
}

// TranslateService runs the access gate and command surface, then executes
// the resolver's plan: translate, deliver, schedule expiry, record
type TranslateService struct {
	acl         *domain.AllowList
	resolver    *usecase.DispatchResolver
	pool        *usecase.BackendPool
	chatRepo    repo.ChatRepo
	utterances  repo.UtteranceRepo
	preferences repo.PreferenceRepo
	scheduler   Scheduler
	opts        Options
	log         zerolog.Logger
}

// NewTranslateService creates a new translate service
func NewTranslateService(
	acl *domain.AllowList,
	resolver *usecase.DispatchResolver,
	pool *usecase.BackendPool,
	chatRepo repo.ChatRepo,
	utterances repo.UtteranceRepo,
	preferences repo.PreferenceRepo,
	scheduler Scheduler,
	opts Options,
	log zerolog.Logger,
) *TranslateService {
	return &TranslateService{
		acl:         acl,
		resolver:    resolver,
		pool:        pool,
		chatRepo:    chatRepo,
		utterances:  utterances,
		preferences: preferences,
		scheduler:   scheduler,
		opts:        opts,
		log:         log.With().Str("component", "service").Logger(),
	}
}

// HandleEvent processes one chat event. Dropped events return an error
// wrapping domain.ErrAccessDenied or domain.ErrNoResolvableSource; delivery
// problems are logged and never returned.
func (s *TranslateService) HandleEvent(ctx context.Context, ev *domain.ChatEvent) error {
	log := s.log.With().
		Str("event_id", uuid.NewString()).
		Str("chat_id", ev.ChatID).
		Str("user_id", ev.UserID).
		Str("message_id", ev.MessageID).
		Logger()
	ctx = log.WithContext(ctx)

	var cmd domain.Command
	isCmd := false
	if !ev.IsDocument() {
		cmd, isCmd = domain.ParseCommand(ev.Text)
	}

	if isCmd && s.opts.PublicInfoCommands && infoCommands[cmd.Name] {
		eventsTotal.WithLabelValues("command").Inc()
		return s.handleCommand(ctx, ev, cmd)
	}

	if !s.acl.Allow(ev.ChatID, ev.UserID) {
		eventsTotal.WithLabelValues("denied").Inc()
		return fmt.Errorf("%w: chat %s user %s", domain.ErrAccessDenied, ev.ChatID, ev.UserID)
	}

	if isCmd && !cmd.IsTranslate() {
		eventsTotal.WithLabelValues("command").Inc()
		return s.handleCommand(ctx, ev, cmd)
	}

	eventsTotal.WithLabelValues("dispatched").Inc()

	d, err := s.resolver.Resolve(ctx, ev)
	if err != nil {
		log.Warn().Err(err).Msg("auto-translate preference lookup failed")
	}

	log.Debug().
		Interface("cases", d.Cases()).
		Bool("record", d.Record != nil).
		Str("unresolved", string(d.Unresolved)).
		Msg("dispatch decision")

	if d.Unresolved != "" {
		dispatchTotal.WithLabelValues(string(d.Unresolved), "unresolved").Inc()
	}
	s.execute(ctx, ev, d)

	if d.Record != nil {
		s.utterances.Record(ctx, ev.UserID, *d.Record)
		dispatchTotal.WithLabelValues(string(usecase.CaseRecord), "recorded").Inc()
	}

	if d.Unresolved != "" && len(d.Deliveries) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNoResolvableSource, d.Unresolved)
	}
	return nil
}

// execute carries out each delivery in order
func (s *TranslateService) execute(ctx context.Context, ev *domain.ChatEvent, d *usecase.Decision) {
	log := zerolog.Ctx(ctx)
	triggerDeleted := false

	for _, del := range d.Deliveries {
		text, err := s.pool.Translate(ctx, del.Source)
		if err != nil {
			log.Error().Err(err).Str("case", string(del.Case)).Msg("translation failed")
			text = domain.FailureText
		}
		dispatchTotal.WithLabelValues(string(del.Case), outcome(err)).Inc()

		if del.Ephemeral {
			text = domain.EphemeralNotice(text, s.opts.DeleteDelay)
		}

		ref, err := s.chatRepo.SendReply(ctx, del.ReplyTo.ChatID, text, del.ReplyTo.MessageID)
		if err != nil {
			log.Error().Err(err).
				Str("case", string(del.Case)).
				Str("reply_to", del.ReplyTo.MessageID).
				Msg("failed to send reply")
			continue
		}

		log.Info().
			Str("case", string(del.Case)).
			Str("reply_id", ref.MessageID).
			Bool("ephemeral", del.Ephemeral).
			Msg("translation delivered")

		if del.Ephemeral {
			s.scheduler.Schedule(ref.ChatID, ref.MessageID, s.opts.DeleteDelay)
		}

		if del.DeleteTrigger && !triggerDeleted {
			triggerDeleted = true
			s.deleteTrigger(ctx, ev)
		}
	}
}

func (s *TranslateService) deleteTrigger(ctx context.Context, ev *domain.ChatEvent) {
	err := s.chatRepo.DeleteMessage(ctx, ev.ChatID, ev.MessageID)
	deletionsTotal.WithLabelValues("trigger", outcome(err)).Inc()
	if err != nil {
		if !errors.Is(err, domain.ErrDeletionFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrDeletionFailure, err)
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to delete trigger message")
	}
}

// handleCommand answers the non-translate commands
func (s *TranslateService) handleCommand(ctx context.Context, ev *domain.ChatEvent, cmd domain.Command) error {
	var reply string
	switch cmd.Name {
	case domain.CommandAuto:
		on, err := s.preferences.ToggleAutoTranslate(ctx, ev.UserID)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to toggle auto-translate")
			return nil
		}
		reply = autoToggledText(on)
	case domain.CommandGetUserID:
		reply = userIDText(ev.UserID)
	case domain.CommandGetGroupID:
		reply = groupIDText(ev)
	case domain.CommandStart:
		reply = welcomeText
	default:
		zerolog.Ctx(ctx).Debug().Str("command", cmd.Name).Msg("unknown command ignored")
		return nil
	}

	if _, err := s.chatRepo.SendReply(ctx, ev.ChatID, reply, ev.MessageID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("command", cmd.Name).Msg("failed to answer command")
	}
	return nil
}
