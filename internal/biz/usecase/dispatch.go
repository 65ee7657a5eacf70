package usecase

import (
	"context"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/repo"
)

// DispatchCase names the branch of the resolver that produced a delivery
type DispatchCase string

const (
	CaseCommandInline  DispatchCase = "command_inline"
	CaseCommandStored  DispatchCase = "command_stored"
	CaseReplyTrigger   DispatchCase = "reply_trigger"
	CaseMentionInline  DispatchCase = "mention_inline"
	CaseMentionStored  DispatchCase = "mention_stored"
	CasePrefixInline   DispatchCase = "prefix_inline"
	CasePrefixStored   DispatchCase = "prefix_stored"
	CaseAutoTranslate  DispatchCase = "auto_translate"
	CaseCaptionTrigger DispatchCase = "caption_trigger"
	CaseRecord         DispatchCase = "record"
)

// Delivery is one translation to produce for an event
type Delivery struct {
	Case   DispatchCase
	Source string

	// ReplyTo is the message the translation is posted under
	ReplyTo domain.MessageRef

	// Ephemeral replies carry the auto-delete notice and are scheduled for deletion
	Ephemeral bool

	// DeleteTrigger removes the invoking message once the reply is out
	DeleteTrigger bool
}

// Decision is the resolver's plan for one event
type Decision struct {
	Deliveries []Delivery

	// Record, when set, is written into the recent-utterance store for the sender
	Record *domain.RecentUtterance

	// Unresolved names the case that matched but found no source text
	Unresolved DispatchCase
}

// IsEmpty checks if the decision has nothing to do
func (d *Decision) IsEmpty() bool {
	return d == nil || (len(d.Deliveries) == 0 && d.Record == nil)
}

// Cases lists the cases of all deliveries
func (d *Decision) Cases() []DispatchCase {
	cases := make([]DispatchCase, 0, len(d.Deliveries))
	for _, del := range d.Deliveries {
		cases = append(cases, del.Case)
	}
	return cases
}

// DispatchResolver decides what to translate for an event and where to deliver it.
// It only reads shared state and is safe for concurrent use.
type DispatchResolver struct {
	utterances  repo.UtteranceRepo
	preferences repo.PreferenceRepo
	botHandle   string
	botUserID   string
}

// NewDispatchResolver creates a resolver. botHandle is the "@name" form of the
// bot; botUserID may be empty when the platform identity is unknown.
func NewDispatchResolver(
	utterances repo.UtteranceRepo,
	preferences repo.PreferenceRepo,
	botHandle string,
	botUserID string,
) *DispatchResolver {
	return &DispatchResolver{
		utterances:  utterances,
		preferences: preferences,
		botHandle:   botHandle,
		botUserID:   botUserID,
	}
}

// Resolve evaluates the ordered cases for ev. Cases 1 to 5 and 7 are mutually
// exclusive; auto-translate is evaluated independently and may be appended.
// A failed preference lookup is returned alongside the primary decision.
func (uc *DispatchResolver) Resolve(ctx context.Context, ev *domain.ChatEvent) (*Decision, error) {
	var d *Decision
	if ev.IsDocument() {
		d = uc.resolveDocument(ctx, ev)
	} else {
		d = uc.resolveText(ctx, ev)
	}

	auto, err := uc.resolveAuto(ctx, ev)
	if auto != nil {
		d.Deliveries = append(d.Deliveries, *auto)
	}
	return d, err
}

func (uc *DispatchResolver) resolveText(ctx context.Context, ev *domain.ChatEvent) *Decision {
	text := ev.Text
	d := &Decision{}

	// 1, 2: explicit translate command
	if cmd, ok := domain.ParseCommand(text); ok {
		if !cmd.IsTranslate() {
			return d
		}
		if cmd.Args != "" {
			d.Deliveries = append(d.Deliveries, Delivery{
				Case:    CaseCommandInline,
				Source:  cmd.Args,
				ReplyTo: ev.Ref(),
			})
			return d
		}
		uc.appendFromStore(ctx, d, ev, CaseCommandStored, false, false)
		return d
	}

	// 3: reply to a message with a bare trigger word
	if ev.ReplyTo != nil && domain.IsTriggerWord(text) {
		if src := ev.ReplyTo.Content(); src != "" {
			d.Deliveries = append(d.Deliveries, Delivery{
				Case:          CaseReplyTrigger,
				Source:        src,
				ReplyTo:       domain.MessageRef{ChatID: ev.ChatID, MessageID: ev.ReplyTo.MessageID},
				Ephemeral:     true,
				DeleteTrigger: true,
			})
		} else {
			d.Unresolved = CaseReplyTrigger
		}
		return d
	}

	// 4: the bot is mentioned
	if ev.MentionsHandle(uc.botHandle, uc.botUserID) {
		if rest := ev.StripHandle(uc.botHandle, uc.botUserID); rest != "" {
			d.Deliveries = append(d.Deliveries, Delivery{
				Case:    CaseMentionInline,
				Source:  rest,
				ReplyTo: ev.Ref(),
			})
			return d
		}
		uc.appendFromStore(ctx, d, ev, CaseMentionStored, false, true)
		return d
	}

	// 5: trigger word used as a prefix
	if rest, ok := domain.CutTriggerPrefix(text); ok {
		if rest != "" {
			d.Deliveries = append(d.Deliveries, Delivery{
				Case:    CasePrefixInline,
				Source:  rest,
				ReplyTo: ev.Ref(),
			})
			return d
		}
		uc.appendFromStore(ctx, d, ev, CasePrefixStored, true, true)
		return d
	}

	// 7: remember plain text
	if domain.IsEligible(text, uc.botHandle) {
		ref := ev.Ref()
		d.Record = &domain.RecentUtterance{Text: text, Ref: &ref}
	}
	return d
}

func (uc *DispatchResolver) resolveDocument(_ context.Context, ev *domain.ChatEvent) *Decision {
	d := &Decision{}
	caption := ev.Caption
	if rest, ok := domain.CutCaptionTrigger(caption); ok {
		if rest != "" {
			d.Deliveries = append(d.Deliveries, Delivery{
				Case:    CaseCaptionTrigger,
				Source:  rest,
				ReplyTo: ev.Ref(),
			})
		} else {
			d.Unresolved = CaseCaptionTrigger
		}
		return d
	}
	if domain.IsEligible(caption, uc.botHandle) {
		ref := ev.Ref()
		d.Record = &domain.RecentUtterance{Text: caption, Ref: &ref}
	}
	return d
}

func (uc *DispatchResolver) appendFromStore(ctx context.Context, d *Decision, ev *domain.ChatEvent, c DispatchCase, ephemeralQuoted, ephemeralPlain bool) {
	if del, ok := uc.fromStore(ctx, ev, c, ephemeralQuoted, ephemeralPlain); ok {
		d.Deliveries = append(d.Deliveries, del)
		return
	}
	d.Unresolved = c
}

// fromStore builds a delivery from the sender's last utterance.
// With a stored reference the reply quotes the stored message and the
// invoking message is deleted; ephemeralQuoted controls whether that quoted
// reply expires. Without a reference the reply goes under the invoking
// message and ephemeralPlain applies.
func (uc *DispatchResolver) fromStore(ctx context.Context, ev *domain.ChatEvent, c DispatchCase, ephemeralQuoted, ephemeralPlain bool) (Delivery, bool) {
	last, ok := uc.utterances.Get(ctx, ev.UserID)
	if !ok || last.Text == "" {
		return Delivery{}, false
	}
	if last.Ref != nil {
		return Delivery{
			Case:          c,
			Source:        last.Text,
			ReplyTo:       *last.Ref,
			Ephemeral:     ephemeralQuoted,
			DeleteTrigger: true,
		}, true
	}
	return Delivery{
		Case:      c,
		Source:    last.Text,
		ReplyTo:   ev.Ref(),
		Ephemeral: ephemeralPlain,
	}, true
}

// resolveAuto translates the whole message for users with auto-translate on.
// Commands and bare trigger words never qualify.
func (uc *DispatchResolver) resolveAuto(ctx context.Context, ev *domain.ChatEvent) (*Delivery, error) {
	if uc.preferences == nil {
		return nil, nil
	}
	content := ev.Content()
	if domain.IsCommand(content) || domain.IsTriggerWord(content) {
		return nil, nil
	}
	if ev.IsDocument() {
		if _, ok := domain.CutCaptionTrigger(content); ok {
			return nil, nil
		}
	} else {
		content = ev.StripHandle(uc.botHandle, uc.botUserID)
	}
	if content == "" {
		return nil, nil
	}

	on, err := uc.preferences.AutoTranslate(ctx, ev.UserID)
	if err != nil || !on {
		return nil, err
	}
	return &Delivery{
		Case:      CaseAutoTranslate,
		Source:    content,
		ReplyTo:   ev.Ref(),
		Ephemeral: true,
	}, nil
}
