package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

const (
	testHandle = "@transbot"
	testBotID  = "ou_bot"
	testChat   = "oc_chat"
	testUser   = "ou_alice"
)

func textEvent(msgID, text string) *domain.ChatEvent {
	return &domain.ChatEvent{
		ChatID:    testChat,
		ChatType:  domain.ChatTypeGroup,
		UserID:    testUser,
		MessageID: msgID,
		Text:      text,
		Kind:      domain.KindText,
	}
}

func mentionEvent(msgID, text string) *domain.ChatEvent {
	ev := textEvent(msgID, text)
	ev.Mentions = []domain.MentionSpan{{Offset: 0, Length: len(testHandle), Name: "transbot", UserID: testBotID}}
	return ev
}

func newResolver(store *mockUtteranceRepo, prefs *mockPreferenceRepo) *DispatchResolver {
	if prefs == nil {
		return NewDispatchResolver(store, nil, testHandle, testBotID)
	}
	return NewDispatchResolver(store, prefs, testHandle, testBotID)
}

func resolve(t *testing.T, r *DispatchResolver, ev *domain.ChatEvent) *Decision {
	t.Helper()
	d, err := r.Resolve(context.Background(), ev)
	require.NoError(t, err)
	require.NotNil(t, d)
	return d
}

func TestResolve_RecordThenBareTrigger(t *testing.T) {
	store := newMockUtteranceRepo()
	r := newResolver(store, nil)

	d := resolve(t, r, textEvent("om_1", "Hello"))
	require.Empty(t, d.Deliveries)
	require.NotNil(t, d.Record)
	require.Equal(t, "Hello", d.Record.Text)
	require.Equal(t, &domain.MessageRef{ChatID: testChat, MessageID: "om_1"}, d.Record.Ref)
	store.Record(context.Background(), testUser, *d.Record)

	d = resolve(t, r, textEvent("om_2", "ts"))
	require.Nil(t, d.Record, "trigger words are never recorded")
	require.Equal(t, []Delivery{{
		Case:          CasePrefixStored,
		Source:        "Hello",
		ReplyTo:       domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
		Ephemeral:     true,
		DeleteTrigger: true,
	}}, d.Deliveries)
}

func TestResolve_CommandInline(t *testing.T) {
	r := newResolver(newMockUtteranceRepo(), nil)

	d := resolve(t, r, textEvent("om_1", "/translate 你好"))
	require.Nil(t, d.Record)
	require.Equal(t, []Delivery{{
		Case:    CaseCommandInline,
		Source:  "你好",
		ReplyTo: domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
	}}, d.Deliveries)
	require.Equal(t, domain.LangEN, domain.Direction(d.Deliveries[0].Source))
}

func TestResolve_CommandStored(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		d := resolve(t, newResolver(newMockUtteranceRepo(), nil), textEvent("om_2", "/ts"))
		require.True(t, d.IsEmpty())
		require.Equal(t, CaseCommandStored, d.Unresolved)
	})

	t.Run("with reference", func(t *testing.T) {
		store := newMockUtteranceRepo()
		store.Record(ctx, testUser, domain.RecentUtterance{
			Text: "Good morning",
			Ref:  &domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
		})
		d := resolve(t, newResolver(store, nil), textEvent("om_2", "/ts"))
		require.Equal(t, []Delivery{{
			Case:          CaseCommandStored,
			Source:        "Good morning",
			ReplyTo:       domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
			DeleteTrigger: true,
		}}, d.Deliveries)
	})

	t.Run("without reference", func(t *testing.T) {
		store := newMockUtteranceRepo()
		store.Record(ctx, testUser, domain.RecentUtterance{Text: "Good morning"})
		d := resolve(t, newResolver(store, nil), textEvent("om_2", "/translate"))
		require.Equal(t, []Delivery{{
			Case:    CaseCommandStored,
			Source:  "Good morning",
			ReplyTo: domain.MessageRef{ChatID: testChat, MessageID: "om_2"},
		}}, d.Deliveries)
	})
}

func TestResolve_ReplyTrigger(t *testing.T) {
	r := newResolver(newMockUtteranceRepo(), nil)

	ev := textEvent("om_2", "翻译")
	ev.ReplyTo = &domain.ReplyTarget{MessageID: "om_1", Caption: "test"}
	d := resolve(t, r, ev)
	require.Equal(t, []Delivery{{
		Case:          CaseReplyTrigger,
		Source:        "test",
		ReplyTo:       domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
		Ephemeral:     true,
		DeleteTrigger: true,
	}}, d.Deliveries)

	ev = textEvent("om_3", "translate")
	ev.ReplyTo = &domain.ReplyTarget{MessageID: "om_1", Text: "你好", Caption: "ignored"}
	d = resolve(t, r, ev)
	require.Len(t, d.Deliveries, 1)
	require.Equal(t, "你好", d.Deliveries[0].Source)
}

func TestResolve_ReplyTriggerWithoutContentIsNoop(t *testing.T) {
	store := newMockUtteranceRepo()
	store.Record(context.Background(), testUser, domain.RecentUtterance{Text: "stored"})
	r := newResolver(store, nil)

	ev := textEvent("om_2", "ts")
	ev.ReplyTo = &domain.ReplyTarget{MessageID: "om_1"}
	d := resolve(t, r, ev)
	require.True(t, d.IsEmpty(), "no fallthrough to the stored utterance")
	require.Equal(t, CaseReplyTrigger, d.Unresolved)
}

func TestResolve_Mention(t *testing.T) {
	ctx := context.Background()

	t.Run("inline", func(t *testing.T) {
		d := resolve(t, newResolver(newMockUtteranceRepo(), nil), mentionEvent("om_2", "@transbot 早上好"))
		require.Nil(t, d.Record)
		require.Equal(t, []Delivery{{
			Case:    CaseMentionInline,
			Source:  "早上好",
			ReplyTo: domain.MessageRef{ChatID: testChat, MessageID: "om_2"},
		}}, d.Deliveries)
	})

	t.Run("stored with reference", func(t *testing.T) {
		store := newMockUtteranceRepo()
		store.Record(ctx, testUser, domain.RecentUtterance{
			Text: "Hello",
			Ref:  &domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
		})
		d := resolve(t, newResolver(store, nil), mentionEvent("om_2", "@transbot"))
		require.Equal(t, []Delivery{{
			Case:          CaseMentionStored,
			Source:        "Hello",
			ReplyTo:       domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
			DeleteTrigger: true,
		}}, d.Deliveries)
	})

	t.Run("stored without reference", func(t *testing.T) {
		store := newMockUtteranceRepo()
		store.Record(ctx, testUser, domain.RecentUtterance{Text: "Hello"})
		d := resolve(t, newResolver(store, nil), mentionEvent("om_2", "@transbot "))
		require.Equal(t, []Delivery{{
			Case:      CaseMentionStored,
			Source:    "Hello",
			ReplyTo:   domain.MessageRef{ChatID: testChat, MessageID: "om_2"},
			Ephemeral: true,
		}}, d.Deliveries)
	})

	t.Run("stored absent", func(t *testing.T) {
		d := resolve(t, newResolver(newMockUtteranceRepo(), nil), mentionEvent("om_2", "@transbot"))
		require.True(t, d.IsEmpty())
	})
}

func TestResolve_MentionOfSomeoneElseIsRecorded(t *testing.T) {
	ev := textEvent("om_1", "@bob see you")
	ev.Mentions = []domain.MentionSpan{{Offset: 0, Length: 4, Name: "bob", UserID: "ou_bob"}}

	d := resolve(t, newResolver(newMockUtteranceRepo(), nil), ev)
	require.Empty(t, d.Deliveries)
	require.NotNil(t, d.Record)
	require.Equal(t, "@bob see you", d.Record.Text)
}

func TestResolve_Prefix(t *testing.T) {
	r := newResolver(newMockUtteranceRepo(), nil)

	tests := map[string]string{
		"ts hello":        "hello",
		"翻译 hello":        "hello",
		"翻译hello":         "hello",
		"tsunami warning": "unami warning",
		"ts,hello":        ",hello",
	}
	for text, source := range tests {
		d := resolve(t, r, textEvent("om_1", text))
		require.Equal(t, []Delivery{{
			Case:    CasePrefixInline,
			Source:  source,
			ReplyTo: domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
		}}, d.Deliveries, text)
		require.Nil(t, d.Record, text)
	}
}

func TestResolve_TranslateWordIsOnlyABareTrigger(t *testing.T) {
	store := newMockUtteranceRepo()
	r := newResolver(store, nil)

	d := resolve(t, r, textEvent("om_1", "translate hello"))
	require.Empty(t, d.Deliveries)
	require.Equal(t, "translate hello", d.Record.Text)

	store.Record(context.Background(), testUser, *d.Record)
	d = resolve(t, r, textEvent("om_2", "translate"))
	require.Equal(t, []DispatchCase{CasePrefixStored}, d.Cases())
	require.Equal(t, "translate hello", d.Deliveries[0].Source)
}

func TestResolve_PrefixStoredWithoutReference(t *testing.T) {
	store := newMockUtteranceRepo()
	store.Record(context.Background(), testUser, domain.RecentUtterance{Text: "caption text"})

	d := resolve(t, newResolver(store, nil), textEvent("om_2", "翻译"))
	require.Equal(t, []Delivery{{
		Case:      CasePrefixStored,
		Source:    "caption text",
		ReplyTo:   domain.MessageRef{ChatID: testChat, MessageID: "om_2"},
		Ephemeral: true,
	}}, d.Deliveries)
}

func TestResolve_Ineligible(t *testing.T) {
	r := newResolver(newMockUtteranceRepo(), nil)

	for _, text := range []string{"/auto", "/get_user_id", "/start", "   "} {
		d := resolve(t, r, textEvent("om_1", text))
		require.True(t, d.IsEmpty(), text)
	}

	d := resolve(t, r, textEvent("om_1", "hello ts"))
	require.Empty(t, d.Deliveries)
	require.NotNil(t, d.Record)
}

func TestResolve_Document(t *testing.T) {
	r := newResolver(newMockUtteranceRepo(), nil)
	doc := func(caption string) *domain.ChatEvent {
		ev := textEvent("om_9", "")
		ev.Kind = domain.KindDocument
		ev.Caption = caption
		return ev
	}

	d := resolve(t, r, doc("/ts quarterly report"))
	require.Equal(t, []Delivery{{
		Case:    CaseCaptionTrigger,
		Source:  "quarterly report",
		ReplyTo: domain.MessageRef{ChatID: testChat, MessageID: "om_9"},
	}}, d.Deliveries)

	d = resolve(t, r, doc("翻译"))
	require.True(t, d.IsEmpty())
	require.Equal(t, CaseCaptionTrigger, d.Unresolved)

	d = resolve(t, r, doc("季度报告"))
	require.Empty(t, d.Deliveries)
	require.Equal(t, "季度报告", d.Record.Text)
	require.Equal(t, "om_9", d.Record.Ref.MessageID)
}

func TestResolve_AutoTranslate(t *testing.T) {
	prefs := &mockPreferenceRepo{auto: map[string]bool{testUser: true}}
	r := newResolver(newMockUtteranceRepo(), prefs)

	t.Run("plain text fires alongside record", func(t *testing.T) {
		d := resolve(t, r, textEvent("om_1", "Hello"))
		require.NotNil(t, d.Record)
		require.Equal(t, []Delivery{{
			Case:      CaseAutoTranslate,
			Source:    "Hello",
			ReplyTo:   domain.MessageRef{ChatID: testChat, MessageID: "om_1"},
			Ephemeral: true,
		}}, d.Deliveries)
	})

	t.Run("fires alongside prefix request", func(t *testing.T) {
		d := resolve(t, r, textEvent("om_2", "ts hello"))
		require.Len(t, d.Deliveries, 2)
		require.Equal(t, CasePrefixInline, d.Deliveries[0].Case)
		require.Equal(t, CaseAutoTranslate, d.Deliveries[1].Case)
		require.Equal(t, "ts hello", d.Deliveries[1].Source)
	})

	t.Run("mention handle is stripped", func(t *testing.T) {
		d := resolve(t, r, mentionEvent("om_3", "@transbot hi"))
		require.Len(t, d.Deliveries, 2)
		require.Equal(t, "hi", d.Deliveries[1].Source)
	})

	t.Run("never for commands or bare triggers", func(t *testing.T) {
		for _, text := range []string{"/translate hi", "/auto", "ts", "翻译", "@transbot"} {
			ev := textEvent("om_4", text)
			if text == "@transbot" {
				ev = mentionEvent("om_4", text)
			}
			d := resolve(t, r, ev)
			for _, del := range d.Deliveries {
				require.NotEqual(t, CaseAutoTranslate, del.Case, text)
			}
		}
	})

	t.Run("document caption", func(t *testing.T) {
		ev := textEvent("om_5", "")
		ev.Kind = domain.KindDocument
		ev.Caption = "季度报告"
		d := resolve(t, r, ev)
		require.Len(t, d.Deliveries, 1)
		require.Equal(t, "季度报告", d.Deliveries[0].Source)
		require.True(t, d.Deliveries[0].Ephemeral)
	})

	t.Run("other users unaffected", func(t *testing.T) {
		ev := textEvent("om_6", "Hello")
		ev.UserID = "ou_bob"
		d := resolve(t, r, ev)
		require.Empty(t, d.Deliveries)
	})
}

func TestResolve_AutoTranslateLookupError(t *testing.T) {
	r := newResolver(newMockUtteranceRepo(), &mockPreferenceRepo{err: errBoom})

	d, err := r.Resolve(context.Background(), textEvent("om_1", "ts hi"))
	require.ErrorIs(t, err, errBoom)
	require.Len(t, d.Deliveries, 1, "primary decision survives a failed preference lookup")
}
