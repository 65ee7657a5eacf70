package domain

import "strings"

// ChatType represents the chat type
type ChatType string

const (
	ChatTypeGroup ChatType = "group"
	ChatTypeP2P   ChatType = "p2p"
)

// EventKind distinguishes plain text messages from document/caption messages
type EventKind int

const (
	KindText EventKind = iota
	KindDocument
)

// MessageRef addresses a single message on the chat platform
type MessageRef struct {
	ChatID    string
	MessageID string
}

// MentionSpan is one @mention inside an event's text.
// Offset and Length are byte positions into ChatEvent.Text.
type MentionSpan struct {
	Offset int
	Length int
	Name   string
	UserID string
}

// ReplyTarget is the message an event replies to
type ReplyTarget struct {
	MessageID string
	Text      string
	Caption   string
}

// Content returns the replied-to text, falling back to its caption
func (r *ReplyTarget) Content() string {
	if r == nil {
		return ""
	}
	if r.Text != "" {
		return r.Text
	}
	return r.Caption
}

// ChatEvent is an inbound chat message, immutable once built
type ChatEvent struct {
	ChatID    string
	ChatType  ChatType
	UserID    string
	MessageID string
	Text      string
	Caption   string
	ReplyTo   *ReplyTarget
	Mentions  []MentionSpan
	Kind      EventKind
}

// Ref returns the delivery reference of the event itself
func (e *ChatEvent) Ref() MessageRef {
	return MessageRef{ChatID: e.ChatID, MessageID: e.MessageID}
}

// IsDocument checks if the event carries a caption instead of text
func (e *ChatEvent) IsDocument() bool {
	return e.Kind == KindDocument
}

// IsGroup checks if the event comes from a group chat
func (e *ChatEvent) IsGroup() bool {
	return e.ChatType == ChatTypeGroup
}

// Content returns the text for text events and the caption for documents
func (e *ChatEvent) Content() string {
	if e.IsDocument() {
		return e.Caption
	}
	return e.Text
}

// MentionsHandle checks whether one of the mention spans addresses the given
// handle (e.g. "@transbot") or the given user id
func (e *ChatEvent) MentionsHandle(handle, userID string) bool {
	for _, m := range e.Mentions {
		if e.spanMatches(m, handle, userID) {
			return true
		}
	}
	return false
}

// StripHandle removes the bot's mention spans and any other literal occurrence
// of handle from the text, then trims it
func (e *ChatEvent) StripHandle(handle, userID string) string {
	var sb strings.Builder
	pos := 0
	for _, m := range e.Mentions {
		if !e.spanMatches(m, handle, userID) || m.Offset < pos {
			continue
		}
		sb.WriteString(e.Text[pos:m.Offset])
		pos = m.Offset + m.Length
	}
	sb.WriteString(e.Text[pos:])

	text := sb.String()
	if handle != "" {
		text = strings.ReplaceAll(text, handle, "")
	}
	return strings.TrimSpace(text)
}

func (e *ChatEvent) spanMatches(m MentionSpan, handle, userID string) bool {
	if m.Offset < 0 || m.Length <= 0 || m.Offset+m.Length > len(e.Text) {
		return false
	}
	if userID != "" && m.UserID == userID {
		return true
	}
	return handle != "" && e.Text[m.Offset:m.Offset+m.Length] == handle
}
