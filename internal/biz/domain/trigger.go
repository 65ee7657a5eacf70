package domain

import (
	"strings"

	"github.com/samber/lo"
)

const (
	TriggerTranslateZH = "翻译"
	TriggerTS          = "ts"
	TriggerTranslate   = "translate"
)

// TriggerWords standing alone as a message mean "translate the referenced content"
var TriggerWords = []string{TriggerTranslateZH, TriggerTS, TriggerTranslate}

const (
	CommandTranslate  = "translate"
	CommandTS         = "ts"
	CommandAuto       = "auto"
	CommandGetUserID  = "get_user_id"
	CommandGetGroupID = "get_group_id"
	CommandStart      = "start"
)

var translateCommands = []string{CommandTranslate, CommandTS}

// captionTriggers are accepted as the first word of a document caption
var captionTriggers = []string{"/" + CommandTranslate, "/" + CommandTS, TriggerTranslateZH}

// Command is a parsed slash command
type Command struct {
	Name string // lower-case, without the leading slash and @bot suffix
	Args string // remaining words joined by single spaces
}

// IsTranslate checks if the command requests a translation
func (c Command) IsTranslate() bool {
	return lo.Contains(translateCommands, c.Name)
}

// ParseCommand parses "/name[@bot] args..." style text
func ParseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{}, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}
	return Command{
		Name: strings.ToLower(name),
		Args: strings.Join(fields[1:], " "),
	}, true
}

// IsCommand checks if text starts with the command prefix
func IsCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

// IsTriggerWord checks if text is exactly one of the trigger words
func IsTriggerWord(text string) bool {
	return lo.Contains(TriggerWords, strings.TrimSpace(text))
}

// prefixTriggers are matched as raw prefixes, so "ts,hi" and "tsunami" count
var prefixTriggers = []string{TriggerTranslateZH, TriggerTS}

// CutTriggerPrefix checks whether text begins with "翻译" or "ts" and returns
// the trimmed remainder. "translate" only counts when it is the whole text,
// which leaves an empty remainder.
func CutTriggerPrefix(text string) (string, bool) {
	if strings.TrimSpace(text) == TriggerTranslate {
		return "", true
	}
	for _, w := range prefixTriggers {
		if rest, ok := strings.CutPrefix(text, w); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// CutCaptionTrigger checks whether a caption's first word is a translate
// command or trigger and returns the remaining words
func CutCaptionTrigger(caption string) (string, bool) {
	fields := strings.Fields(caption)
	if len(fields) == 0 || !lo.Contains(captionTriggers, fields[0]) {
		return "", false
	}
	return strings.Join(fields[1:], " "), true
}

// IsEligible checks whether text is worth remembering as a future implicit
// translation source: not empty, not a command, not a bare trigger word and
// not just the bot's handle
func IsEligible(text, handle string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || IsCommand(text) || IsTriggerWord(trimmed) {
		return false
	}
	return handle == "" || trimmed != handle
}
