package domain

// TargetLang is the language a translation is produced in
type TargetLang string

const (
	LangEN TargetLang = "EN"
	LangZH TargetLang = "ZH"
)

// SourceAuto lets the backend detect the source language
const SourceAuto = "auto"

// Direction picks the target language for text: any rune in the CJK Unified
// Ideographs block (U+4E00–U+9FFF) means the text goes to English, anything
// else goes to Chinese.
func Direction(text string) TargetLang {
	for _, r := range text {
		if r >= 0x4E00 && r <= 0x9FFF {
			return LangEN
		}
	}
	return LangZH
}
