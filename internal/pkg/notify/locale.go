package notify

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	LangEnglish = "en"
	LangGerman  = "de"
)

var (
	supportedTags = []language.Tag{language.English, language.German}
	supportedLang = []string{LangEnglish, LangGerman}
	langMatcher   = language.NewMatcher(supportedTags)
)

// SupportedLanguage reports whether lang (a BCP 47 tag) maps to a catalog
// language.
func SupportedLanguage(lang string) bool {
	_, ok := matchTag(lang)
	return ok
}

// ResolveLanguage picks the template language: an Accept-Language style hint
// wins over the stored preference, which wins over def.
func ResolveLanguage(hint, stored, def string) string {
	if hint = strings.TrimSpace(hint); hint != "" {
		if tags, _, err := language.ParseAcceptLanguage(hint); err == nil && len(tags) > 0 {
			if _, idx, conf := langMatcher.Match(tags...); conf != language.No {
				return supportedLang[idx]
			}
		}
	}
	if lang, ok := matchTag(stored); ok {
		return lang
	}
	if lang, ok := matchTag(def); ok {
		return lang
	}
	return LangEnglish
}

func matchTag(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	if _, idx, conf := langMatcher.Match(tag); conf != language.No {
		return supportedLang[idx], true
	}
	return "", false
}
