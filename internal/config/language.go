package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeandeaual/go-locale"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// Languages with display strings.
var supportedLanguages = []language.Tag{language.English, language.Vietnamese}

var languageMatcher = language.NewMatcher(supportedLanguages)

// ParseLanguage validates a BCP 47 tag.
func ParseLanguage(s string) (language.Tag, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", s, err)
	}
	return tag, nil
}

// ResolveLanguage returns the base language to use for display strings.
// "auto" checks MIDDRAG_LANG, then the system locale, then falls back to English.
func ResolveLanguage(setting string) string {
	if setting != "" && setting != "auto" {
		if tag, err := ParseLanguage(setting); err == nil {
			return match(tag)
		}
		log.Warnf("Invalid language setting %q, detecting from system locale", setting)
	}

	if forced := strings.TrimSpace(os.Getenv("MIDDRAG_LANG")); forced != "" {
		if tag, err := ParseLanguage(forced); err == nil {
			log.Debugf("MIDDRAG_LANG is set to: '%s'", forced)
			return match(tag)
		}
	}

	userLocales, err := locale.GetLocales()
	if err != nil || len(userLocales) == 0 {
		log.Debug("Could not get user locale, defaulting to english")
		return "en"
	}

	var tags []language.Tag
	for _, l := range userLocales {
		if tag, err := ParseLanguage(l); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return "en"
	}
	log.Debugf("Detected user locale: %s", userLocales[0])
	return match(tags...)
}

func match(tags ...language.Tag) string {
	_, idx, conf := languageMatcher.Match(tags...)
	if conf == language.No {
		return "en"
	}
	base, _ := supportedLanguages[idx].Base()
	return base.String()
}
