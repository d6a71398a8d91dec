// Package i18n picks localized variants of translatable content.
package i18n

import (
	"golang.org/x/text/language"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

// Pick returns the translation whose language code best matches locale,
// falling back to the best match for fallback. Codes that are not valid
// BCP 47 tags (after treating "_" as "-") are ignored.
func Pick(translations []model.Translation, locale, fallback string) (model.Translation, bool) {
	tags := make([]language.Tag, 0, len(translations))
	candidates := make([]model.Translation, 0, len(translations))
	for _, t := range translations {
		tag, err := language.Parse(t.LanguagesCode)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		candidates = append(candidates, t)
	}
	if len(tags) == 0 {
		return model.Translation{}, false
	}

	matcher := language.NewMatcher(tags)
	for _, want := range []string{locale, fallback} {
		if want == "" {
			continue
		}
		tag, err := language.Parse(want)
		if err != nil {
			continue
		}
		_, idx, conf := matcher.Match(tag)
		if conf == language.No {
			continue
		}
		return candidates[idx], true
	}
	return model.Translation{}, false
}

// LocalizeNav returns a copy of items with titles replaced by their best
// translation. Items without a matching translation keep their title.
func LocalizeNav(items []model.NavItem, locale, fallback string) []model.NavItem {
	if items == nil {
		return nil
	}
	out := make([]model.NavItem, len(items))
	for i, it := range items {
		if tr, ok := Pick(it.Translations, locale, fallback); ok && tr.Title != "" {
			it.Title = tr.Title
		}
		it.Children = LocalizeNav(it.Children, locale, fallback)
		out[i] = it
	}
	return out
}

// Negotiate chooses which of the supported locale codes serves a request.
// An explicit locale is matched first; otherwise the Accept-Language
// header is used. The returned code is the supported entry as configured.
// ok is false when nothing was requested or no supported locale matches.
func Negotiate(supported []string, locale, acceptLanguage string) (string, bool) {
	tags := make([]language.Tag, 0, len(supported))
	codes := make([]string, 0, len(supported))
	for _, s := range supported {
		tag, err := language.Parse(s)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, s)
	}
	if len(tags) == 0 {
		return "", false
	}

	var want []language.Tag
	switch {
	case locale != "":
		tag, err := language.Parse(locale)
		if err != nil {
			return "", false
		}
		want = []language.Tag{tag}
	case acceptLanguage != "":
		parsed, _, err := language.ParseAcceptLanguage(acceptLanguage)
		if err != nil || len(parsed) == 0 {
			return "", false
		}
		want = parsed
	default:
		return "", false
	}

	_, idx, conf := language.NewMatcher(tags).Match(want...)
	if conf == language.No {
		return "", false
	}
	return codes[idx], true
}
