package i18n

import (
	"testing"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

var translations = []model.Translation{
	{LanguagesCode: "en-US", Title: "Programme"},
	{LanguagesCode: "zh-TW", Title: "議程"},
	{LanguagesCode: "not a tag!", Title: "broken"},
}

func TestPick(t *testing.T) {
	tests := []struct {
		name     string
		locale   string
		fallback string
		want     string
		ok       bool
	}{
		{"exact", "zh-TW", "en-US", "議程", true},
		{"underscore", "zh_TW", "", "議程", true},
		{"base language", "en", "", "Programme", true},
		{"fallback", "fr", "en-US", "Programme", true},
		{"no match", "fr", "de", "", false},
		{"empty locale uses fallback", "", "zh-TW", "議程", true},
	}
	for _, tt := range tests {
		got, ok := Pick(translations, tt.locale, tt.fallback)
		if ok != tt.ok || got.Title != tt.want {
			t.Errorf("%s: Pick(%q, %q) = %q, %v; want %q, %v", tt.name, tt.locale, tt.fallback, got.Title, ok, tt.want, tt.ok)
		}
	}

	if _, ok := Pick(nil, "en", "en"); ok {
		t.Error("Pick on no translations should fail")
	}
}

func TestLocalizeNav(t *testing.T) {
	items := []model.NavItem{
		{
			Title:        "Programme",
			Translations: []model.Translation{{LanguagesCode: "zh-TW", Title: "議程"}},
			Children: []model.NavItem{
				{Title: "Speakers", Translations: []model.Translation{{LanguagesCode: "zh-TW", Title: "講者"}}},
				{Title: "Venue"},
			},
		},
	}

	got := LocalizeNav(items, "zh-TW", "en")
	if got[0].Title != "議程" || got[0].Children[0].Title != "講者" || got[0].Children[1].Title != "Venue" {
		t.Errorf("localized = %+v", got)
	}
	if items[0].Title != "Programme" || items[0].Children[0].Title != "Speakers" {
		t.Errorf("input mutated: %+v", items)
	}
}

func TestNegotiate(t *testing.T) {
	supported := []string{"en", "zh_tw", "bad tag!"}
	tests := []struct {
		name   string
		locale string
		accept string
		want   string
		ok     bool
	}{
		{"explicit", "zh-TW", "", "zh_tw", true},
		{"regional english", "en-GB", "", "en", true},
		{"explicit wins over header", "en", "zh-TW", "en", true},
		{"header", "", "fr;q=0.9, zh-TW;q=0.8", "zh_tw", true},
		{"unsupported", "fr", "", "", false},
		{"nothing requested", "", "", "", false},
		{"malformed", "not a locale", "", "", false},
	}
	for _, tt := range tests {
		got, ok := Negotiate(supported, tt.locale, tt.accept)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: Negotiate(%q, %q) = %q, %v; want %q, %v", tt.name, tt.locale, tt.accept, got, ok, tt.want, tt.ok)
		}
	}

	if _, ok := Negotiate(nil, "en", ""); ok {
		t.Error("Negotiate without supported locales should fail")
	}
}
