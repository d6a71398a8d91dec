package model

import "encoding/json"

// Globals is the site-wide settings singleton.
type Globals struct {
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Logo         ID              `json:"logo,omitempty"`
	LogoDarkMode ID              `json:"logo_dark_mode,omitempty"`
	SocialLinks  json.RawMessage `json:"social_links,omitempty"`
	AccentColor  string          `json:"accent_color,omitempty"`
	Favicon      ID              `json:"favicon,omitempty"`
}

// Site is one website served from the content store.
type Site struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Congress    json.RawMessage `json:"congress,omitempty"`
}

// Navigation is a keyed menu ("main", "footer") of a site.
type Navigation struct {
	Items []NavItem `json:"items"`
}

// NavItem is one menu entry, possibly with nested children.
type NavItem struct {
	ID           ID            `json:"id,omitempty"`
	Title        string        `json:"title,omitempty"`
	URL          string        `json:"url,omitempty"`
	Type         string        `json:"type,omitempty"`
	Page         *PageRef      `json:"page,omitempty"`
	Post         *PostRef      `json:"post,omitempty"`
	Children     []NavItem     `json:"children,omitempty"`
	Translations []Translation `json:"translations,omitempty"`
}

// PageRef points a menu entry at a page.
type PageRef struct {
	ID        ID     `json:"id"`
	Permalink string `json:"permalink,omitempty"`
}

// PostRef points a menu entry at a blog post.
type PostRef struct {
	ID   ID     `json:"id"`
	Slug string `json:"slug,omitempty"`
}

// Translation is a localized variant of a translatable item.
type Translation struct {
	LanguagesCode string `json:"languages_code"`
	Title         string `json:"title,omitempty"`
}

// SiteData bundles everything the site chrome needs in one response.
type SiteData struct {
	Globals          Globals     `json:"globals"`
	Site             Site        `json:"site"`
	HeaderNavigation *Navigation `json:"headerNavigation"`
	FooterNavigation *Navigation `json:"footerNavigation"`
}
