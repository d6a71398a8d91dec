package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/congress"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/grid"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/i18n"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/ics"
	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/refresh"
)

const siteDataCacheTTL = 60 * time.Second

var validate = validator.New()

// previewParams carries the draft-access parameters. The token is only
// honoured when preview is explicitly "true".
type previewParams struct {
	Preview bool
	Token   string `validate:"omitempty,max=512,printascii"`
}

type sectionParams struct {
	previewParams
	Slug string `validate:"required,max=200"`
}

type siteDataParams struct {
	Locale string `validate:"omitempty,bcp47_language_tag"`
}

func parsePreview(q url.Values) previewParams {
	p := previewParams{Preview: q.Get("preview") == "true"}
	if p.Preview {
		p.Token = q.Get("token")
	}
	return p
}

func validParams(w http.ResponseWriter, v any) bool {
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid query parameters")
		return false
	}
	return true
}

// gridResponse is the response shape for /api/schedule/grid.
type gridResponse struct {
	Tabs      []grid.Tab   `json:"tabs"`
	Failures  []failureDTO `json:"failures,omitempty"`
	EmptyDays []model.ID   `json:"emptyDays,omitempty"`
	BuiltAt   time.Time    `json:"builtAt"`
	Preview   bool         `json:"preview"`
}

type failureDTO struct {
	DayID model.ID `json:"day"`
	Error string   `json:"error"`
}

func newGridResponse(res grid.Result, builtAt time.Time, preview bool) gridResponse {
	out := gridResponse{
		Tabs:      res.Tabs,
		EmptyDays: res.EmptyDays,
		BuiltAt:   builtAt,
		Preview:   preview,
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failureDTO{DayID: f.DayID, Error: f.Err.Error()})
	}
	return out
}

func (s *Server) gridOptions(preview bool) grid.Options {
	opts := grid.Options{IncludeDrafts: preview}
	if s.cfg != nil {
		opts.MaxEventDepth = s.cfg.MaxEventDepth
		opts.Workers = s.cfg.Workers
	}
	return opts
}

// snapshot returns the current snapshot, building the first one on demand.
func (s *Server) snapshot(ctx context.Context) (refresh.Snapshot, error) {
	if snap, ok := s.snaps.Snapshot(); ok {
		return snap, nil
	}
	return s.snaps.RunOnce(ctx)
}

// handleSchedule returns the raw congress document.
//
// GET /api/schedule?preview=true&token=...
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	p := parsePreview(r.URL.Query())
	if !validParams(w, p) {
		return
	}
	if p.Token == "" {
		snap, err := s.snapshot(r.Context())
		if err != nil {
			writeServiceError(w, r, "schedule", err)
			return
		}
		respond(w, r, http.StatusOK, snap.Congress)
		return
	}

	c, err := s.svc.Schedule(r.Context(), p.Token)
	if err != nil {
		writeServiceError(w, r, "schedule", err)
		return
	}
	respond(w, r, http.StatusOK, c)
}

// handleGrid returns the laid-out tabs. Public requests are answered from
// the refresh snapshot; preview requests fetch and build with drafts.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	p := parsePreview(r.URL.Query())
	if !validParams(w, p) {
		return
	}
	if p.Token == "" {
		snap, err := s.snapshot(r.Context())
		if err != nil {
			writeServiceError(w, r, "schedule", err)
			return
		}
		respond(w, r, http.StatusOK, newGridResponse(snap.Result, snap.BuiltAt, false))
		return
	}

	c, err := s.svc.Schedule(r.Context(), p.Token)
	if err != nil {
		writeServiceError(w, r, "schedule", err)
		return
	}
	res := grid.Build(c, s.gridOptions(true))
	respond(w, r, http.StatusOK, newGridResponse(res, time.Now().UTC(), true))
}

// handleICS exports the published schedule as iCalendar.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, "schedule", err)
		return
	}

	cfg := ics.ExportConfig{Now: snap.BuiltAt}
	if s.cfg != nil {
		cfg.Location = resolveLocationOrLocal(s.cfg.Timezone)
		cfg.Domain = siteHost(s.cfg.SiteURL)
	}
	body, err := ics.Export(snap.Congress, snap.Result, cfg)
	if err != nil {
		appLog.Error("api: ics export failed", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	writeBody(w, r, http.StatusOK, "text/calendar; charset=utf-8", body)
}

// handleSection returns the sessions of one programme section.
//
// GET /api/program/section?slug=spine&preview=true&token=...
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := sectionParams{previewParams: parsePreview(q), Slug: strings.TrimSpace(q.Get("slug"))}
	if !validParams(w, p) {
		return
	}
	sessions, err := s.svc.Section(r.Context(), p.Slug, p.Preview, p.Token)
	if err != nil {
		writeServiceError(w, r, "section", err)
		return
	}
	respond(w, r, http.StatusOK, sessions)
}

// listQuery reads limit, page, search and fields. Missing values take
// the defaults; malformed numbers are rejected.
func listQuery(q url.Values) (congress.ListQuery, error) {
	lq := congress.DefaultListQuery()
	for key, dst := range map[string]*int{"limit": &lq.Limit, "page": &lq.Page} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return lq, fmt.Errorf("%w: %s must be an integer", congress.ErrInvalidQuery, key)
		}
		*dst = n
	}
	lq.Search = q.Get("search")
	if raw := q.Get("fields"); raw != "" {
		lq.Fields = strings.Split(raw, ",")
	}
	return lq, lq.Validate()
}

func (s *Server) handlePersons(w http.ResponseWriter, r *http.Request) {
	lq, err := listQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, "persons", err)
		return
	}
	persons, err := s.svc.Persons(r.Context(), lq)
	if err != nil {
		writeServiceError(w, r, "persons", err)
		return
	}
	respond(w, r, http.StatusOK, persons)
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Person(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "person", err)
		return
	}
	respond(w, r, http.StatusOK, p)
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	lq, err := listQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, "roles", err)
		return
	}
	roles, err := s.svc.Roles(r.Context(), lq)
	if err != nil {
		writeServiceError(w, r, "roles", err)
		return
	}
	respond(w, r, http.StatusOK, roles)
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	role, err := s.svc.Role(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "role", err)
		return
	}
	respond(w, r, http.StatusOK, role)
}

// siteDataCache holds a cached /api/site-data response and its timestamp.
type siteDataCache struct {
	data      model.SiteData
	updatedAt time.Time
}

// handleSiteData returns globals, site and menus. The menu titles are
// translated into the configured locale matching ?locale= or, without it,
// Accept-Language; an explicit locale outside the configured set is
// rejected.
func (s *Server) handleSiteData(w http.ResponseWriter, r *http.Request) {
	p := siteDataParams{Locale: r.URL.Query().Get("locale")}
	if !validParams(w, p) {
		return
	}

	now := time.Now()
	s.siteMu.RLock()
	sc := s.siteCache
	s.siteMu.RUnlock()

	var data model.SiteData
	if sc != nil && now.Sub(sc.updatedAt) < siteDataCacheTTL {
		data = sc.data
	} else {
		fresh, err := s.svc.SiteData(r.Context())
		if err != nil {
			writeServiceError(w, r, "site data", err)
			return
		}
		s.siteMu.Lock()
		s.siteCache = &siteDataCache{data: fresh, updatedAt: time.Now()}
		s.siteMu.Unlock()
		data = fresh
	}

	locale, fallback := p.Locale, ""
	if s.cfg != nil && len(s.cfg.Locales) > 0 {
		fallback = s.cfg.DefaultLocale
		resolved, ok := i18n.Negotiate(s.cfg.Locales, p.Locale, r.Header.Get("Accept-Language"))
		switch {
		case ok:
			locale = resolved
		case p.Locale != "":
			writeError(w, http.StatusBadRequest, "unsupported locale")
			return
		}
	}
	if locale != "" {
		w.Header().Set("Content-Language", locale)
		data.HeaderNavigation = localizeNav(data.HeaderNavigation, locale, fallback)
		data.FooterNavigation = localizeNav(data.FooterNavigation, locale, fallback)
	}
	respond(w, r, http.StatusOK, data)
}

func localizeNav(nav *model.Navigation, locale, fallback string) *model.Navigation {
	if nav == nil {
		return nil
	}
	return &model.Navigation{Items: i18n.LocalizeNav(nav.Items, locale, fallback)}
}

// handleRefresh rebuilds the snapshot immediately.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snaps.RunOnce(r.Context())
	if err != nil {
		writeServiceError(w, r, "schedule", err)
		return
	}
	type refreshResponse struct {
		BuiltAt   time.Time `json:"builtAt"`
		Tabs      int       `json:"tabs"`
		Failures  int       `json:"failures"`
		EmptyDays int       `json:"emptyDays"`
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		BuiltAt:   snap.BuiltAt,
		Tabs:      len(snap.Result.Tabs),
		Failures:  len(snap.Result.Failures),
		EmptyDays: len(snap.Result.EmptyDays),
	})
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func siteHost(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
