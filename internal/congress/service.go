// Package congress reads congress documents and the surrounding site
// content from the content store and shapes them for the grid engine and
// the HTTP API.
package congress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/directus"
	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/timeindex"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("congress: not found")

	// ErrInvalidQuery is returned for out-of-range list or lookup parameters.
	ErrInvalidQuery = errors.New("congress: invalid query")
)

// Reader is the part of the content store client the service needs.
type Reader interface {
	ReadItems(ctx context.Context, collection string, q directus.Query, out any) error
	ReadItem(ctx context.Context, collection, id string, q directus.Query, out any) error
	ReadSingleton(ctx context.Context, collection string, q directus.Query, out any) error
}

// Service answers congress queries for one site.
type Service struct {
	client *directus.Client
	siteID string
	log    *appLog.Logger
}

// NewService creates a service reading through client, scoped to siteID.
func NewService(client *directus.Client, siteID string) *Service {
	return &Service{
		client: client,
		siteID: siteID,
		log:    appLog.With("component", "congress", "site", siteID),
	}
}

// reader returns the client to use for a request. A non-empty preview
// token replaces the server token.
func (s *Service) reader(token string) Reader {
	return s.client.WithToken(token)
}

// Schedule returns the congress of the site with its days, schedules,
// sessions and breaks. Without a preview token only published schedules
// are returned; with one, drafts are included as well.
func (s *Service) Schedule(ctx context.Context, token string) (model.Congress, error) {
	deep := directus.Filter{
		"timeslots": directus.Filter{"_sort": "starttime", "_limit": -1},
		"schedules": directus.Filter{"_limit": -1},
	}
	if token == "" {
		deep["schedules"] = directus.Filter{
			"_limit":  -1,
			"_filter": directus.Filter{"status": directus.Eq(string(model.StatusPublished))},
		}
	}
	q := directus.Query{
		Limit:  1,
		Fields: scheduleFields(),
		Filter: directus.Filter{"site": directus.Eq(s.siteID)},
		Deep:   directus.Filter{"days": deep},
	}

	var out []model.Congress
	if err := s.reader(token).ReadItems(ctx, "congress", q, &out); err != nil {
		return model.Congress{}, s.wrap(err, "schedule")
	}
	c := out[0]
	normalizeCongress(&c, token != "")
	s.log.Debug("schedule loaded", "congress", c.ID, "days", len(c.Days), "preview", token != "")
	return c, nil
}

// normalizeCongress sorts time slots by start and drops draft schedules
// unless preview is set, whatever the store returned.
func normalizeCongress(c *model.Congress, preview bool) {
	for i := range c.Days {
		d := &c.Days[i]
		slices.SortStableFunc(d.TimeSlots, func(a, b model.TimeSlot) int {
			return timeindex.ToMinutes(a.StartTime) - timeindex.ToMinutes(b.StartTime)
		})
		if preview {
			continue
		}
		d.Schedules = slices.DeleteFunc(d.Schedules, func(sc model.Schedule) bool {
			return !sc.Published()
		})
	}
}

// Section returns the sessions of the section with the given slug, sorted
// by start time with their events ordered by relative start. The token is
// only honoured when preview is set.
func (s *Service) Section(ctx context.Context, slug string, preview bool, token string) ([]model.Session, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: section slug is required", ErrInvalidQuery)
	}
	if !preview {
		token = ""
	}

	filter := directus.Filter{
		"section": directus.Filter{"slug": directus.Eq(slug)},
	}
	if token == "" {
		filter["schedule"] = directus.Filter{"status": directus.Eq(string(model.StatusPublished))}
	}
	q := directus.Query{
		Fields: sectionFields(),
		Sort:   []string{"starttime"},
		Limit:  -1,
		Filter: filter,
		Deep: directus.Filter{
			"schedule": directus.Filter{
				"day": directus.Filter{
					"_filter": directus.Filter{
						"congress": directus.Filter{"site": directus.Eq(s.siteID)},
					},
				},
			},
			"events": directus.Filter{
				"_sort":    "relative_start",
				"children": directus.Filter{"_sort": "relative_start"},
			},
		},
	}

	var sessions []model.Session
	if err := s.reader(token).ReadItems(ctx, "congress_sessions", q, &sessions); err != nil {
		return nil, s.wrap(err, "section "+slug)
	}
	slices.SortStableFunc(sessions, func(a, b model.Session) int {
		return timeindex.ToMinutes(a.StartTime) - timeindex.ToMinutes(b.StartTime)
	})
	for i := range sessions {
		sortEvents(sessions[i].Events)
	}
	return sessions, nil
}

// sortEvents orders events and their children by relative start.
func sortEvents(events []model.Event) {
	stack := [][]model.Event{events}
	for len(stack) > 0 {
		level := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		slices.SortStableFunc(level, func(a, b model.Event) int {
			return int(a.RelativeStart) - int(b.RelativeStart)
		})
		for i := range level {
			if len(level[i].Children) > 0 {
				stack = append(stack, level[i].Children)
			}
		}
	}
}

// ListQuery pages through a collection.
type ListQuery struct {
	Limit  int      `validate:"gte=1,lte=100"`
	Page   int      `validate:"gte=1"`
	Search string   `validate:"max=200"`
	Fields []string `validate:"dive,required"`
}

// DefaultListQuery returns the first page of six items.
func DefaultListQuery() ListQuery {
	return ListQuery{Limit: 6, Page: 1}
}

var validate = validator.New()

// Validate reports out-of-range parameters as ErrInvalidQuery.
func (q ListQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %s=%s", ErrInvalidQuery, strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}

func (q ListQuery) toQuery(def []directus.Field) directus.Query {
	dq := directus.Query{
		Fields: def,
		Limit:  q.Limit,
		Page:   q.Page,
		Search: q.Search,
	}
	if len(q.Fields) > 0 {
		dq.Fields = fs(q.Fields...)
	}
	return dq
}

// Persons lists person profiles.
func (s *Service) Persons(ctx context.Context, q ListQuery) ([]model.Person, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var out []model.Person
	if err := s.reader("").ReadItems(ctx, "persons", q.toQuery(personFields()), &out); err != nil {
		return nil, s.wrap(err, "persons")
	}
	return out, nil
}

// Person returns one person profile by id.
func (s *Service) Person(ctx context.Context, id string) (model.Person, error) {
	if strings.TrimSpace(id) == "" {
		return model.Person{}, fmt.Errorf("%w: person id is required", ErrInvalidQuery)
	}
	var out model.Person
	if err := s.reader("").ReadItem(ctx, "persons", id, directus.Query{Fields: personFields()}, &out); err != nil {
		return model.Person{}, s.wrap(err, "person "+id)
	}
	return out, nil
}

// Roles lists participation roles.
func (s *Service) Roles(ctx context.Context, q ListQuery) ([]model.Role, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var out []model.Role
	if err := s.reader("").ReadItems(ctx, "roles", q.toQuery(fs("*")), &out); err != nil {
		return nil, s.wrap(err, "roles")
	}
	return out, nil
}

// Role returns one role by id.
func (s *Service) Role(ctx context.Context, id string) (model.Role, error) {
	if strings.TrimSpace(id) == "" {
		return model.Role{}, fmt.Errorf("%w: role id is required", ErrInvalidQuery)
	}
	var out model.Role
	if err := s.reader("").ReadItem(ctx, "roles", id, directus.Query{Fields: fs("*")}, &out); err != nil {
		return model.Role{}, s.wrap(err, "role "+id)
	}
	return out, nil
}

// SiteData fetches globals, the site record and both navigation menus
// concurrently. A missing menu is returned as nil.
func (s *Service) SiteData(ctx context.Context) (model.SiteData, error) {
	var out model.SiteData
	r := s.reader("")
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q := directus.Query{Fields: fs("title", "description", "logo", "logo_dark_mode", "social_links", "accent_color", "favicon")}
		if err := r.ReadSingleton(ctx, "globals", q, &out.Globals); err != nil {
			return s.wrap(err, "globals")
		}
		return nil
	})
	g.Go(func() error {
		q := directus.Query{Fields: fields{f("title"), f("description"), rel("congress", rel("organiser"))}}
		if err := r.ReadItem(ctx, "sites", s.siteID, q, &out.Site); err != nil {
			return s.wrap(err, "site")
		}
		return nil
	})
	g.Go(func() error {
		nav, err := s.navigation(ctx, r, "main", 3)
		out.HeaderNavigation = nav
		return err
	})
	g.Go(func() error {
		nav, err := s.navigation(ctx, r, "footer", 2)
		out.FooterNavigation = nav
		return err
	})

	if err := g.Wait(); err != nil {
		return model.SiteData{}, err
	}
	return out, nil
}

func (s *Service) navigation(ctx context.Context, r Reader, key string, depth int) (*model.Navigation, error) {
	deepItems := directus.Filter{"_sort": []string{"sort"}}
	for cur, d := deepItems, depth; d > 1; d-- {
		next := directus.Filter{"_sort": []string{"sort"}}
		cur["children"] = next
		cur = next
	}
	q := directus.Query{
		Limit: 1,
		Filter: directus.Filter{"_and": []directus.Filter{
			{"key": directus.Eq(key)},
			{"site": directus.Filter{"id": directus.Eq(s.siteID)}},
		}},
		Fields: fields{rel("items", navItemFields(depth)...)},
		Deep:   directus.Filter{"items": deepItems},
	}

	var out []model.Navigation
	if err := r.ReadItems(ctx, "navigation", q, &out); err != nil {
		if errors.Is(err, directus.ErrNotFound) {
			s.log.Warn("navigation missing", "key", key)
			return nil, nil
		}
		return nil, s.wrap(err, key+" navigation")
	}
	return &out[0], nil
}

func (s *Service) wrap(err error, what string) error {
	if errors.Is(err, directus.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("congress: read %s: %w", what, err)
}
