package directus

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Field is one entry of a field selection. A bare name selects a scalar,
// Sub selects through a relation and Union selects through a many-to-any
// relation per target collection.
type Field struct {
	Name  string
	Sub   []Field
	Union map[string][]Field
}

// F selects a plain field.
func F(name string) Field { return Field{Name: name} }

// Fs selects several plain fields.
func Fs(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = F(n)
	}
	return out
}

// Rel selects sub fields through a relation. An empty sub list selects
// every field of the related item.
func Rel(name string, sub ...Field) Field {
	if sub == nil {
		sub = []Field{}
	}
	return Field{Name: name, Sub: sub}
}

// Union selects fields through a many-to-any relation.
func Union(name string, byCollection map[string][]Field) Field {
	return Field{Name: name, Union: byCollection}
}

// FieldPaths flattens a selection into the dotted paths the REST API
// expects, e.g. "days.schedules.id" or "type.item:talks.topic".
func FieldPaths(fields []Field) []string {
	var out []string
	for _, f := range fields {
		out = appendPaths(out, "", f)
	}
	return out
}

func appendPaths(out []string, prefix string, f Field) []string {
	name := prefix + f.Name
	switch {
	case f.Union != nil:
		collections := make([]string, 0, len(f.Union))
		for c := range f.Union {
			collections = append(collections, c)
		}
		sort.Strings(collections)
		for _, c := range collections {
			sub := f.Union[c]
			if len(sub) == 0 {
				out = append(out, name+":"+c+".*")
				continue
			}
			for _, s := range sub {
				out = appendPaths(out, name+":"+c+".", s)
			}
		}
	case f.Sub != nil:
		if len(f.Sub) == 0 {
			return append(out, name+".*")
		}
		for _, s := range f.Sub {
			out = appendPaths(out, name+".", s)
		}
	default:
		out = append(out, name)
	}
	return out
}

// Filter is a filter or deep object in the store's JSON filter syntax.
type Filter map[string]any

// Eq builds {"_eq": v}.
func Eq(v any) Filter { return Filter{"_eq": v} }

// Query carries the read parameters of one request. Zero values are not
// sent; Limit -1 asks for every item.
type Query struct {
	Fields []Field
	Filter Filter
	Deep   Filter
	Sort   []string
	Limit  int
	Page   int
	Search string
}

// Values encodes the query as URL parameters.
func (q Query) Values() (url.Values, error) {
	v := url.Values{}
	if len(q.Fields) > 0 {
		v.Set("fields", strings.Join(FieldPaths(q.Fields), ","))
	}
	if len(q.Filter) > 0 {
		b, err := json.Marshal(q.Filter)
		if err != nil {
			return nil, fmt.Errorf("directus: encode filter: %w", err)
		}
		v.Set("filter", string(b))
	}
	if len(q.Deep) > 0 {
		b, err := json.Marshal(q.Deep)
		if err != nil {
			return nil, fmt.Errorf("directus: encode deep: %w", err)
		}
		v.Set("deep", string(b))
	}
	if len(q.Sort) > 0 {
		v.Set("sort", strings.Join(q.Sort, ","))
	}
	if q.Limit != 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v, nil
}
