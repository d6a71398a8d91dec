package directus

import (
	"reflect"
	"testing"
)

func TestFieldPaths(t *testing.T) {
	fields := []Field{
		F("id"),
		Rel("venue", F("id"), Rel("rooms", Fs("id", "title")...)),
		Rel("organiser"),
		Rel("type",
			F("collection"),
			Union("item", map[string][]Field{
				"talks":      Fs("id", "topic"),
				"plenaries":  Fs("id"),
				"symposiums": nil,
			}),
		),
	}

	want := []string{
		"id",
		"venue.id",
		"venue.rooms.id",
		"venue.rooms.title",
		"organiser.*",
		"type.collection",
		"type.item:plenaries.id",
		"type.item:symposiums.*",
		"type.item:talks.id",
		"type.item:talks.topic",
	}
	if got := FieldPaths(fields); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldPaths =\n%v\nwant\n%v", got, want)
	}
}

func TestQueryValues(t *testing.T) {
	q := Query{
		Fields: Fs("id", "title"),
		Filter: Filter{"site": Eq("3")},
		Deep:   Filter{"days": Filter{"timeslots": Filter{"_sort": "starttime", "_limit": -1}}},
		Sort:   []string{"starttime", "-id"},
		Limit:  -1,
		Page:   2,
		Search: "smith",
	}
	v, err := q.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}

	tests := map[string]string{
		"fields": "id,title",
		"filter": `{"site":{"_eq":"3"}}`,
		"deep":   `{"days":{"timeslots":{"_limit":-1,"_sort":"starttime"}}}`,
		"sort":   "starttime,-id",
		"limit":  "-1",
		"page":   "2",
		"search": "smith",
	}
	for key, want := range tests {
		if got := v.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	empty, err := Query{}.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("zero query encodes %v", empty)
	}
}
