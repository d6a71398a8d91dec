package grid

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matthewnfaulkner/apoacongress-congressapp/internal/model"
)

// Collection names the content-store collection an event's type record
// lives in.
type Collection string

const (
	CollectionPlenary    Collection = "plenaries"
	CollectionSymposium  Collection = "symposiums"
	CollectionWorkshop   Collection = "workshops"
	CollectionTalk       Collection = "talks"
	CollectionDiscussion Collection = "discussions"
)

// EventType is the resolved payload of an event's type link. The concrete
// value is one of Plenary, Symposium, Workshop, Talk, Discussion or
// Unknown; consumers switch on it instead of inspecting raw JSON.
type EventType interface {
	Collection() Collection
	ItemID() model.ID
}

type Plenary struct {
	ID    model.ID `json:"id"`
	Topic string   `json:"topic,omitempty"`
}

type Symposium struct {
	ID          model.ID `json:"id"`
	Title       string   `json:"title,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Description string   `json:"description,omitempty"`
}

type Workshop struct {
	ID    model.ID `json:"id"`
	Title string   `json:"title,omitempty"`
}

type Talk struct {
	ID    model.ID `json:"id"`
	Topic string   `json:"topic,omitempty"`
}

type Discussion struct {
	ID    model.ID `json:"id"`
	Topic string   `json:"topic,omitempty"`
}

// Unknown keeps the identity of a type record from a collection this
// package does not model.
type Unknown struct {
	Name string   `json:"collection"`
	ID   model.ID `json:"id"`
}

func (Plenary) Collection() Collection    { return CollectionPlenary }
func (Symposium) Collection() Collection  { return CollectionSymposium }
func (Workshop) Collection() Collection   { return CollectionWorkshop }
func (Talk) Collection() Collection       { return CollectionTalk }
func (Discussion) Collection() Collection { return CollectionDiscussion }
func (u Unknown) Collection() Collection  { return Collection(u.Name) }

func (p Plenary) ItemID() model.ID    { return p.ID }
func (s Symposium) ItemID() model.ID  { return s.ID }
func (w Workshop) ItemID() model.ID   { return w.ID }
func (t Talk) ItemID() model.ID       { return t.ID }
func (d Discussion) ItemID() model.ID { return d.ID }
func (u Unknown) ItemID() model.ID    { return u.ID }

// normalizeCollection accepts singular and plural spellings in any case.
func normalizeCollection(name string) Collection {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plenary", "plenaries":
		return CollectionPlenary
	case "symposium", "symposiums", "symposia":
		return CollectionSymposium
	case "workshop", "workshops":
		return CollectionWorkshop
	case "talk", "talks":
		return CollectionTalk
	case "discussion", "discussions":
		return CollectionDiscussion
	default:
		return Collection(name)
	}
}

// ResolveType decodes a type link into its tagged value. A nil link
// yields nil. An item collapsed to its key yields a value with only the ID
// set; an item that fails to decode keeps its collection as Unknown.
func ResolveType(ref *model.TypeRef) EventType {
	if ref == nil {
		return nil
	}
	coll := normalizeCollection(ref.Collection)

	var out EventType
	switch coll {
	case CollectionPlenary:
		var v Plenary
		if decodeItem(ref.Item, &v.ID, &v) {
			out = v
		}
	case CollectionSymposium:
		var v Symposium
		if decodeItem(ref.Item, &v.ID, &v) {
			out = v
		}
	case CollectionWorkshop:
		var v Workshop
		if decodeItem(ref.Item, &v.ID, &v) {
			out = v
		}
	case CollectionTalk:
		var v Talk
		if decodeItem(ref.Item, &v.ID, &v) {
			out = v
		}
	case CollectionDiscussion:
		var v Discussion
		if decodeItem(ref.Item, &v.ID, &v) {
			out = v
		}
	}
	if out != nil {
		return out
	}

	u := Unknown{Name: string(coll)}
	decodeItem(ref.Item, &u.ID, &struct {
		ID *model.ID `json:"id"`
	}{ID: &u.ID})
	return u
}

func decodeItem(raw json.RawMessage, id *model.ID, obj any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	if raw[0] == '{' {
		return json.Unmarshal(raw, obj) == nil
	}
	return id.UnmarshalJSON(raw) == nil
}
