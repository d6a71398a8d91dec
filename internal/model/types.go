package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is a content-store primary key. Collections use either integer or
// uuid keys, so both JSON numbers and strings are accepted and kept as
// text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("model: id must be a string or number: %s", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Minutes is a minute count that may arrive as a number, a numeric string
// or null. Fractions are rounded to the nearest minute.
type Minutes int

func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*m = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("model: invalid minute value %s", data)
	}
	*m = Minutes(math.Round(f))
	return nil
}

// decodeRelation decodes either an expanded object into obj or a bare key
// into *id.
func decodeRelation(data []byte, id *ID, obj any) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		return json.Unmarshal(data, obj)
	}
	return id.UnmarshalJSON(data)
}

func (r *Room) UnmarshalJSON(data []byte) error {
	type plain Room
	var p plain
	if err := decodeRelation(data, &p.ID, &p); err != nil {
		return err
	}
	*r = Room(p)
	return nil
}

func (s *Section) UnmarshalJSON(data []byte) error {
	type plain Section
	var p plain
	if err := decodeRelation(data, &p.ID, &p); err != nil {
		return err
	}
	*s = Section(p)
	return nil
}

func (d *DayRef) UnmarshalJSON(data []byte) error {
	type plain DayRef
	var p plain
	if err := decodeRelation(data, &p.ID, &p); err != nil {
		return err
	}
	*d = DayRef(p)
	return nil
}

func (p *Person) UnmarshalJSON(data []byte) error {
	type plain Person
	var v plain
	if err := decodeRelation(data, &v.ID, &v); err != nil {
		return err
	}
	*p = Person(v)
	return nil
}

func (r *Role) UnmarshalJSON(data []byte) error {
	type plain Role
	var v plain
	if err := decodeRelation(data, &v.ID, &v); err != nil {
		return err
	}
	*r = Role(v)
	return nil
}

func (v *Venue) UnmarshalJSON(data []byte) error {
	type plain Venue
	var p plain
	if err := decodeRelation(data, &p.ID, &p); err != nil {
		return err
	}
	*v = Venue(p)
	return nil
}

// TypeRef is the many-to-any link from an Event to its typed record. Item
// holds the collection-specific payload undecoded; it is resolved once by
// the grid flattener.
type TypeRef struct {
	ID         ID              `json:"id"`
	Collection string          `json:"collection"`
	Item       json.RawMessage `json:"item,omitempty"`
}
