package congress

import "github.com/matthewnfaulkner/apoacongress-congressapp/internal/directus"

var (
	f   = directus.F
	fs  = directus.Fs
	rel = directus.Rel
)

type fields = []directus.Field

// eventTypeFields selects the many-to-any type of an event with the item
// fields each collection contributes.
func eventTypeFields() directus.Field {
	return rel("type",
		f("id"),
		f("collection"),
		directus.Union("item", map[string]fields{
			"plenaries":   fs("id", "topic"),
			"symposiums":  nil,
			"workshops":   fs("id", "title"),
			"talks":       fs("id", "topic"),
			"discussions": fs("id", "topic"),
		}),
	)
}

func assignmentFields() directus.Field {
	return rel("assignments",
		rel("person", fs("id", "first_name", "last_name")...),
		rel("role", fs("id", "name")...),
	)
}

func eventFields() fields {
	return fields{
		f("id"),
		f("title"),
		f("relative_start"),
		f("duration"),
		eventTypeFields(),
		assignmentFields(),
		rel("children",
			f("id"),
			f("title"),
			f("relative_start"),
			f("duration"),
			eventTypeFields(),
			assignmentFields(),
		),
	}
}

// scheduleFields is the full congress tree needed to build the grid.
func scheduleFields() fields {
	return fields{
		f("id"),
		f("title"),
		f("startdate"),
		f("enddate"),
		rel("venue", f("id"), f("title"), rel("rooms", fs("id", "title")...)),
		rel("days",
			f("id"),
			f("title"),
			f("date"),
			f("time_subdivision"),
			f("starttime"),
			f("endtime"),
			rel("timeslots", fs("id", "starttime", "endtime")...),
			rel("schedules",
				f("id"),
				f("name"),
				f("status"),
				rel("breaks",
					f("id"),
					f("starttime"),
					f("endtime"),
					f("name"),
					rel("rooms", f("room")),
				),
				rel("sessions",
					f("id"),
					f("title"),
					f("starttime"),
					f("endtime"),
					rel("day", f("id")),
					rel("events", eventFields()...),
					rel("room", f("id")),
					rel("section", fs("id", "name", "color")...),
				),
			),
		),
	}
}

// sectionFields selects the sessions of one programme section.
func sectionFields() fields {
	return fields{
		f("id"),
		f("title"),
		f("starttime"),
		f("endtime"),
		rel("room", f("id"), f("title")),
		rel("section"),
		rel("day"),
		rel("events", eventFields()...),
	}
}

func sessionContextFields() directus.Field {
	return rel("session",
		f("*"),
		rel("schedule", f("*"), rel("day")),
		rel("room"),
		rel("section"),
	)
}

// personFields selects a person profile with the events they take part in.
func personFields() fields {
	return fields{
		f("id"),
		f("title"),
		f("country"),
		f("first_name"),
		f("last_name"),
		f("qualifications"),
		f("image"),
		f("bio"),
		f("affiliations"),
		rel("committee_positions",
			rel("committee_positions_id",
				f("title"),
				rel("committee", fs("title", "congress", "slug")...),
			),
		),
		rel("assignments",
			f("id"),
			rel("event",
				f("id"),
				f("title"),
				f("relative_start"),
				f("duration"),
				eventTypeFields(),
				rel("parent",
					f("id"),
					f("title"),
					f("relative_start"),
					f("duration"),
					eventTypeFields(),
					sessionContextFields(),
				),
				sessionContextFields(),
			),
			rel("role"),
		),
	}
}

func navItemFields(depth int) fields {
	out := fields{
		f("id"),
		f("title"),
		f("url"),
		f("type"),
		rel("translations"),
		rel("page", fs("id", "permalink")...),
		rel("post", fs("id", "slug")...),
	}
	if depth > 1 {
		out = append(out, rel("children", navItemFields(depth-1)...))
	}
	return out
}
