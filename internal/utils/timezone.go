package utils

import (
	"time"
	_ "time/tzdata"
)

const DisplayLayout = "01/02/2006 15:04"

// LoadLocation resolves an IANA zone, falling back to UTC when the tz
// database does not know it.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		LogWarning("Fuso horário %q desconhecido, usando UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// FormatLocal formats t in loc. A zero time renders as an empty string.
func FormatLocal(t time.Time, loc *time.Location, layout string) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layout)
}
