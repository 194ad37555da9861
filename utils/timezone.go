package utils

import "time"

const displayLayout = "2006-01-02 15:04:05"

// LoadLocation resolves an IANA zone name, falling back to the server zone.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// ValidTimeZone reports whether name is a loadable IANA zone.
func ValidTimeZone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// FormatTime renders t in loc with the board's display layout.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(displayLayout)
}
