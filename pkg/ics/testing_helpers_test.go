package ics

import "strings"

// calendar wraps VEVENT lines into a VCALENDAR with CRLF line endings.
func calendar(lines ...string) []byte {
	all := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//gatherly//test//EN",
		"X-WR-CALNAME:Team",
	}
	all = append(all, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func vevent(props ...string) []string {
	out := []string{"BEGIN:VEVENT", "DTSTAMP:20260101T000000Z"}
	out = append(out, props...)
	return append(out, "END:VEVENT")
}

func join(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
