// Package calendar renders locked trip dates as iCalendar (RFC 5545) feeds.
package calendar

import (
	"bufio"
	"io"
	"strings"
	"time"
)

const (
	dateFormat  = "20060102"
	stampFormat = "20060102T150405Z"
	prodID      = "-//trypzy//schedule//EN"
	maxLineLen  = 75
)

// Event is an all-day event. Start and End are inclusive calendar dates.
type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Stamp       time.Time
}

// Write renders events as a VCALENDAR document.
func Write(w io.Writer, events ...Event) error {
	bw := bufio.NewWriter(w)
	line := func(s string) {
		bw.WriteString(fold(s))
		bw.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:" + prodID)
	line("CALSCALE:GREGORIAN")
	for _, e := range events {
		line("BEGIN:VEVENT")
		line("UID:" + escape(e.UID))
		line("DTSTAMP:" + e.Stamp.UTC().Format(stampFormat))
		line("DTSTART;VALUE=DATE:" + e.Start.Format(dateFormat))
		// DTEND is exclusive for all-day events
		line("DTEND;VALUE=DATE:" + e.End.AddDate(0, 0, 1).Format(dateFormat))
		line("SUMMARY:" + escape(e.Summary))
		if e.Description != "" {
			line("DESCRIPTION:" + escape(e.Description))
		}
		line("TRANSP:OPAQUE")
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return bw.Flush()
}

var escaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escape(s string) string {
	return escaper.Replace(s)
}

// fold splits content lines longer than 75 octets, continuing with a space.
// Splits never fall inside a UTF-8 sequence.
func fold(s string) string {
	if len(s) <= maxLineLen {
		return s
	}
	var b strings.Builder
	limit := maxLineLen
	for len(s) > limit {
		cut := limit
		for cut > 0 && !startsRune(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		// Continuation lines lose one octet to the leading space
		limit = maxLineLen - 1
	}
	b.WriteString(s)
	return b.String()
}

func startsRune(c byte) bool {
	return c&0xC0 != 0x80
}
