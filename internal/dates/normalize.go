package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Normalized is the result of interpreting a free-text availability statement.
type Normalized struct {
	Range Range
	// Approximate is set for vague statements such as "mid March" or
	// "first week of May".
	Approximate bool
}

const (
	monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	dayPattern   = `(\d{1,2})(?:st|nd|rd|th)?`
	yearPattern  = `(?:,?\s*(\d{4}))?`
	sepPattern   = `\s*(?:\.\.|-|–|—|to|through|thru|until|till)\s*`
	isoPattern   = `(\d{4}-\d{2}-\d{2})`
)

var (
	isoRangeRe      = regexp.MustCompile(`^` + isoPattern + sepPattern + isoPattern + `$`)
	isoSingleRe     = regexp.MustCompile(`^` + isoPattern + `$`)
	monthDaysRe     = regexp.MustCompile(`^` + monthPattern + `\s+` + dayPattern + sepPattern + dayPattern + yearPattern + `$`)
	monthToMonthRe  = regexp.MustCompile(`^` + monthPattern + `\s+` + dayPattern + yearPattern + sepPattern + monthPattern + `\s+` + dayPattern + yearPattern + `$`)
	numericRangeRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?` + sepPattern + `(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?$`)
	partOfMonthRe   = regexp.MustCompile(`^(early|mid|late)[\s-]+` + monthPattern + yearPattern + `$`)
	weekOfMonthRe   = regexp.MustCompile(`^(?:the\s+)?(first|1st|second|2nd|third|3rd|fourth|4th|last)\s+week\s+(?:of|in)\s+` + monthPattern + yearPattern + `$`)
	wholeMonthRe    = regexp.MustCompile(`^(?:all of\s+|sometime in\s+)?` + monthPattern + yearPattern + `$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	fillerPrefixes  = []string{"from ", "between ", "any time ", "anytime "}
	trailingPunct   = ".!?;"
	monthsByPrefix  = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// Normalize interprets text relative to ref. When the text carries no year the
// current year of ref is assumed, rolling forward a year if the range would
// already have ended. The boolean is false when the text is not recognised.
func Normalize(text string, ref time.Time) (Normalized, bool) {
	s := clean(text)
	if s == "" {
		return Normalized{}, false
	}
	today := civil(ref)

	for _, parse := range []func(string, time.Time) (Normalized, bool){
		parseISORange,
		parseISOSingle,
		parseMonthDays,
		parseMonthToMonth,
		parseNumericRange,
		parsePartOfMonth,
		parseWeekOfMonth,
		parseWholeMonth,
	} {
		if n, ok := parse(s, today); ok {
			return n, true
		}
	}
	return Normalized{}, false
}

func clean(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimRight(s, trailingPunct)
	for _, p := range fillerPrefixes {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.ReplaceAll(s, " and ", " to ")
	return strings.TrimSpace(s)
}

func parseISORange(s string, _ time.Time) (Normalized, bool) {
	m := isoRangeRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	r, err := ParseRange(m[1], m[2])
	if err != nil {
		return Normalized{}, false
	}
	return Normalized{Range: r}, true
}

func parseISOSingle(s string, _ time.Time) (Normalized, bool) {
	m := isoSingleRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	d, err := ParseDate(m[1])
	if err != nil {
		return Normalized{}, false
	}
	return Normalized{Range: Range{Start: d, End: d}}, true
}

// parseMonthDays handles "march 10-15" and "mar 10th to 15th, 2025".
func parseMonthDays(s string, today time.Time) (Normalized, bool) {
	m := monthDaysRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	month := monthsByPrefix[m[1][:3]]
	d1, _ := strconv.Atoi(m[2])
	d2, _ := strconv.Atoi(m[3])
	year, explicit := yearOf(m[4], today)

	build := func(y int) (Range, bool) {
		start, ok1 := makeDate(y, month, d1)
		end, ok2 := makeDate(y, month, d2)
		return Range{Start: start, End: end}, ok1 && ok2 && !end.Before(start)
	}
	return withRollover(build, year, explicit, today, false)
}

// parseMonthToMonth handles "mar 28 - apr 2" and "dec 28, 2025 to jan 3, 2026".
func parseMonthToMonth(s string, today time.Time) (Normalized, bool) {
	m := monthToMonthRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	m1 := monthsByPrefix[m[1][:3]]
	d1, _ := strconv.Atoi(m[2])
	m2 := monthsByPrefix[m[4][:3]]
	d2, _ := strconv.Atoi(m[5])

	y1, y1Explicit := yearOf(m[3], today)
	y2, y2Explicit := yearOf(m[6], today)
	switch {
	case y1Explicit && !y2Explicit:
		y2 = y1
	case !y1Explicit && y2Explicit:
		y1 = y2
		if m2 < m1 {
			y1 = y2 - 1
		}
	}
	explicit := y1Explicit || y2Explicit
	if !explicit && m2 < m1 {
		y2 = y1 + 1
	}
	if explicit && !(y1Explicit && y2Explicit) && m2 < m1 && y1 == y2 {
		y2 = y1 + 1
	}
	span := y2 - y1

	build := func(y int) (Range, bool) {
		start, ok1 := makeDate(y, m1, d1)
		end, ok2 := makeDate(y+span, m2, d2)
		return Range{Start: start, End: end}, ok1 && ok2 && !end.Before(start)
	}
	return withRollover(build, y1, explicit, today, false)
}

// parseNumericRange handles US-style "3/10-3/15" and "12/28/25 - 1/3/26".
func parseNumericRange(s string, today time.Time) (Normalized, bool) {
	m := numericRangeRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	mo1, _ := strconv.Atoi(m[1])
	d1, _ := strconv.Atoi(m[2])
	mo2, _ := strconv.Atoi(m[4])
	d2, _ := strconv.Atoi(m[5])
	if mo1 < 1 || mo1 > 12 || mo2 < 1 || mo2 > 12 {
		return Normalized{}, false
	}
	y1, y1Explicit := yearOf(m[3], today)
	y2, y2Explicit := yearOf(m[6], today)
	if y1Explicit && !y2Explicit {
		y2 = y1
	}
	if !y1Explicit && y2Explicit {
		y1 = y2
	}
	explicit := y1Explicit || y2Explicit
	if mo2 < mo1 && y1 == y2 {
		y2 = y1 + 1
	}
	span := y2 - y1

	build := func(y int) (Range, bool) {
		start, ok1 := makeDate(y, time.Month(mo1), d1)
		end, ok2 := makeDate(y+span, time.Month(mo2), d2)
		return Range{Start: start, End: end}, ok1 && ok2 && !end.Before(start)
	}
	return withRollover(build, y1, explicit, today, false)
}

// parsePartOfMonth handles "early april", "mid-march 2025" and "late may".
func parsePartOfMonth(s string, today time.Time) (Normalized, bool) {
	m := partOfMonthRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	month := monthsByPrefix[m[2][:3]]
	year, explicit := yearOf(m[3], today)

	build := func(y int) (Range, bool) {
		last := lastDay(y, month)
		var from, to int
		switch m[1] {
		case "early":
			from, to = 1, 10
		case "mid":
			from, to = 11, 20
		default:
			from, to = 21, last
		}
		start, _ := makeDate(y, month, from)
		end, _ := makeDate(y, month, to)
		return Range{Start: start, End: end}, true
	}
	return withRollover(build, year, explicit, today, true)
}

// parseWeekOfMonth handles "first week of may" and "the last week in june".
func parseWeekOfMonth(s string, today time.Time) (Normalized, bool) {
	m := weekOfMonthRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	month := monthsByPrefix[m[2][:3]]
	year, explicit := yearOf(m[3], today)

	build := func(y int) (Range, bool) {
		last := lastDay(y, month)
		var from int
		switch m[1] {
		case "first", "1st":
			from = 1
		case "second", "2nd":
			from = 8
		case "third", "3rd":
			from = 15
		case "fourth", "4th":
			from = 22
		default:
			from = last - 6
		}
		start, _ := makeDate(y, month, from)
		end, _ := makeDate(y, month, from+6)
		return Range{Start: start, End: end}, true
	}
	return withRollover(build, year, explicit, today, true)
}

// parseWholeMonth handles "june" and "sometime in july 2026".
func parseWholeMonth(s string, today time.Time) (Normalized, bool) {
	m := wholeMonthRe.FindStringSubmatch(s)
	if m == nil {
		return Normalized{}, false
	}
	month := monthsByPrefix[m[1][:3]]
	year, explicit := yearOf(m[2], today)

	build := func(y int) (Range, bool) {
		start, _ := makeDate(y, month, 1)
		end, _ := makeDate(y, month, lastDay(y, month))
		return Range{Start: start, End: end}, true
	}
	return withRollover(build, year, explicit, today, true)
}

// withRollover builds the range for year and, when the year was inferred and
// the range has already ended, for the following year.
func withRollover(build func(year int) (Range, bool), year int, explicit bool, today time.Time, approx bool) (Normalized, bool) {
	r, ok := build(year)
	if !ok {
		return Normalized{}, false
	}
	if !explicit && r.End.Before(today) {
		if r, ok = build(year + 1); !ok {
			return Normalized{}, false
		}
	}
	return Normalized{Range: r, Approximate: approx}, true
}

// yearOf parses a two- or four-digit year, defaulting to today's year.
func yearOf(s string, today time.Time) (int, bool) {
	if s == "" {
		return today.Year(), false
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return today.Year(), false
	}
	if y < 100 {
		y += 2000
	}
	return y, true
}

func makeDate(y int, m time.Month, d int) (time.Time, bool) {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t, d >= 1 && t.Month() == m
}

func lastDay(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
