package normalizer

import (
	"regexp"
	"strconv"
	"time"
)

// temporalPattern matches a normalized (lowercased) substring and computes
// an absolute [start, end) range relative to "now".
type temporalPattern struct {
	re     *regexp.Regexp
	toSpan func(now time.Time, m []string) (time.Time, time.Time)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daySpan(t time.Time) (time.Time, time.Time) {
	s := dayStart(t)
	return s, s.Add(24 * time.Hour)
}

// catalog is the documented set of Turkish + English temporal expressions
// spec.md §4.4 requires: "geçen hafta", "dün akşam", "öbür gün", "yesterday",
// "N days ago", etc. Patterns are matched against ASCII-folded+lowercased
// text so "geçen hafta" and "gecen hafta" both match.
var catalog = []temporalPattern{
	{re: regexp.MustCompile(`\btoday\b|\bbugun\b`), toSpan: func(now time.Time, _ []string) (time.Time, time.Time) {
		return daySpan(now)
	}},
	{re: regexp.MustCompile(`\byesterday\b|\bdun\b`), toSpan: func(now time.Time, _ []string) (time.Time, time.Time) {
		return daySpan(now.Add(-24 * time.Hour))
	}},
	{re: regexp.MustCompile(`\bdun aksam\b|\byesterday evening\b|\blast night\b`), toSpan: func(now time.Time, _ []string) (time.Time, time.Time) {
		s, _ := daySpan(now.Add(-24 * time.Hour))
		return s.Add(17 * time.Hour), s.Add(24 * time.Hour)
	}},
	{re: regexp.MustCompile(`\bobur gun\b|\bday after tomorrow\b`), toSpan: func(now time.Time, _ []string) (time.Time, time.Time) {
		return daySpan(now.Add(48 * time.Hour))
	}},
	{re: regexp.MustCompile(`\bgecen hafta\b|\blast week\b`), toSpan: func(now time.Time, _ []string) (time.Time, time.Time) {
		end := dayStart(now.AddDate(0, 0, -int(now.Weekday())))
		start := end.AddDate(0, 0, -7)
		return start, end
	}},
	{re: regexp.MustCompile(`\bgecen ay\b|\blast month\b`), toSpan: func(now time.Time, _ []string) (time.Time, time.Time) {
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		firstOfLast := firstOfThis.AddDate(0, -1, 0)
		return firstOfLast, firstOfThis
	}},
	{re: regexp.MustCompile(`\bbu hafta\b|\bthis week\b`), toSpan: func(now time.Time, _ []string) (time.Time, time.Time) {
		start := dayStart(now.AddDate(0, 0, -int(now.Weekday())))
		return start, now
	}},
	{re: regexp.MustCompile(`(\d+)\s*(?:gun once|days? ago)`), toSpan: func(now time.Time, m []string) (time.Time, time.Time) {
		n, _ := strconv.Atoi(m[1])
		return daySpan(now.AddDate(0, 0, -n))
	}},
	{re: regexp.MustCompile(`(\d+)\s*(?:hafta once|weeks? ago)`), toSpan: func(now time.Time, m []string) (time.Time, time.Time) {
		n, _ := strconv.Atoi(m[1])
		return daySpan(now.AddDate(0, 0, -7*n))
	}},
}

// extractTemporalRefs scans normalized text for the documented phrase
// catalog and returns the absolute ranges found, usable as recall filters.
func extractTemporalRefs(normalizedText string, now time.Time) []TemporalRef {
	var refs []TemporalRef
	for _, p := range catalog {
		m := p.re.FindStringSubmatch(normalizedText)
		if m == nil {
			continue
		}
		start, end := p.toSpan(now, m)
		refs = append(refs, TemporalRef{Phrase: m[0], Start: start, End: end})
	}
	return refs
}
