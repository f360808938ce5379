package format

import (
	"strconv"
	"strings"
	"time"

	"timeline-cli/internal/model"
)

// LongDate renders an ISO YYYY-MM-DD date as "June 1, 2025".
//
// Only the literal year/month/day are used, so the result never shifts by a day in any
// time zone. Input that is not a valid date is returned unchanged.
func LongDate(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return ""
	}
	y, m, d, ok := splitISODate(iso)
	if !ok {
		return iso
	}
	return time.Month(m).String() + " " + strconv.Itoa(d) + ", " + strconv.Itoa(y)
}

func splitISODate(s string) (y, m, d int, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return 0, 0, 0, false
	}
	var err error
	if y, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if m, err = strconv.Atoi(parts[1]); err != nil || m < 1 || m > 12 {
		return 0, 0, 0, false
	}
	if d, err = strconv.Atoi(parts[2]); err != nil || d < 1 {
		return 0, 0, 0, false
	}
	// Day 0 of next month is the last day of this month.
	if d > time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day() {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

// DisplayTitle falls back to model.DefaultTitle for untitled timelines.
func DisplayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return model.DefaultTitle
	}
	return title
}

// ItemLine renders one item the way it is shared: "<time> – <label>".
func ItemLine(it model.Item) string {
	return it.Time + " – " + it.Label
}

// CopyText renders the shareable plain-text form: title, date, a blank line, then one
// line per item.
func CopyText(t model.Timeline) string {
	lines := make([]string, 0, len(t.Items)+3)
	lines = append(lines, DisplayTitle(t.Title), LongDate(t.EventDate), "")
	for _, it := range t.Items {
		lines = append(lines, ItemLine(it))
	}
	return strings.Join(lines, "\n")
}

// Markdown renders the timeline as a small markdown document.
func Markdown(t model.Timeline) string {
	var b strings.Builder
	b.WriteString("# " + DisplayTitle(t.Title) + "\n")
	if d := LongDate(t.EventDate); d != "" {
		b.WriteString("\n_" + d + "_\n")
	}
	b.WriteString("\n")
	if len(t.Items) == 0 {
		b.WriteString("No timeline items yet.\n")
		return b.String()
	}
	for _, it := range t.Items {
		tm := strings.TrimSpace(it.Time)
		if tm == "" {
			b.WriteString("- " + it.Label + "\n")
			continue
		}
		b.WriteString("- **" + tm + "** – " + it.Label + "\n")
	}
	return b.String()
}
