// Package format turns catalog values into display strings.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// PlaceholderImage is shown when a show or episode has no artwork.
const PlaceholderImage = "https://via.placeholder.com/300x200?text=No+Image"

// resumeCeiling is the progress percentage above which an episode counts as
// finished for resume purposes.
const resumeCeiling = 95

// AirDate describes t relative to now: "Today at 3:04 PM", "Yesterday at ...",
// a weekday within the last week, or the full date.
func AirDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	clock := t.Format("3:04 PM")
	switch days := calendarDays(t, now); {
	case days == 0:
		return "Today at " + clock
	case days == 1:
		return "Yesterday at " + clock
	case days > 1 && days < 7:
		return t.Format("Monday") + " at " + clock
	default:
		return t.Format("January 2, 2006") + " at " + clock
	}
}

// calendarDays counts midnights between t and now in now's location.
func calendarDays(t, now time.Time) int {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Duration renders seconds as "1h 5m" or "45m". Zero renders as "".
func Duration(seconds float64) string {
	if !finitePositive(seconds) {
		return ""
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Clock renders seconds as "M:SS" or "H:MM:SS".
func Clock(seconds float64) string {
	if !finitePositive(seconds) {
		return "0:00"
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// Progress returns the watched percentage, floored and capped at 100.
func Progress(resume, duration float64) int {
	if !finitePositive(resume) || !finitePositive(duration) {
		return 0
	}
	pct := math.Floor(resume / duration * 100)
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// ShouldShowResume reports whether playback stopped part way through.
func ShouldShowResume(resumeSeconds float64, durationMinutes int) bool {
	if durationMinutes <= 0 {
		return false
	}
	p := Progress(resumeSeconds, float64(durationMinutes)*60)
	return p > 0 && p < resumeCeiling
}

// ImageURL returns url, or fallback (PlaceholderImage when empty) if url is blank.
func ImageURL(url, fallback string) string {
	if strings.TrimSpace(url) != "" {
		return url
	}
	if fallback != "" {
		return fallback
	}
	return PlaceholderImage
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
