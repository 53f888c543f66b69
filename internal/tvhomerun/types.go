package tvhomerun

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const backendTimestampLayout = "2006-01-02 15:04:05"

// Episode sort orders accepted by /api/shows/{id}/episodes.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// RemoteConfig mirrors the payload returned by the web server's /api/config.
type RemoteConfig struct {
	BackendURL string `json:"backendURL"`
}

// Health mirrors /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// OK reports whether the backend described itself as healthy.
func (h Health) OK() bool {
	switch h.Status {
	case "ok", "OK", "healthy":
		return true
	}
	return false
}

// Show describes a recorded series.
type Show struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	EpisodeCount int    `json:"episode_count"`
}

// Episode describes a single recording.
type Episode struct {
	ID              int64   `json:"id"`
	ShowID          int64   `json:"show_id"`
	ShowTitle       string  `json:"show_title"`
	Title           string  `json:"title"`
	Synopsis        string  `json:"synopsis"`
	SeasonNumber    int     `json:"season_number"`
	EpisodeNumber   int     `json:"episode_number"`
	AirDate         string  `json:"air_date"`
	DurationMinutes int     `json:"duration_minutes"`
	ResumePosition  float64 `json:"resume_position"`
	Watched         Flag    `json:"watched"`
	ImageURL        string  `json:"image_url"`
}

// IsWatched reports whether the backend marked the episode as watched.
func (e Episode) IsWatched() bool {
	return bool(e.Watched)
}

// DurationSeconds converts the backend's minute-granular duration.
func (e Episode) DurationSeconds() float64 {
	return float64(e.DurationMinutes) * 60
}

// ParsedAirDate returns the air date as time.Time, or the zero time.
func (e Episode) ParsedAirDate() time.Time {
	return parseTime(e.AirDate)
}

// Code renders the season/episode pair as S01E02, or "" when unknown.
func (e Episode) Code() string {
	if e.SeasonNumber <= 0 && e.EpisodeNumber <= 0 {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", e.SeasonNumber, e.EpisodeNumber)
}

// Flag is a boolean the backend encodes as 0/1 or true/false.
type Flag bool

// UnmarshalJSON accepts JSON booleans, numbers (1 is true) and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*f = n == 1
		return nil
	}
	if s, err := strconv.Unquote(string(trimmed)); err == nil {
		*f = s == "1" || s == "true"
		return nil
	}
	return fmt.Errorf("invalid flag value %s", trimmed)
}

// MarshalJSON writes the flag the way the backend stores it.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// ShowList is the /api/shows envelope. The backend may also answer with a
// bare array.
type ShowList struct {
	Shows []Show `json:"shows"`
	Count int    `json:"count"`
}

// UnmarshalJSON decodes either envelope form.
func (l *ShowList) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		var shows []Show
		if err := json.Unmarshal(data, &shows); err != nil {
			return err
		}
		*l = ShowList{Shows: shows, Count: len(shows)}
		return nil
	}
	type plain ShowList
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = ShowList(p)
	if l.Count == 0 {
		l.Count = len(l.Shows)
	}
	return nil
}

// EpisodeList is the envelope shared by the episode listing endpoints.
type EpisodeList struct {
	Episodes []Episode `json:"episodes"`
	Count    int       `json:"count"`
}

// UnmarshalJSON decodes either envelope form.
func (l *EpisodeList) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		var episodes []Episode
		if err := json.Unmarshal(data, &episodes); err != nil {
			return err
		}
		*l = EpisodeList{Episodes: episodes, Count: len(episodes)}
		return nil
	}
	type plain EpisodeList
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = EpisodeList(p)
	if l.Count == 0 {
		l.Count = len(l.Episodes)
	}
	return nil
}

type progressBody struct {
	Position int64 `json:"position"`
	Watched  int   `json:"watched"`
}

func isJSONArray(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.Local); err == nil {
		return t
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0)
	}
	return time.Time{}
}
