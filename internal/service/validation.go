package service

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	config "github.com/maheshrc27/igpublisher/configs"
	"github.com/maheshrc27/igpublisher/internal/models"
)

const wallClockLayout = "2006-01-02T15:04"

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// CountHashtags counts "#word" tokens the way Instagram does.
func CountHashtags(caption string) int {
	return len(hashtagPattern.FindAllStringIndex(caption, -1))
}

// PostDraft holds the user supplied fields of a post after parsing.
type PostDraft struct {
	Caption      string
	MediaURLs    []string
	MediaType    models.MediaType
	ScheduledFor time.Time
	Timezone     string
}

// ValidatePostDraft applies the content rules. It returns the first violation.
func ValidatePostDraft(d *PostDraft, limits config.Limits, now time.Time) error {
	if n := utf8.RuneCountInString(d.Caption); n > limits.MaxCaptionLength {
		return models.NewValidationError("caption", "must be at most %d characters, got %d", limits.MaxCaptionLength, n)
	}
	if n := CountHashtags(d.Caption); n > limits.MaxHashtags {
		return models.NewValidationError("caption", "must contain at most %d hashtags, got %d", limits.MaxHashtags, n)
	}

	if len(d.MediaURLs) == 0 {
		return models.NewValidationError("media_urls", "at least one media url is required")
	}
	if len(d.MediaURLs) > limits.MaxMediaItems {
		return models.NewValidationError("media_urls", "at most %d media items are allowed", limits.MaxMediaItems)
	}
	for _, raw := range d.MediaURLs {
		if !validMediaURL(raw) {
			return models.NewValidationError("media_urls", "%q is not a valid http(s) url", raw)
		}
	}

	if !d.MediaType.Valid() {
		return models.NewValidationError("media_type", "must be one of IMAGE, VIDEO, REELS, CAROUSEL")
	}
	switch d.MediaType {
	case models.MediaTypeCarousel:
		if len(d.MediaURLs) < 2 {
			return models.NewValidationError("media_urls", "a carousel needs at least 2 media items")
		}
	default:
		if len(d.MediaURLs) != 1 {
			return models.NewValidationError("media_urls", "%s posts take exactly one media item", d.MediaType)
		}
	}

	if _, err := time.LoadLocation(d.Timezone); err != nil {
		return models.NewValidationError("timezone", "unknown timezone %q", d.Timezone)
	}
	if d.ScheduledFor.IsZero() {
		return models.NewValidationError("scheduled_for", "is required")
	}
	if !d.ScheduledFor.After(now) {
		return models.NewValidationError("scheduled_for", "must be in the future")
	}
	return nil
}

// ParseScheduledFor accepts RFC 3339 timestamps, or a wall-clock time in tz.
func ParseScheduledFor(value, tz string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, models.NewValidationError("scheduled_for", "is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, models.NewValidationError("timezone", "unknown timezone %q", tz)
	}
	t, err := time.ParseInLocation(wallClockLayout, value, loc)
	if err != nil {
		return time.Time{}, models.NewValidationError("scheduled_for", "must be RFC 3339 or %s", wallClockLayout)
	}
	return t.UTC(), nil
}

func validMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isVideoURL guesses the media kind of a carousel item from its extension.
func isVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range []string{".mp4", ".mov", ".m4v"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
