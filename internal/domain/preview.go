package domain

import (
	"strings"
	"time"
)

// CacheEntry is the durable record of one successful resolution.
type CacheEntry struct {
	// SourceURL is the exact URL string the caller asked about.
	SourceURL string `json:"source_url"`

	// ImageURL is the preview image resolved for SourceURL. Never empty.
	ImageURL string `json:"image_url"`

	// CreatedAt is when the resolution succeeded. Entries older than the
	// configured TTL are treated as absent.
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the entry is too old to serve at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) >= ttl
}

// Preview is the externally visible outcome of a resolution.
// A nil ImageURL means no preview is available.
type Preview struct {
	ImageURL *string `json:"imageUrl"`
}

// NewPreview builds a Preview, mapping the empty string to "no preview".
func NewPreview(imageURL string) *Preview {
	if imageURL == "" {
		return &Preview{}
	}
	return &Preview{ImageURL: &imageURL}
}

// FetchResult is the decoded response of an HTML (or JSON) fetch.
type FetchResult struct {
	FinalURL        string
	StatusCode      int
	ContentEncoding string
	Body            string
}

// ProbeResult carries the headers of a probe request; the body is never read.
type ProbeResult struct {
	Status      int
	Location    string
	ContentType string
}

// IsRedirect reports a 3xx status that carries a Location.
func (p ProbeResult) IsRedirect() bool {
	return p.Status >= 300 && p.Status < 400 && p.Location != ""
}

// IsImage reports a 200 response declaring an image content type.
func (p ProbeResult) IsImage() bool {
	return p.Status == 200 && strings.HasPrefix(strings.ToLower(p.ContentType), "image/")
}

// MediaType is the kind of a platform media attachment.
type MediaType string

const (
	MediaTypePhoto       MediaType = "photo"
	MediaTypeVideo       MediaType = "video"
	MediaTypeAnimatedGIF MediaType = "animated_gif"
)

// MediaVariant is one encoding of a video or animated GIF.
type MediaVariant struct {
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	BitRate     int    `json:"bit_rate,omitempty"`
}

// PlatformMediaItem is a media attachment returned by the platform API.
type PlatformMediaItem struct {
	MediaKey        string         `json:"media_key"`
	Type            MediaType      `json:"type"`
	URL             string         `json:"url,omitempty"`
	PreviewImageURL string         `json:"preview_image_url,omitempty"`
	Variants        []MediaVariant `json:"variants,omitempty"`
}
