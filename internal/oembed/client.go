package oembed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"

	"github.com/sirupsen/logrus"

	"ogresolver/internal/domain"
	"ogresolver/internal/scraper"
)

// Fetcher retrieves a document with caller-supplied headers.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header) (*domain.FetchResult, error)
}

// ShortLinkResolver follows a short link to its terminal image.
type ShortLinkResolver interface {
	ResolveFinalURL(ctx context.Context, rawURL string) (string, bool)
}

var shortLinkPattern = regexp.MustCompile(`(?i)https?://pic\.twitter\.com/[A-Za-z0-9_-]+`)

// response is the subset of an oEmbed reply the client uses.
type response struct {
	HTML         string `json:"html"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Client queries a public oEmbed endpoint for preview images.
type Client struct {
	endpoint  string
	userAgent string
	fetcher   Fetcher
	shortLink ShortLinkResolver
	log       logrus.FieldLogger
}

// NewClient creates an oEmbed client for endpoint.
func NewClient(endpoint, userAgent string, fetcher Fetcher, shortLink ShortLinkResolver, logger logrus.FieldLogger) *Client {
	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		fetcher:   fetcher,
		shortLink: shortLink,
		log:       logger.WithField("component", "oembed"),
	}
}

// ViaOEmbed looks up originalURL on the oEmbed endpoint. The thumbnail
// wins, then a short link inside the embed HTML, then a raw media link.
// Upstream and parse failures come back as Empty, never as errors.
func (c *Client) ViaOEmbed(ctx context.Context, originalURL string) domain.Result {
	log := c.log.WithField("url", originalURL)

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		log.WithError(err).Warn("Invalid oEmbed endpoint")
		return domain.Empty()
	}
	q := endpoint.Query()
	q.Set("url", originalURL)
	endpoint.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	header.Set("Accept", "application/json")
	header.Set("Accept-Encoding", "gzip, deflate, br")

	res, err := c.fetcher.Fetch(ctx, endpoint.String(), header)
	if err != nil {
		log.WithError(err).Debug("oEmbed request failed")
		return domain.Empty()
	}

	var body response
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		log.WithError(&domain.ParseError{Source: "oembed", Err: err}).Debug("oEmbed response is not JSON")
		return domain.Empty()
	}

	if body.ThumbnailURL != "" {
		return domain.Found(body.ThumbnailURL)
	}
	if body.HTML == "" {
		return domain.Empty()
	}

	if link := shortLinkPattern.FindString(body.HTML); link != "" {
		if resolved, ok := c.shortLink.ResolveFinalURL(ctx, link); ok {
			return domain.Found(resolved)
		}
	}
	return domain.Found(scraper.FindMediaLink(body.HTML))
}
