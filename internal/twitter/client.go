package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ogresolver/internal/config"
	"ogresolver/internal/domain"
)

// Fetcher issues a single request with caller-supplied headers. It must
// not follow redirects, since the headers carry the bearer token.
type Fetcher interface {
	FetchOnce(ctx context.Context, rawURL string, header http.Header) (*domain.FetchResult, error)
}

// Client looks up tweet media through the official v2 API.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	timeout   time.Duration
	fetcher   Fetcher
	log       logrus.FieldLogger
}

// NewClient creates an API client. Without a bearer token the client is
// disabled and every lookup returns Empty without a request.
func NewClient(cfg config.TwitterConfig, fetcher Fetcher, logger logrus.FieldLogger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.BearerToken,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		fetcher:   fetcher,
		log:       logger.WithField("component", "twitter_api"),
	}
}

// Enabled reports whether a bearer token is configured.
func (c *Client) Enabled() bool {
	return c.token != ""
}

// tweetResponse is the subset of GET /2/tweets/:id used here.
type tweetResponse struct {
	Includes struct {
		Media []domain.PlatformMediaItem `json:"media"`
	} `json:"includes"`
}

// ViaPlatformAPI fetches the media attached to postID and picks a preview.
func (c *Client) ViaPlatformAPI(ctx context.Context, postID string) domain.Result {
	if !c.Enabled() || postID == "" {
		return domain.Empty()
	}
	log := c.log.WithField("post_id", postID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/2/tweets/%s?expansions=attachments.media_keys&media.fields=url,preview_image_url,type,variants",
		c.baseURL, url.PathEscape(postID))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)
	header.Set("User-Agent", c.userAgent)
	header.Set("Accept", "application/json")

	res, err := c.fetcher.FetchOnce(ctx, endpoint, header)
	if err != nil {
		var fe *domain.FetchError
		if errors.As(err, &fe) && fe.StatusCode != 0 {
			log.WithField("status", fe.StatusCode).Info("Twitter API returned error status")
		} else {
			log.WithError(err).Debug("Twitter API request failed")
		}
		return domain.Empty()
	}

	var body tweetResponse
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		log.WithError(&domain.ParseError{Source: "twitter api", Err: err}).Warn("Twitter API parse error")
		return domain.Empty()
	}

	return domain.Found(SelectMedia(body.Includes.Media))
}

// SelectMedia picks the preview for a set of media items: the first photo's
// URL (or its preview), otherwise the first mp4 variant of a video or GIF
// (or its preview). It returns "" when nothing qualifies.
func SelectMedia(items []domain.PlatformMediaItem) string {
	for _, m := range items {
		if m.Type != domain.MediaTypePhoto {
			continue
		}
		if m.URL != "" {
			return m.URL
		}
		if m.PreviewImageURL != "" {
			return m.PreviewImageURL
		}
	}

	for _, m := range items {
		if m.Type != domain.MediaTypeVideo && m.Type != domain.MediaTypeAnimatedGIF {
			continue
		}
		for _, v := range m.Variants {
			if strings.Contains(v.ContentType, "mp4") && v.URL != "" {
				return v.URL
			}
		}
		if m.PreviewImageURL != "" {
			return m.PreviewImageURL
		}
	}
	return ""
}

// ExtractPostID returns the numeric status ID from tweet URLs such as
// https://x.com/{user}/status/{id} or https://mobile.twitter.com/{user}/status/{id}.
// It returns "" for anything else, including short links.
func ExtractPostID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, "twitter") && !strings.Contains(host, "x.com") {
		return ""
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i, p := range parts {
		if p == "status" && i+1 < len(parts) && isDigits(parts[i+1]) {
			return parts[i+1]
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
