package twitter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ogresolver/internal/config"
	"ogresolver/internal/domain"
	"ogresolver/internal/fetch"
	"ogresolver/internal/fetch/fetchtest"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(baseURL, token string) *Client {
	f := fetch.NewFetcher(config.FetchConfig{
		UserAgent:    config.DefaultUserAgent,
		Timeout:      2 * time.Second,
		ProbeTimeout: 2 * time.Second,
		MaxBodyBytes: 1 << 20,
		MaxRedirects: 10,
	}, nil, testLogger())

	return NewClient(config.TwitterConfig{
		BearerToken: token,
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		UserAgent:   "ogresolver-test",
	}, f, testLogger())
}

func TestViaPlatformAPI_Photo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/1234567890", r.URL.Path)
		assert.Equal(t, "attachments.media_keys", r.URL.Query().Get("expansions"))
		assert.Equal(t, "url,preview_image_url,type,variants", r.URL.Query().Get("media.fields"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"id":"1234567890"},"includes":{"media":[{"media_key":"3_1","type":"photo","url":"https://pbs.twimg.com/media/p.jpg"}]}}`)
	}))
	defer srv.Close()

	res := newTestClient(srv.URL, "tok").ViaPlatformAPI(context.Background(), "1234567890")
	require.True(t, res.OK())
	assert.Equal(t, "https://pbs.twimg.com/media/p.jpg", res.ImageURL)
}

func TestViaPlatformAPI_DisabledWithoutToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	assert.False(t, c.Enabled())

	res := c.ViaPlatformAPI(context.Background(), "1")
	assert.False(t, res.OK())
	assert.Zero(t, calls.Load(), "No request should be made without a token")
}

func TestViaPlatformAPI_DoesNotFollowRedirects(t *testing.T) {
	var otherHostHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Host {
		case "api.twitter.com":
			http.Redirect(w, r, "https://elsewhere.test/collect", http.StatusFound)
		default:
			otherHostHits.Add(1)
			assert.Empty(t, r.Header.Get("Authorization"), "Bearer token leaked to %s", r.Host)
			io.WriteString(w, `{"includes":{"media":[{"type":"photo","url":"https://elsewhere.test/p.jpg"}]}}`)
		}
	}))
	defer srv.Close()

	f := fetch.NewFetcher(config.FetchConfig{
		UserAgent:    config.DefaultUserAgent,
		Timeout:      2 * time.Second,
		ProbeTimeout: 2 * time.Second,
		MaxBodyBytes: 1 << 20,
		MaxRedirects: 10,
	}, fetchtest.NewClient(srv), testLogger())
	c := NewClient(config.TwitterConfig{
		BearerToken: "SECRET",
		BaseURL:     "https://api.twitter.com",
		Timeout:     2 * time.Second,
	}, f, testLogger())

	res := c.ViaPlatformAPI(context.Background(), "1")
	assert.False(t, res.OK())
	assert.NoError(t, res.Err)
	assert.Zero(t, otherHostHits.Load(), "A redirect from the API must not be followed")
}

func TestViaPlatformAPI_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"title":"Unauthorized"}`, http.StatusUnauthorized)
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"includes":`)
		}},
		{"no media", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"data":{"id":"1"}}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			res := newTestClient(srv.URL, "tok").ViaPlatformAPI(context.Background(), "1")
			assert.False(t, res.OK())
			assert.NoError(t, res.Err)
		})
	}
}

func TestSelectMedia(t *testing.T) {
	tests := []struct {
		name  string
		items []domain.PlatformMediaItem
		want  string
	}{
		{"empty", nil, ""},
		{
			"photo url",
			[]domain.PlatformMediaItem{{Type: "photo", URL: "p-url", PreviewImageURL: "p-prev"}},
			"p-url",
		},
		{
			"photo preview fallback",
			[]domain.PlatformMediaItem{{Type: "photo", PreviewImageURL: "p-prev"}},
			"p-prev",
		},
		{
			"photo beats earlier video",
			[]domain.PlatformMediaItem{
				{Type: "video", Variants: []domain.MediaVariant{{ContentType: "video/mp4", URL: "v.mp4"}}},
				{Type: "photo", URL: "p-url"},
			},
			"p-url",
		},
		{
			"first mp4 variant",
			[]domain.PlatformMediaItem{{
				Type:            "video",
				PreviewImageURL: "v-prev",
				Variants: []domain.MediaVariant{
					{ContentType: "application/x-mpegURL", URL: "v.m3u8"},
					{ContentType: "video/mp4", URL: "v-low.mp4", BitRate: 256000},
					{ContentType: "video/mp4", URL: "v-high.mp4", BitRate: 2176000},
				},
			}},
			"v-low.mp4",
		},
		{
			"animated gif preview without mp4",
			[]domain.PlatformMediaItem{{
				Type:            "animated_gif",
				PreviewImageURL: "g-prev",
				Variants:        []domain.MediaVariant{{ContentType: "application/x-mpegURL", URL: "g.m3u8"}},
			}},
			"g-prev",
		},
		{
			"unknown type ignored",
			[]domain.PlatformMediaItem{{Type: "audio", URL: "a"}},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectMedia(tt.items))
		})
	}
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x.com/user/status/1234567890", "1234567890"},
		{"https://twitter.com/user/status/1234567890?s=20", "1234567890"},
		{"https://mobile.twitter.com/user/status/42/photo/1", "42"},
		{"https://x.com/user/status/abc", ""},
		{"https://x.com/user", ""},
		{"https://pic.twitter.com/AbCdEf", ""},
		{"https://example.test/user/status/1234", ""},
		{"not a url %zz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPostID(tt.url))
		})
	}
}
