package resolver

import (
	"context"

	"ogresolver/internal/domain"
	"ogresolver/internal/scraper"
	"ogresolver/internal/twitter"
)

// Strategy is one way of turning a source URL into a preview image URL.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, sourceURL string) domain.Result
}

type strategyFunc struct {
	name string
	fn   func(ctx context.Context, sourceURL string) domain.Result
}

func (s strategyFunc) Name() string { return s.name }

func (s strategyFunc) Resolve(ctx context.Context, sourceURL string) domain.Result {
	return s.fn(ctx, sourceURL)
}

// NewStrategy adapts a function to the Strategy interface.
func NewStrategy(name string, fn func(ctx context.Context, sourceURL string) domain.Result) Strategy {
	return strategyFunc{name: name, fn: fn}
}

// PlatformAPI is the authenticated post lookup.
type PlatformAPI interface {
	Enabled() bool
	ViaPlatformAPI(ctx context.Context, postID string) domain.Result
}

// PlatformStrategy queries api for recognized post URLs. Other URLs, or a
// disabled api, are skipped without any request.
func PlatformStrategy(api PlatformAPI) Strategy {
	return NewStrategy("platform-api", func(ctx context.Context, sourceURL string) domain.Result {
		if !api.Enabled() {
			return domain.Empty()
		}
		postID := twitter.ExtractPostID(sourceURL)
		if postID == "" {
			return domain.Empty()
		}
		return api.ViaPlatformAPI(ctx, postID)
	})
}

// HTMLFetcher retrieves page HTML.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, rawURL string) (*domain.FetchResult, error)
}

// HTMLMetaStrategy fetches the page and reads its preview meta tags.
// Relative values resolve against the URL reached after redirects.
func HTMLMetaStrategy(f HTMLFetcher) Strategy {
	return NewStrategy("html-meta", func(ctx context.Context, sourceURL string) domain.Result {
		res, err := f.FetchHTML(ctx, sourceURL)
		if err != nil {
			return domain.Failed(err)
		}
		imageURL, _ := scraper.ExtractImage(res.Body, res.FinalURL)
		return domain.Found(imageURL)
	})
}

// OEmbedClient is the public embed lookup.
type OEmbedClient interface {
	ViaOEmbed(ctx context.Context, originalURL string) domain.Result
}

// OEmbedStrategy asks the oEmbed endpoint about the source URL.
func OEmbedStrategy(c OEmbedClient) Strategy {
	return NewStrategy("oembed", c.ViaOEmbed)
}

// RenderedPageStrategy renders the page in a browser and reads the meta
// tags scripts have added.
func RenderedPageStrategy(r scraper.Renderer) Strategy {
	return NewStrategy("rendered-page", func(ctx context.Context, sourceURL string) domain.Result {
		html, err := r.RenderHTML(ctx, sourceURL)
		if err != nil {
			return domain.Failed(err)
		}
		imageURL, _ := scraper.ExtractImage(html, sourceURL)
		return domain.Found(imageURL)
	})
}
