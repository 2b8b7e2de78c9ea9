package scraper

import "context"

// Renderer produces the HTML of a page after client-side scripts have run.
type Renderer interface {
	// RenderHTML loads url in a browser and returns the resulting document.
	RenderHTML(ctx context.Context, url string) (string, error)
}
