package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// ErrBrowserNotFound is returned when no Chromium binary is available.
var ErrBrowserNotFound = errors.New("rod browser dependency not found")

// RodRenderer implements Renderer using the rod library.
// A browser is launched per call and closed before returning.
type RodRenderer struct {
	timeout time.Duration
	log     logrus.FieldLogger
	connect func(controlURL string) (*rod.Browser, error)
}

// NewRodRenderer creates a renderer whose page loads are bounded by timeout.
func NewRodRenderer(timeout time.Duration, logger logrus.FieldLogger) *RodRenderer {
	return &RodRenderer{
		timeout: timeout,
		log:     logger.WithField("component", "renderer"),
		connect: connectBrowser,
	}
}

func connectBrowser(controlURL string) (*rod.Browser, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return browser, nil
}

// RenderHTML loads url in a headless browser and returns the rendered HTML.
func (r *RodRenderer) RenderHTML(ctx context.Context, url string) (html string, err error) {
	log := r.log.WithField("url", url)
	log.Debug("Rendering page")

	path, exists := launcher.LookPath()
	if !exists {
		return "", ErrBrowserNotFound
	}

	l := launcher.New().Bin(path)
	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	browser, err := r.connect(controlURL)
	if err != nil {
		// Nothing else owns the process yet.
		l.Kill()
		return "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing rod browser instance")
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	page, err := browser.Context(pageCtx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("Error closing rod page")
		}
	}()

	if err = page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("rendering timed out for %s: %w", url, pageCtx.Err())
		}
		return "", fmt.Errorf("failed waiting for page load: %w", err)
	}

	html, err = page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read rendered html: %w", err)
	}

	log.WithField("bytes", len(html)).Debug("Page rendered")
	return html, nil
}
