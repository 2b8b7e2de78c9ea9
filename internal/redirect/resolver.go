package redirect

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"ogresolver/internal/domain"
	"ogresolver/internal/fetch"
)

// Prober issues header-only requests.
type Prober interface {
	Probe(ctx context.Context, method, rawURL string) (*domain.ProbeResult, error)
}

// Resolver chases short-link redirects to a terminal image resource without
// downloading it.
type Resolver struct {
	prober  Prober
	maxHops int
	log     logrus.FieldLogger
}

// NewResolver creates a Resolver that gives up after maxHops probes.
func NewResolver(prober Prober, maxHops int, logger logrus.FieldLogger) *Resolver {
	return &Resolver{
		prober:  prober,
		maxHops: maxHops,
		log:     logger.WithField("component", "redirect"),
	}
}

type hopOutcome int

const (
	hopInconclusive hopOutcome = iota
	hopFailed
	hopNext
	hopImage
)

// ResolveFinalURL follows redirects from rawURL and returns the URL of the
// first hop that serves an image. It never fails; anything else is reported
// as not found.
func (r *Resolver) ResolveFinalURL(ctx context.Context, rawURL string) (string, bool) {
	current := rawURL
	log := r.log.WithField("url", rawURL)

	for i := 0; i < r.maxHops; i++ {
		outcome, next := r.probeHop(ctx, http.MethodHead, current)
		if outcome == hopInconclusive {
			// Some hosts answer HEAD without useful headers; retry the
			// same hop as a GET whose body is dropped unread.
			outcome, next = r.probeHop(ctx, http.MethodGet, current)
		}

		switch outcome {
		case hopImage:
			log.WithField("final", current).Debug("Short link resolved to image")
			return current, true
		case hopNext:
			current = next
		default:
			return "", false
		}
	}

	log.WithField("max_hops", r.maxHops).Debug("Short link not resolved within hop limit")
	return "", false
}

func (r *Resolver) probeHop(ctx context.Context, method, current string) (hopOutcome, string) {
	res, err := r.prober.Probe(ctx, method, current)
	if err != nil {
		r.log.WithError(err).Debug("Probe failed")
		return hopFailed, ""
	}

	if res.IsRedirect() {
		next, err := fetch.ResolveReference(current, res.Location)
		if err != nil {
			r.log.WithError(err).WithField("location", res.Location).Debug("Unusable redirect location")
			return hopFailed, ""
		}
		return hopNext, next
	}
	if res.IsImage() {
		return hopImage, ""
	}
	return hopInconclusive, ""
}
