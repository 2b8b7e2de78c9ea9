package resolver

import (
	"context"
	"errors"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"ogresolver/internal/config"
	"ogresolver/internal/domain"
	"ogresolver/internal/storage"
)

// Service resolves preview images for source URLs. It consults the cache,
// then runs its strategies in order until one finds an image.
type Service struct {
	cache      storage.Cache
	strategies []Strategy
	collapse   bool
	group      singleflight.Group
	log        logrus.FieldLogger
}

// NewService creates a Service. strategies run in the given order.
func NewService(cache storage.Cache, strategies []Strategy, cfg config.ResolverConfig, logger logrus.FieldLogger) *Service {
	return &Service{
		cache:      cache,
		strategies: strategies,
		collapse:   cfg.CollapseDuplicates,
		log:        logger.WithField("component", "resolver"),
	}
}

// Validate checks that rawURL is an absolute http(s) URL.
func Validate(rawURL string) error {
	if rawURL == "" {
		return &domain.ValidationError{Message: "Missing url query parameter"}
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &domain.ValidationError{Message: "Invalid url query parameter"}
	}
	return nil
}

// Resolve returns the preview for rawURL. The only error is a
// *domain.ValidationError; every other failure yields a Preview with a
// nil ImageURL.
func (s *Service) Resolve(ctx context.Context, rawURL string) (*domain.Preview, error) {
	if err := Validate(rawURL); err != nil {
		return nil, err
	}
	log := s.log.WithField("url", rawURL)

	imageURL, err := s.cache.Get(ctx, rawURL)
	if err == nil {
		log.Info("Cache hit")
		return domain.NewPreview(imageURL), nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		log.WithError(err).Warn("Cache read failed")
	}
	log.Info("Cache miss")

	if !s.collapse {
		return domain.NewPreview(s.runStrategies(ctx, rawURL)), nil
	}

	// The shared call must not be cut short by whichever caller started it.
	v, _, shared := s.group.Do(rawURL, func() (interface{}, error) {
		return s.runStrategies(context.WithoutCancel(ctx), rawURL), nil
	})
	if shared {
		log.Debug("Joined in-flight resolution")
	}
	return domain.NewPreview(v.(string)), nil
}

func (s *Service) runStrategies(ctx context.Context, rawURL string) string {
	for _, st := range s.strategies {
		log := s.log.WithFields(logrus.Fields{"url": rawURL, "strategy": st.Name()})

		res := st.Resolve(ctx, rawURL)
		switch {
		case res.Err != nil:
			log.WithError(res.Err).Info("Strategy failed, falling back")
		case res.OK():
			log.WithField("image_url", res.ImageURL).Info("Strategy resolved image")
			s.store(ctx, rawURL, res.ImageURL)
			return res.ImageURL
		default:
			log.Debug("Strategy found nothing")
		}
	}

	s.log.WithField("url", rawURL).Info("No preview image found")
	return ""
}

func (s *Service) store(ctx context.Context, rawURL, imageURL string) {
	if err := s.cache.Put(ctx, rawURL, imageURL); err != nil {
		s.log.WithError(err).WithField("url", rawURL).Warn("Cache write failed")
	}
}
