package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/swupdate-httpd/internal/domain/update"
	"github.com/oshokin/swupdate-httpd/internal/logger"
	"github.com/oshokin/swupdate-httpd/internal/metrics"
	"github.com/oshokin/swupdate-httpd/internal/repository/catalog"
)

// Service resolves update requests. It is safe for concurrent use: its fields
// are set once by New and never mutated.
type Service struct {
	// reader lists the catalog on every request.
	reader catalog.Reader
	// layout decodes catalog filenames.
	layout update.Layout
	// metrics records outcomes; nil disables recording.
	metrics *metrics.Metrics
}

// New creates a resolver over the provided catalog reader and layout.
func New(reader catalog.Reader, layout update.Layout, m *metrics.Metrics) *Service {
	return &Service{
		reader:  reader,
		layout:  layout,
		metrics: m,
	}
}

// Resolve lists the catalog and decides whether req has an update.
// Errors wrap catalog.ErrUnreachable or update.ErrAmbiguousCatalog.
func (s *Service) Resolve(ctx context.Context, req update.Request) (update.Resolution, error) {
	started := time.Now()

	names, err := s.reader.List(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to list catalog", "error", err)
		s.observe(metrics.OutcomeCatalogError, started)

		return update.Resolution{}, fmt.Errorf("list catalog: %w", err)
	}

	resolution, skipped, err := update.Resolve(names, s.layout, req)

	for _, name := range skipped {
		logger.DebugKV(ctx, "Skipping malformed catalog entry", "name", name)
	}

	if s.metrics != nil {
		s.metrics.AddSkipped(len(skipped))
	}

	if err != nil {
		if errors.Is(err, update.ErrAmbiguousCatalog) {
			logger.ErrorKV(ctx, "Ambiguous catalog", "error", err)
			s.observe(metrics.OutcomeAmbiguous, started)
		}

		return update.Resolution{}, err
	}

	s.observe(resolution.Outcome.String(), started)

	logger.InfoKV(ctx, "Update resolved",
		"image", req.Image,
		"device", req.Device,
		"current_version", req.CurrentVersion,
		"outcome", resolution.Outcome.String(),
		"artifact", resolution.ArtifactName,
	)

	return resolution, nil
}

// Ready reports whether the catalog can currently be listed.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.reader.List(ctx)

	return err
}

// observe records a resolution outcome when metrics are enabled.
func (s *Service) observe(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}

	s.metrics.ObserveResolution(outcome, started)
}
