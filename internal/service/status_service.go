package service

import (
	"context"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
)

// MinimumVersions is the oldest engine release each engine name is known to work with.
var MinimumVersions = map[string]string{
	"duckdb": "1.0.0",
	// pragma_table_info as a table-valued function
	"sqlite": "3.16.0",
}

// Status reports the engine state.
type Status struct {
	EngineName string `json:"engineName"`
	Version    string `json:"version"`
	Busy       bool   `json:"busy"`
}

// StatusService reports engine health.
type StatusService struct {
	engine Engine
}

// NewStatusService creates a new status service.
func NewStatusService(engine Engine) *StatusService {
	return &StatusService{engine: engine}
}

// GetStatus returns the engine name, version and whether a request is in flight. Busy is
// sampled before the version query joins the queue.
func (s *StatusService) GetStatus(ctx context.Context) (*Status, error) {
	busy := s.engine.Busy()
	v, err := s.engine.Version(ctx)
	if err != nil {
		return nil, normalize(err)
	}
	return &Status{EngineName: s.engine.Name(), Version: v, Busy: busy}, nil
}

// CheckVersion fails with UNSUPPORTED when the engine is older than its minimum release.
// Engines without a known minimum pass.
func (s *StatusService) CheckVersion(ctx context.Context) error {
	minimum, ok := MinimumVersions[s.engine.Name()]
	if !ok {
		return nil
	}

	raw, err := s.engine.Version(ctx)
	if err != nil {
		return normalize(err)
	}
	current, err := version.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return apierr.Wrap(apierr.Internal, err, "invalid engine version %q", raw)
	}
	required := version.Must(version.NewVersion(minimum))

	if current.LessThan(required) {
		return apierr.NewUnsupported("engine-version", "%s %s is older than the minimum supported %s",
			s.engine.Name(), current, required).
			WithDetail("version", current.String()).
			WithDetail("minimum", required.String())
	}
	return nil
}
