package connection

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/debug"
)

// Info is the public view of a connection. Credentials are never included.
type Info struct {
	ID     string `json:"id"`
	Driver Driver `json:"driver"`
	Name   string `json:"name"`
}

type entry struct {
	info Info
	cfg  Config
}

// Registry holds connections for the lifetime of the process.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	log     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		log:     debug.With("component", "connection"),
	}
}

// Create validates payload and registers a new connection.
func (r *Registry) Create(ctx context.Context, payload any) (*Info, error) {
	cfg, err := ParseConfig(payload)
	if err != nil {
		return nil, err
	}
	return r.Add(ctx, *cfg)
}

// Add registers an already decoded config.
func (r *Registry) Add(ctx context.Context, cfg Config) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.ConnString(); err != nil {
		return nil, apierr.NewValidation("", "%v", err)
	}

	e := &entry{
		info: Info{ID: uuid.NewString(), Driver: cfg.Driver, Name: cfg.Name},
		cfg:  cfg,
	}

	r.mu.Lock()
	r.entries[e.info.ID] = e
	r.mu.Unlock()

	r.log.Info("connection created", "id", e.info.ID, "driver", cfg.Driver, "name", cfg.Name)
	info := e.info
	return &info, nil
}

// List returns every connection sorted by name, then id.
func (r *Registry) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns the stored config of id, or NOT_FOUND.
func (r *Registry) Get(ctx context.Context, id string) (Config, error) {
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}

	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return Config{}, apierr.NewNotFound("connection", id)
	}
	return e.cfg, nil
}

// Delete removes id, or returns NOT_FOUND.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if !ok {
		return apierr.NewNotFound("connection", id)
	}
	r.log.Info("connection deleted", "id", id)
	return nil
}
