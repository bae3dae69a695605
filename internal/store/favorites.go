package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/observability"
	"github.com/i474232898/openwx/internal/weather"
)

// DefaultFavoritesKey is the storage key the list is kept under.
const DefaultFavoritesKey = "weatherapp.favs"

// Backend persists a list of strings under a single named key, overwritten wholesale.
type Backend interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, labels []string) error
}

// PersistError reports that storage could not be read or written. It is a warning:
// the in-memory list already reflects the change and stays usable.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("favorites %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Favorites is an ordered set of location labels in insertion order.
type Favorites struct {
	mu      sync.Mutex
	labels  []string
	backend Backend
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewFavorites loads the persisted list. A load failure yields an empty, usable store
// together with a *PersistError.
func NewFavorites(ctx context.Context, backend Backend, metrics *observability.Metrics, log *logger.Logger) (*Favorites, error) {
	f := &Favorites{
		backend: backend,
		metrics: metrics,
		log:     log.Named("favorites"),
	}

	stored, err := backend.Load(ctx)
	if err != nil {
		f.metrics.FavoritesPersistErrors.Inc()
		f.log.Warnw("favorites could not be loaded; starting empty", "err", err)
		f.metrics.FavoritesCount.Set(0)
		return f, &PersistError{Op: "load", Err: err}
	}

	f.labels = sanitize(stored)
	f.metrics.FavoritesCount.Set(float64(len(f.labels)))
	return f, nil
}

// sanitize drops blank labels and duplicates, keeping first occurrences in order.
func sanitize(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Add appends label unless it is already present. It reports whether the list changed.
func (f *Favorites) Add(ctx context.Context, label string) (bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return false, &weather.InvalidInputError{Field: "label", Message: "No city to add."}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, l := range f.labels {
		if l == label {
			return false, nil
		}
	}
	f.labels = append(f.labels, label)
	return true, f.persistLocked(ctx)
}

// Remove deletes every entry equal to label and reports how many were removed.
func (f *Favorites) Remove(ctx context.Context, label string) (int, error) {
	label = strings.TrimSpace(label)

	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.labels[:0:0]
	for _, l := range f.labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	removed := len(f.labels) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	f.labels = kept
	return removed, f.persistLocked(ctx)
}

// List returns a copy of the labels in insertion order.
func (f *Favorites) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.labels))
	copy(out, f.labels)
	return out
}

// First returns the earliest saved label.
func (f *Favorites) First() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.labels) == 0 {
		return "", false
	}
	return f.labels[0], true
}

func (f *Favorites) persistLocked(ctx context.Context) error {
	f.metrics.FavoritesCount.Set(float64(len(f.labels)))

	snapshot := make([]string, len(f.labels))
	copy(snapshot, f.labels)
	if err := f.backend.Save(ctx, snapshot); err != nil {
		f.metrics.FavoritesPersistErrors.Inc()
		f.log.Warnw("favorites could not be saved; keeping in-memory change", "err", err)
		return &PersistError{Op: "save", Err: err}
	}
	return nil
}
