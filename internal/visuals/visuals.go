package visuals

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Kind distinguishes still images from motion clips.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Candidate is one normalized stock-media search hit. Ephemeral: it lives
// only for the duration of a single pipeline run.
type Candidate struct {
	Provider   string
	ProviderID string
	URL        string
	ThumbURL   string
	Kind       Kind
	Width      int
	Height     int
	Duration   float64
	Tags       []string
}

// Query describes one locator search.
type Query struct {
	Term        string
	Kind        Kind
	Orientation string
	MaxResults  int
}

// Provider is a single stock-media backend.
type Provider interface {
	Name() string
	// Specialty reports the media kind the provider is strongest at.
	Specialty() Kind
	Search(ctx context.Context, query Query) ([]Candidate, error)
}

// Locator fans a query out to every configured provider concurrently and
// concatenates normalized results in provider-priority order.
type Locator struct {
	providers []Provider
}

func NewLocator(providers ...Provider) *Locator {
	return &Locator{providers: providers}
}

// Search queries all providers. A provider failure is logged and excluded;
// when every provider fails the result is an empty list, never an error —
// the pipeline proceeds with no inserted visual assets rather than aborting.
func (l *Locator) Search(ctx context.Context, query Query) []Candidate {
	if len(l.providers) == 0 || query.Term == "" {
		return nil
	}
	if query.MaxResults <= 0 {
		query.MaxResults = 5
	}

	ordered := l.prioritized(query.Kind)

	results := make([][]Candidate, len(ordered))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range ordered {
		g.Go(func() error {
			candidates, err := provider.Search(gctx, query)
			if err != nil {
				slog.Warn("stock media provider failed", "provider", provider.Name(), "error", err)
				return nil
			}
			mu.Lock()
			results[i] = candidates
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var merged []Candidate
	for _, candidates := range results {
		merged = append(merged, candidates...)
	}
	if len(merged) > query.MaxResults {
		merged = merged[:query.MaxResults]
	}
	return merged
}

// prioritized orders providers so that specialists for the requested kind
// come first, otherwise preserving configuration order.
func (l *Locator) prioritized(kind Kind) []Provider {
	ordered := make([]Provider, len(l.providers))
	copy(ordered, l.providers)
	if kind == "" {
		return ordered
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Specialty() == kind && ordered[j].Specialty() != kind
	})
	return ordered
}
