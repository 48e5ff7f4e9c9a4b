package relgraph

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapdash/pkg/core"
)

// Graph is the relationship store of a dashboard. It is safe for concurrent use.
// Returned slices are copies.
type Graph struct {
	mu      sync.RWMutex
	edges   []core.Relationship
	matcher IdentifierMatcher
	logger  *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithMatcher sets the identifier heuristic used by RefreshSuggestions.
func WithMatcher(m IdentifierMatcher) Option {
	return func(g *Graph) { g.matcher = m }
}

// WithLogger sets the graph logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// NewGraph creates a graph seeded with edges. Duplicate edges keep the first occurrence,
// except that a confirmed duplicate wins over a suggested one.
func NewGraph(edges []core.Relationship, opts ...Option) *Graph {
	g := &Graph{}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	for _, e := range edges {
		g.addLocked(e)
	}
	return g
}

// Add inserts r or updates the existing equal edge. A suggested edge never
// downgrades a confirmed one.
func (g *Graph) Add(r core.Relationship) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addLocked(r)
}

func (g *Graph) addLocked(r core.Relationship) {
	for i, e := range g.edges {
		if !EdgesEqual(e, r) {
			continue
		}
		if e.IsConfirmed() && !r.IsConfirmed() {
			return
		}
		g.edges[i] = r
		return
	}
	g.edges = append(g.edges, r)
}

// Confirm marks the edge equal to r as confirmed, adding it if absent.
func (g *Graph) Confirm(r core.Relationship) {
	r.Type = core.RelationshipConfirmed
	if r.Cardinality == "" {
		r.Cardinality = core.OneToMany
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addLocked(r)
	g.logger.Debug("relationship confirmed", slog.String("edge", r.String()))
}

// Remove deletes the edge equal to r. It reports whether an edge was removed.
func (g *Graph) Remove(r core.Relationship) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.edges)
	g.edges = slices.DeleteFunc(g.edges, func(e core.Relationship) bool { return EdgesEqual(e, r) })
	return len(g.edges) != n
}

// Confirmed returns the confirmed edges.
func (g *Graph) Confirmed() []core.Relationship {
	return g.filter(core.Relationship.IsConfirmed)
}

// Suggested returns the suggested edges.
func (g *Graph) Suggested() []core.Relationship {
	return g.filter(func(r core.Relationship) bool { return !r.IsConfirmed() })
}

// All returns every edge.
func (g *Graph) All() []core.Relationship {
	return g.filter(func(core.Relationship) bool { return true })
}

func (g *Graph) filter(keep func(core.Relationship) bool) []core.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]core.Relationship, 0, len(g.edges))
	for _, e := range g.edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Replace swaps the whole edge set, as when a dashboard is loaded.
func (g *Graph) Replace(edges []core.Relationship) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = nil
	for _, e := range edges {
		g.addLocked(e)
	}
}

// RefreshSuggestions re-runs detection against schemas, replacing all
// suggested edges and keeping confirmed ones. It returns the new suggestions.
func (g *Graph) RefreshSuggestions(schemas []core.TableSchema) []core.Relationship {
	g.mu.Lock()
	defer g.mu.Unlock()

	confirmed := make([]core.Relationship, 0, len(g.edges))
	for _, e := range g.edges {
		if e.IsConfirmed() {
			confirmed = append(confirmed, e)
		}
	}
	suggested := DetectSuggested(schemas, confirmed, DetectOptions{Matcher: g.matcher})
	g.edges = append(confirmed, suggested...)

	g.logger.Debug("relationship suggestions refreshed",
		slog.Int("confirmed", len(confirmed)),
		slog.Int("suggested", len(suggested)))

	return slices.Clone(suggested)
}
