package pipeline

import (
	"context"

	"github.com/studyvault/studyvault-backend/internal/data/docstore"
	"github.com/studyvault/studyvault-backend/internal/data/graph"
	"github.com/studyvault/studyvault-backend/internal/hierarchy"
)

// GraphMirror adapts the graph syncer to callers that only hold map
// keys: it resolves display names from the document store first. Safe
// to use when no graph store is configured; calls become no-ops.
type GraphMirror struct {
	graph *graph.Syncer
	store *docstore.Store
}

func NewGraphMirror(g *graph.Syncer, store *docstore.Store) *GraphMirror {
	return &GraphMirror{graph: g, store: store}
}

func (m *GraphMirror) Enabled() bool {
	return m != nil && m.graph.Enabled()
}

func (m *GraphMirror) SyncByIDs(ctx context.Context, ids hierarchy.CanonicalIDs, maps hierarchy.Maps, category string) error {
	if !m.Enabled() {
		return nil
	}
	chain := m.store.ResolveChain(ctx, maps, category)
	_, err := m.graph.SyncChain(ctx, ids, chain)
	return err
}

// Sync exposes the full result for the admin sync endpoint.
func (m *GraphMirror) Sync(ctx context.Context, ids hierarchy.CanonicalIDs, maps hierarchy.Maps, category string) (*graph.Result, error) {
	if !m.Enabled() {
		return &graph.Result{}, nil
	}
	chain := m.store.ResolveChain(ctx, maps, category)
	return m.graph.SyncChain(ctx, ids, chain)
}
