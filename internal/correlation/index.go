package correlation

import (
	"fmt"
	"sync"

	"market-fusion/internal/domain"
)

// maxEdges bounds the index so a long-running process with a churning symbol
// universe cannot grow the map without limit.
const maxEdges = 4096

// Index is a mutex-guarded store of the latest correlation edge per directed
// pair. Writers store one direction; Lookup checks both.
type Index struct {
	mu    sync.Mutex
	edges map[string]*domain.CorrelationEdge
	order []string
}

func NewIndex() *Index {
	return &Index{edges: make(map[string]*domain.CorrelationEdge)}
}

func edgeKey(symbolA string, marketA domain.Market, symbolB string, marketB domain.Market) string {
	return fmt.Sprintf("%s:%s|%s:%s", marketA, symbolA, marketB, symbolB)
}

// Put stores or refreshes an edge. When the index is full, the oldest
// inserted key is evicted first.
func (ix *Index) Put(edge *domain.CorrelationEdge) {
	if edge == nil {
		return
	}
	key := edgeKey(edge.SymbolA, edge.MarketA, edge.SymbolB, edge.MarketB)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.edges[key]; !exists {
		if len(ix.order) >= maxEdges {
			oldest := ix.order[0]
			ix.order = ix.order[1:]
			delete(ix.edges, oldest)
		}
		ix.order = append(ix.order, key)
	}
	ix.edges[key] = edge
}

// Lookup returns the stored edge for a pair in either direction.
func (ix *Index) Lookup(symbolA string, marketA domain.Market, symbolB string, marketB domain.Market) (*domain.CorrelationEdge, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if edge, ok := ix.edges[edgeKey(symbolA, marketA, symbolB, marketB)]; ok {
		return edge, true
	}
	if edge, ok := ix.edges[edgeKey(symbolB, marketB, symbolA, marketA)]; ok {
		return edge, true
	}
	return nil, false
}

// Snapshot copies every stored edge, for read endpoints that must not hold
// the lock while serializing.
func (ix *Index) Snapshot() []*domain.CorrelationEdge {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	out := make([]*domain.CorrelationEdge, 0, len(ix.edges))
	for _, key := range ix.order {
		if edge, ok := ix.edges[key]; ok {
			out = append(out, edge)
		}
	}
	return out
}

// Len reports the number of stored edges.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.edges)
}
