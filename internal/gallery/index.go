package gallery

import (
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/recognizer"
)

// Index kinds accepted by NewIndex.
const (
	IndexLinear = "linear"
	IndexHNSW   = "hnsw"
)

// Index finds the reference face closest to a query embedding.
type Index interface {
	// Nearest returns the gallery position of the closest reference and its
	// Euclidean distance. ok is false for an empty index.
	Nearest(query []float32) (pos int, distance float64, ok bool)
}

// NewIndex builds an index of the given kind over g.
func NewIndex(kind string, g *Gallery) (Index, error) {
	switch kind {
	case IndexLinear, "":
		return NewLinearIndex(g), nil
	case IndexHNSW:
		return NewHNSWIndex(g), nil
	default:
		return nil, fmt.Errorf("unknown match index %q", kind)
	}
}

// LinearIndex compares the query against every reference. Exact.
type LinearIndex struct {
	embeddings [][]float32
}

// NewLinearIndex creates an exact index over g.
func NewLinearIndex(g *Gallery) *LinearIndex {
	return &LinearIndex{embeddings: g.Embeddings}
}

// Nearest scans all references. Ties keep the earliest reference.
func (l *LinearIndex) Nearest(query []float32) (int, float64, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, d := range recognizer.Distances(l.embeddings, query) {
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return best, bestDist, true
}

// HNSWIndex wraps an in-memory HNSW graph keyed by gallery position.
// Results are approximate for large galleries.
type HNSWIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[int]
	dims  int
}

// NewHNSWIndex builds the graph from g. References whose dimension differs
// from the first one are left out.
func NewHNSWIndex(g *Gallery) *HNSWIndex {
	h := &HNSWIndex{}
	if g.Len() == 0 {
		return h
	}

	graph := hnsw.NewGraph[int]()
	graph.M = constants.HNSWMaxNeighbors
	graph.Ml = 1.0 / float64(constants.HNSWMaxNeighbors)
	graph.Distance = hnsw.EuclideanDistance

	for i, emb := range g.Embeddings {
		if len(emb) == 0 {
			continue
		}
		if h.dims == 0 {
			h.dims = len(emb)
		}
		if len(emb) != h.dims {
			log.Warnf("gallery: skipping %s in hnsw index: embedding has %d dimensions, want %d",
				g.Labels[i], len(emb), h.dims)
			continue
		}
		graph.Add(hnsw.MakeNode(i, emb))
	}

	if graph.Len() > 0 {
		h.graph = graph
	}
	return h
}

// Nearest searches the graph for the single closest reference.
func (h *HNSWIndex) Nearest(query []float32) (int, float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil || len(query) != h.dims {
		return 0, 0, false
	}

	neighbors := h.graph.Search(query, 1)
	if len(neighbors) == 0 {
		return 0, 0, false
	}

	n := neighbors[0]
	return n.Key, recognizer.Distance(query, n.Value), true
}
