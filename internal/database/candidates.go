package database

import (
	"context"
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// Candidate is an employee suggested for an unknown-face detection, ranked
// by cosine distance between the detection's encoding and a reference image.
type Candidate struct {
	EmployeeID       int64
	ReferenceImageID int64
	Distance         float64
}

// CandidateIndex is an in-memory HNSW index over reference-image face
// encodings. It is built at startup and extended when promotions create new
// reference images.
type CandidateIndex struct {
	mu        sync.RWMutex
	graph     *hnsw.Graph[int64]
	idToImage map[int64]ReferenceImage
}

// NewCandidateIndex creates an empty candidate index.
func NewCandidateIndex() *CandidateIndex {
	return &CandidateIndex{
		idToImage: make(map[int64]ReferenceImage),
	}
}

// BuildCandidateIndex loads all encoded reference images and builds the index.
func BuildCandidateIndex(ctx context.Context, store ReferenceImageStore) (*CandidateIndex, error) {
	images, err := store.ListEncodedReferenceImages(ctx)
	if err != nil {
		return nil, err
	}
	idx := NewCandidateIndex()
	if err := idx.Build(images); err != nil {
		return nil, err
	}
	return idx, nil
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index content with the given reference images.
func (c *CandidateIndex) Build(images []ReferenceImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.idToImage = make(map[int64]ReferenceImage, len(images))
	if len(images) == 0 {
		c.graph = nil
		return nil
	}

	g := newGraph()
	for _, img := range images {
		if len(img.FaceEncoding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(img.ID, img.FaceEncoding))
		c.idToImage[img.ID] = img
	}
	c.graph = g
	return nil
}

// Add inserts a single reference image into the index.
func (c *CandidateIndex) Add(img ReferenceImage) {
	if len(img.FaceEncoding) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph == nil {
		c.graph = newGraph()
	}
	c.graph.Add(hnsw.MakeNode(img.ID, img.FaceEncoding))
	c.idToImage[img.ID] = img
}

// Count returns the number of indexed reference images.
func (c *CandidateIndex) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.idToImage)
}

// Search returns up to k candidates for the given encoding, nearest first.
// At most one candidate per employee is returned.
func (c *CandidateIndex) Search(encoding []float32, k int) ([]Candidate, error) {
	if len(encoding) == 0 {
		return nil, errors.New("empty face encoding")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.graph == nil {
		return nil, nil
	}

	// Over-fetch so that multiple images of the same employee do not crowd
	// out other candidates.
	neighbors := c.graph.Search(encoding, k*hnswMaxNeighbors)

	seen := make(map[int64]struct{}, k)
	candidates := make([]Candidate, 0, k)
	for _, n := range neighbors {
		img, ok := c.idToImage[n.Key]
		if !ok {
			continue
		}
		if _, dup := seen[img.EmployeeID]; dup {
			continue
		}
		seen[img.EmployeeID] = struct{}{}
		candidates = append(candidates, Candidate{
			EmployeeID:       img.EmployeeID,
			ReferenceImageID: img.ID,
			Distance:         float64(hnsw.CosineDistance(encoding, n.Value)),
		})
		if len(candidates) == k {
			break
		}
	}
	return candidates, nil
}
