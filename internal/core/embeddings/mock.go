package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const mockDimensions = 32

// MockBackend generates deterministic vectors from token hashes. Identical
// texts always map to identical vectors, so similarity structure in tests
// is fully controlled by the input strings.
type MockBackend struct {
	// Err, when set, is returned by every Encode call.
	Err error
}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (b *MockBackend) Name() string {
	return BackendMock
}

func (b *MockBackend) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if b.Err != nil {
		return nil, b.Err
	}

	vectors := make([][]float32, len(texts))

	for i, text := range texts {
		vec := make([]float32, mockDimensions)

		for _, tok := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[h.Sum32()%mockDimensions]++
		}

		normalizeVec(vec)
		vectors[i] = vec
	}

	return vectors, nil
}

func normalizeVec(vec []float32) {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}

	if sum == 0 {
		return
	}

	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
