// Package embeddings turns review texts into vectors for clustering.
// Two backends exist: an OpenAI API client for semantic vectors and a local
// TF-IDF fallback that needs no network access.
package embeddings

import "context"

// Backend names.
const (
	BackendOpenAI = "openai"
	BackendTFIDF  = "tfidf"
	BackendMock   = "mock"
)

// Backend encodes a batch of texts into one vector per text. All vectors in
// one batch have identical dimensionality. Encode is called once per job
// with the full deduplicated corpus.
type Backend interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}
