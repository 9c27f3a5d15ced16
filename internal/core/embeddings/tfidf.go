package embeddings

import (
	"context"
	"errors"

	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
	"github.com/reviewpulse/reviewpulse/internal/process/tfidf"
)

const (
	tfidfMaxFeaturesCap    = 1000
	tfidfMaxFeaturesPerDoc = 100
)

// TFIDFBackend produces local TF-IDF vectors. It is the fallback when no
// embedding API is configured or the API call fails mid-job; vectors are
// fit per batch, so they are only comparable within one Encode call.
type TFIDFBackend struct{}

func NewTFIDFBackend() *TFIDFBackend {
	return &TFIDFBackend{}
}

func (b *TFIDFBackend) Name() string {
	return BackendTFIDF
}

func (b *TFIDFBackend) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	maxFeatures := tfidfMaxFeaturesPerDoc * len(texts)
	if maxFeatures > tfidfMaxFeaturesCap {
		maxFeatures = tfidfMaxFeaturesCap
	}

	v := tfidf.NewVectorizer(tfidf.Options{
		MaxFeatures:    maxFeatures,
		NgramMin:       1,
		NgramMax:       2,
		MaxDF:          0.9,
		RemoveStopword: true,
	})

	rows, err := v.FitTransform(texts)
	if err != nil {
		// A corpus with no usable terms yields an empty matrix rather
		// than an error; callers treat it as a degraded assignment.
		if errors.Is(err, coreerrors.ErrEmptyVocabulary) {
			return [][]float32{}, nil
		}

		return nil, err
	}

	vectors := make([][]float32, len(rows))

	for i, row := range rows {
		vec := make([]float32, len(row))
		for j, x := range row {
			vec[j] = float32(x)
		}

		vectors[i] = vec
	}

	return vectors, nil
}
