// Package tfidf implements a TF-IDF vectorizer with n-gram support,
// document-frequency pruning, smooth inverse document frequency, and L2 row
// normalization. Vocabulary order is deterministic for a given corpus.
package tfidf

import (
	"math"
	"sort"
	"strings"

	coreerrors "github.com/reviewpulse/reviewpulse/internal/core/errors"
	"github.com/reviewpulse/reviewpulse/internal/process/textprep"
)

// Options controls vectorization. Zero values fall back to sensible
// defaults: unigrams only, no frequency pruning, unlimited features.
type Options struct {
	MaxFeatures int
	NgramMin    int
	NgramMax    int
	// MinDF and MaxDF bound the document frequency of kept terms. Values
	// in (0, 1] are interpreted as a fraction of documents; values above 1
	// as absolute counts. Zero disables the bound.
	MinDF          float64
	MaxDF          float64
	RemoveStopword bool
}

// Vectorizer builds TF-IDF vectors over a fixed corpus. Fit and transform
// happen in one pass; a fitted vectorizer exposes its feature names.
type Vectorizer struct {
	opts     Options
	features []string
	idf      []float64
}

func NewVectorizer(opts Options) *Vectorizer {
	if opts.NgramMin < 1 {
		opts.NgramMin = 1
	}

	if opts.NgramMax < opts.NgramMin {
		opts.NgramMax = opts.NgramMin
	}

	return &Vectorizer{opts: opts}
}

// FitTransform learns the vocabulary from docs and returns one L2-normalized
// TF-IDF row per document. It returns ErrEmptyVocabulary when pruning leaves
// no terms.
func (v *Vectorizer) FitTransform(docs []string) ([][]float64, error) {
	n := len(docs)
	if n == 0 {
		return nil, coreerrors.ErrEmptyVocabulary
	}

	tokenized := make([][]string, n)
	for i, doc := range docs {
		tokenized[i] = v.terms(doc)
	}

	df := make(map[string]int)

	for _, terms := range tokenized {
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	minDF, maxDF := v.dfBounds(n)

	kept := make([]string, 0, len(df))

	for term, count := range df {
		if count < minDF || count > maxDF {
			continue
		}

		kept = append(kept, term)
	}

	if len(kept) == 0 {
		return nil, coreerrors.ErrEmptyVocabulary
	}

	// Cap features by corpus-wide frequency, ties broken alphabetically,
	// then restore alphabetical vocabulary order.
	if v.opts.MaxFeatures > 0 && len(kept) > v.opts.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if df[kept[i]] != df[kept[j]] {
				return df[kept[i]] > df[kept[j]]
			}

			return kept[i] < kept[j]
		})
		kept = kept[:v.opts.MaxFeatures]
	}

	sort.Strings(kept)

	v.features = kept

	index := make(map[string]int, len(kept))
	for i, term := range kept {
		index[term] = i
	}

	v.idf = make([]float64, len(kept))
	for i, term := range kept {
		v.idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	rows := make([][]float64, n)

	for i, terms := range tokenized {
		row := make([]float64, len(kept))

		for _, t := range terms {
			if j, ok := index[t]; ok {
				row[j]++
			}
		}

		for j := range row {
			row[j] *= v.idf[j]
		}

		normalize(row)
		rows[i] = row
	}

	return rows, nil
}

// FeatureNames returns the fitted vocabulary in vector column order.
func (v *Vectorizer) FeatureNames() []string {
	return v.features
}

func (v *Vectorizer) terms(doc string) []string {
	tokens := textprep.Tokenize(textprep.Clean(doc))
	if v.opts.RemoveStopword {
		tokens = textprep.RemoveStopwords(tokens)
	}

	terms := make([]string, 0, len(tokens)*(v.opts.NgramMax-v.opts.NgramMin+1))

	for size := v.opts.NgramMin; size <= v.opts.NgramMax; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+size], " "))
		}
	}

	return terms
}

func (v *Vectorizer) dfBounds(n int) (minDF, maxDF int) {
	minDF = 1
	maxDF = n

	if v.opts.MinDF > 0 {
		if v.opts.MinDF <= 1 {
			minDF = int(math.Ceil(v.opts.MinDF * float64(n)))
		} else {
			minDF = int(v.opts.MinDF)
		}
	}

	if v.opts.MaxDF > 0 {
		if v.opts.MaxDF <= 1 {
			maxDF = int(math.Floor(v.opts.MaxDF * float64(n)))
		} else {
			maxDF = int(v.opts.MaxDF)
		}
	}

	if minDF < 1 {
		minDF = 1
	}

	return minDF, maxDF
}

func normalize(row []float64) {
	var sum float64
	for _, x := range row {
		sum += x * x
	}

	if sum == 0 {
		return
	}

	norm := math.Sqrt(sum)
	for i := range row {
		row[i] /= norm
	}
}
