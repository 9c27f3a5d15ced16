package embeddings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTFIDFBackendShape(t *testing.T) {
	b := NewTFIDFBackend()

	vectors, err := b.Encode(context.Background(), []string{
		"app crashes on startup",
		"battery drains overnight",
		"app crashes when opening camera",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	dim := len(vectors[0])
	require.Positive(t, dim)

	for _, v := range vectors {
		assert.Len(t, v, dim)
	}
}

func TestTFIDFBackendEmptyInput(t *testing.T) {
	b := NewTFIDFBackend()

	vectors, err := b.Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestTFIDFBackendDegenerateCorpus(t *testing.T) {
	b := NewTFIDFBackend()

	vectors, err := b.Encode(context.Background(), []string{"", ""})
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestMockBackendDeterministic(t *testing.T) {
	b := NewMockBackend()

	first, err := b.Encode(context.Background(), []string{"login fails", "login fails", "battery drain"})
	require.NoError(t, err)

	second, err := b.Encode(context.Background(), []string{"login fails", "login fails", "battery drain"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first[0], first[1])
	assert.NotEqual(t, first[0], first[2])
}

func TestMockBackendError(t *testing.T) {
	wantErr := errors.New("boom")
	b := &MockBackend{Err: wantErr}

	_, err := b.Encode(context.Background(), []string{"anything"})
	require.ErrorIs(t, err, wantErr)
}
