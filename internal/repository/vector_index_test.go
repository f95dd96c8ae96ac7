package repository

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(v ...float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	n := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

func testMatrix(t *testing.T) *Matrix {
	t.Helper()
	m, err := NewMatrix([][]float32{
		unit(1, 0, 0, 0),
		unit(0, 1, 0, 0),
		unit(1, 1, 0, 0),
		unit(0, 0, 1, 1),
	})
	require.NoError(t, err)
	return m
}

func TestFlatIndex_SelfSimilarity(t *testing.T) {
	m := testMatrix(t)
	idx := NewFlatIndex(m)

	for i := 0; i < m.Rows; i++ {
		res, err := idx.Search([][]float32{m.Row(i)}, 1)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, i, res[0].Indices[0])
		assert.InDelta(t, 1.0, res[0].Scores[0], 1e-5)
	}
}

func TestFlatIndex_OrderingAndTies(t *testing.T) {
	m, err := NewMatrix([][]float32{
		{0, 1},
		{1, 0},
		{0, 1},
		{1, 0},
	})
	require.NoError(t, err)
	idx := NewFlatIndex(m)

	res, err := idx.Search([][]float32{{1, 0}}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 0, 2}, res[0].Indices)
	assert.Equal(t, []float32{1, 1, 0, 0}, res[0].Scores)
}

func TestFlatIndex_TruncatesWhenKExceedsCount(t *testing.T) {
	idx := NewFlatIndex(testMatrix(t))

	res, err := idx.Search([][]float32{unit(1, 0, 0, 0)}, 6)
	require.NoError(t, err)
	require.Len(t, res[0].Indices, 4)
	assert.NotContains(t, res[0].Indices, NoResult)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, res[0].Indices)
}

func TestFlatIndex_HugeK(t *testing.T) {
	idx := NewFlatIndex(testMatrix(t))

	for _, k := range []int{1 << 40, math.MaxInt} {
		res, err := idx.Search([][]float32{unit(1, 0, 0, 0)}, k)
		require.NoError(t, err)
		assert.Len(t, res[0].Indices, 4)
		assert.Len(t, res[0].Scores, 4)
	}
}

func TestFlatIndex_EmptyIndex(t *testing.T) {
	idx := NewFlatIndex(&Matrix{Dim: 3})

	res, err := idx.Search([][]float32{{1, 0, 0}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{NoResult}, res[0].Indices)
	assert.Equal(t, []float32{NoResultScore}, res[0].Scores)
}

func TestFlatIndex_Errors(t *testing.T) {
	idx := NewFlatIndex(testMatrix(t))

	_, err := idx.Search([][]float32{{1, 0}}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = idx.Search([][]float32{unit(1, 0, 0, 0)}, 0)
	assert.Error(t, err)
}

func TestFlatIndex_SaveLoadRoundTrip(t *testing.T) {
	idx := NewFlatIndex(testMatrix(t))
	path := filepath.Join(t.TempDir(), "index_es.bin")
	require.NoError(t, SaveFlatIndex(path, idx))

	loaded, err := LoadFlatIndex(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Dim(), loaded.Dim())
	assert.Equal(t, idx.Len(), loaded.Len())

	query := [][]float32{unit(0.3, 0.9, 0.1, 0.2)}
	before, err := idx.Search(query, 3)
	require.NoError(t, err)
	after, err := loaded.Search(query, 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoadFlatIndex_Corrupt(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.bin")
	require.NoError(t, writeBytes(bad, []byte("NOTANINDEX0000000000")))
	_, err := LoadFlatIndex(bad)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)

	path := filepath.Join(dir, "index.bin")
	require.NoError(t, SaveFlatIndex(path, NewFlatIndex(testMatrix(t))))
	data, err := readBytes(path)
	require.NoError(t, err)
	require.NoError(t, writeBytes(path, data[:len(data)-4]))
	_, err = LoadFlatIndex(path)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)

	// 4*dim*count wraps to zero in 64 bits
	wrapped := filepath.Join(dir, "wrapped.bin")
	head := make([]byte, 20)
	copy(head, "FLATIP01")
	binary.LittleEndian.PutUint32(head[8:12], 1<<31)
	binary.LittleEndian.PutUint64(head[12:20], 1<<31)
	require.NoError(t, writeBytes(wrapped, head))
	_, err = LoadFlatIndex(wrapped)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)

	_, err = ReadFlatIndex(bytes.NewReader(head))
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)

	binary.LittleEndian.PutUint32(head[8:12], 1000)
	binary.LittleEndian.PutUint64(head[12:20], 1000000)
	_, err = ReadFlatIndex(bytes.NewReader(head))
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
}
