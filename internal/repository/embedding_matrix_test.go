package repository

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix_NpyRoundTrip(t *testing.T) {
	m, err := NewMatrix([][]float32{
		{0.1, -0.2, 0.3},
		{1.5, 0, -7.25},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "embeddings_es.npy")
	require.NoError(t, SaveMatrix(path, m))

	loaded, err := LoadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestMatrix_NpyHeaderLayout(t *testing.T) {
	m, err := NewMatrix([][]float32{{1, 2}})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	data := buf.Bytes()
	assert.Equal(t, []byte("\x93NUMPY\x01\x00"), data[:8])
	headerLen := int(data[8]) | int(data[9])<<8
	assert.Zero(t, (10+headerLen)%64)
	assert.Equal(t, byte('\n'), data[10+headerLen-1])
	assert.Contains(t, string(data[10:10+headerLen]), "'shape': (1, 2)")
	assert.Len(t, data, 10+headerLen+8)
}

func TestMatrix_EmptyRoundTrip(t *testing.T) {
	m := &Matrix{Rows: 0, Dim: 4}
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)

	loaded, err := ReadMatrix(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Rows)
	assert.Equal(t, 4, loaded.Dim)
}

func TestNewMatrix_RaggedRows(t *testing.T) {
	_, err := NewMatrix([][]float32{{1, 2}, {3}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestReadMatrix_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"wrong dtype", "{'descr': '<f8', 'fortran_order': False, 'shape': (1, 2), }"},
		{"fortran order", "{'descr': '<f4', 'fortran_order': True, 'shape': (1, 2), }"},
		{"one dimension", "{'descr': '<f4', 'fortran_order': False, 'shape': (2,), }"},
		{"shape overflows", "{'descr': '<f4', 'fortran_order': False, 'shape': (4000000000, 4000000000), }"},
		{"shape exceeds data", "{'descr': '<f4', 'fortran_order': False, 'shape': (1000000, 1000), }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteString("\x93NUMPY\x01\x00")
			h := tt.header + "\n"
			buf.WriteByte(byte(len(h)))
			buf.WriteByte(byte(len(h) >> 8))
			buf.WriteString(h)
			buf.Write(make([]byte, 8))

			_, err := ReadMatrix(&buf)
			assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
		})
	}

	_, err := ReadMatrix(bytes.NewReader([]byte("garbage")))
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
}

func TestLoadMatrix_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatrix([][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	good := buf.Bytes()

	truncated := filepath.Join(dir, "truncated.npy")
	require.NoError(t, writeBytes(truncated, good[:len(good)-4]))
	_, err = LoadMatrix(truncated)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)

	trailing := filepath.Join(dir, "trailing.npy")
	require.NoError(t, writeBytes(trailing, append(append([]byte{}, good...), 0, 0, 0, 0)))
	_, err = LoadMatrix(trailing)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)

	huge := &Matrix{Rows: 4000000000, Dim: 4000000000}
	buf.Reset()
	_, err = huge.WriteTo(&buf)
	require.NoError(t, err)
	path := filepath.Join(dir, "huge.npy")
	require.NoError(t, writeBytes(path, buf.Bytes()))
	_, err = LoadMatrix(path)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
}
