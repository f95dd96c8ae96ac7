package repository

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
)

// NoResult marks a result slot with no matching vector.
const NoResult = -1

// NoResultScore is the score reported in NoResult slots.
const NoResultScore = -math.MaxFloat32

var flatIndexMagic = []byte("FLATIP01")

// FlatIndex is an exact inner-product index over a fixed set of vectors.
// It is immutable once built and safe for concurrent searches.
type FlatIndex struct {
	dim   int
	count int
	data  []float32
}

// NewFlatIndex builds an index from the full embedding matrix. The matrix
// data is copied.
func NewFlatIndex(m *Matrix) *FlatIndex {
	data := make([]float32, len(m.Data))
	copy(data, m.Data)
	return &FlatIndex{dim: m.Dim, count: m.Rows, data: data}
}

// Dim returns the vector dimension.
func (x *FlatIndex) Dim() int { return x.dim }

// Len returns the number of indexed vectors.
func (x *FlatIndex) Len() int { return x.count }

// SearchResult holds the top-k slots for one query vector.
type SearchResult struct {
	Scores  []float32
	Indices []int
}

// Search returns min(k, Len) slots per query: inner-product scores descending,
// ties broken by ascending index. An empty index yields a single NoResult slot.
func (x *FlatIndex) Search(queries [][]float32, k int) ([]SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}
	results := make([]SearchResult, len(queries))
	for qi, q := range queries {
		if len(q) != x.dim {
			return nil, fmt.Errorf("query %d has dimension %d, index has %d: %w", qi, len(q), x.dim, domain.ErrDimensionMismatch)
		}
		results[qi] = x.searchOne(q, k)
	}
	return results, nil
}

func (x *FlatIndex) searchOne(q []float32, k int) SearchResult {
	scores := make([]float32, x.count)
	order := make([]int, x.count)
	for i := 0; i < x.count; i++ {
		row := x.data[i*x.dim : (i+1)*x.dim]
		var dot float32
		for j, v := range row {
			dot += v * q[j]
		}
		scores[i] = dot
		order[i] = i
	}

	sort.Slice(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if sa != sb {
			return sa > sb
		}
		return order[a] < order[b]
	})

	k = min(k, max(x.count, 1))
	res := SearchResult{Scores: make([]float32, k), Indices: make([]int, k)}
	for i := 0; i < k; i++ {
		if i < len(order) {
			res.Indices[i] = order[i]
			res.Scores[i] = scores[order[i]]
			continue
		}
		res.Indices[i] = NoResult
		res.Scores[i] = NoResultScore
	}
	return res
}

// WriteTo encodes the index: magic, uint32 dim, uint64 count, then
// count*dim little-endian float32 values.
func (x *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	var head bytes.Buffer
	head.Write(flatIndexMagic)
	binary.Write(&head, binary.LittleEndian, uint32(x.dim))
	binary.Write(&head, binary.LittleEndian, uint64(x.count))

	n, err := w.Write(head.Bytes())
	if err != nil {
		return int64(n), err
	}
	if err := binary.Write(w, binary.LittleEndian, x.data); err != nil {
		return int64(n), fmt.Errorf("failed to write index data: %w", err)
	}
	return int64(n) + int64(4*len(x.data)), nil
}

// ReadFlatIndex decodes an index written by WriteTo.
func ReadFlatIndex(r io.Reader) (*FlatIndex, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(flatIndexMagic))
	if _, err := io.ReadFull(br, magic); err != nil || !bytes.Equal(magic, flatIndexMagic) {
		return nil, fmt.Errorf("index magic mismatch: %w", domain.ErrCorruptArtifact)
	}

	var dim uint32
	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("index header: %w", domain.ErrCorruptArtifact)
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("index header: %w", domain.ErrCorruptArtifact)
	}

	n, ok := payloadLen(count, uint64(dim))
	if !ok {
		return nil, fmt.Errorf("index shape %dx%d too large: %w", count, dim, domain.ErrCorruptArtifact)
	}
	data, err := readFloat32s(br, n)
	if err != nil {
		return nil, fmt.Errorf("index data truncated: %w", domain.ErrCorruptArtifact)
	}
	return &FlatIndex{dim: int(dim), count: int(count), data: data}, nil
}

// SaveFlatIndex writes the index to path atomically.
func SaveFlatIndex(path string, x *FlatIndex) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := x.WriteTo(w)
		return err
	})
}

// LoadFlatIndex reads an index from path. The file size is checked against
// the header before any vector data is allocated.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat index: %w", err)
	}

	var head [20]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		return nil, fmt.Errorf("%s: index header: %w", path, domain.ErrCorruptArtifact)
	}
	dim := uint64(binary.LittleEndian.Uint32(head[8:12]))
	count := binary.LittleEndian.Uint64(head[12:20])
	if !payloadMatches(count, dim, info.Size()-int64(len(head))) {
		return nil, fmt.Errorf("%s: size %d does not hold %dx%d vectors: %w", path, info.Size(), count, dim, domain.ErrCorruptArtifact)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind index: %w", err)
	}
	x, err := ReadFlatIndex(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return x, nil
}
