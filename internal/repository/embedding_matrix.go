package repository

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
)

// Matrix is a dense row-major float32 matrix of shape Rows x Dim.
type Matrix struct {
	Rows int
	Dim  int
	Data []float32
}

// NewMatrix stacks equal-length vectors into a Matrix.
func NewMatrix(vectors [][]float32) (*Matrix, error) {
	m := &Matrix{Rows: len(vectors)}
	if len(vectors) == 0 {
		return m, nil
	}
	m.Dim = len(vectors[0])
	m.Data = make([]float32, 0, m.Rows*m.Dim)
	for i, v := range vectors {
		if len(v) != m.Dim {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", i, len(v), m.Dim, domain.ErrDimensionMismatch)
		}
		m.Data = append(m.Data, v...)
	}
	return m, nil
}

// Row returns a view of row i.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

var npyMagic = []byte("\x93NUMPY")

var (
	npyDescrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	npyFortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	npyShapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// WriteTo encodes the matrix as a NumPy .npy v1.0 file (little-endian float32, C order).
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", m.Rows, m.Dim)
	// magic(6) + version(2) + header_len(2) + header, padded to 64 bytes, ending in '\n'
	total := len(npyMagic) + 4 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)

	n, err := w.Write(buf.Bytes())
	written := int64(n)
	if err != nil {
		return written, err
	}
	if err := binary.Write(w, binary.LittleEndian, m.Data); err != nil {
		return written, fmt.Errorf("failed to write matrix data: %w", err)
	}
	return written + int64(4*len(m.Data)), nil
}

// ReadMatrix decodes a .npy file holding a 2-D little-endian float32 C-order array.
func ReadMatrix(r io.Reader) (*Matrix, error) {
	br := bufio.NewReader(r)
	rows, dim, _, err := readNpyHeader(br)
	if err != nil {
		return nil, err
	}
	return readMatrixData(br, rows, dim)
}

// readNpyHeader consumes the preamble and header, returning the shape and the
// number of bytes consumed.
func readNpyHeader(r io.Reader) (rows, dim, consumed int, err error) {
	magic := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, 0, 0, fmt.Errorf("npy preamble: %w", domain.ErrCorruptArtifact)
	}
	if !bytes.Equal(magic[:len(npyMagic)], npyMagic) {
		return 0, 0, 0, fmt.Errorf("npy magic mismatch: %w", domain.ErrCorruptArtifact)
	}
	consumed = len(magic)

	var headerLen int
	switch major := magic[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return 0, 0, 0, fmt.Errorf("npy header length: %w", domain.ErrCorruptArtifact)
		}
		headerLen = int(n)
		consumed += 2
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return 0, 0, 0, fmt.Errorf("npy header length: %w", domain.ErrCorruptArtifact)
		}
		headerLen = int(n)
		consumed += 4
	default:
		return 0, 0, 0, fmt.Errorf("npy version %d unsupported: %w", major, domain.ErrCorruptArtifact)
	}

	header, err := io.ReadAll(io.LimitReader(r, int64(headerLen)))
	if err != nil || len(header) != headerLen {
		return 0, 0, 0, fmt.Errorf("npy header: %w", domain.ErrCorruptArtifact)
	}
	consumed += headerLen

	rows, dim, err = parseNpyHeader(string(header))
	if err != nil {
		return 0, 0, 0, err
	}
	return rows, dim, consumed, nil
}

func readMatrixData(r io.Reader, rows, dim int) (*Matrix, error) {
	n, ok := payloadLen(uint64(rows), uint64(dim))
	if !ok {
		return nil, fmt.Errorf("npy shape (%d, %d) too large: %w", rows, dim, domain.ErrCorruptArtifact)
	}
	data, err := readFloat32s(r, n)
	if err != nil {
		return nil, fmt.Errorf("npy data truncated: %w", domain.ErrCorruptArtifact)
	}
	return &Matrix{Rows: rows, Dim: dim, Data: data}, nil
}

// readChunk bounds each allocation while reading float32 payloads, so a
// header claiming more data than the stream holds fails on EOF instead of
// reserving the claimed size up front.
const readChunk = 1 << 16

// payloadLen returns rows*dim when the float32 payload fits in an int.
func payloadLen(rows, dim uint64) (int, bool) {
	if dim != 0 && rows > math.MaxInt/4/dim {
		return 0, false
	}
	return int(rows * dim), true
}

// payloadMatches reports whether exactly rows*dim float32 values fill avail bytes.
func payloadMatches(rows, dim uint64, avail int64) bool {
	if avail < 0 || avail%4 != 0 {
		return false
	}
	n, ok := payloadLen(rows, dim)
	return ok && int64(n) == avail/4
}

func readFloat32s(r io.Reader, n int) ([]float32, error) {
	out := make([]float32, 0, min(n, readChunk))
	buf := make([]float32, min(n, readChunk))
	for len(out) < n {
		chunk := buf[:min(n-len(out), readChunk)]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func parseNpyHeader(header string) (rows, dim int, err error) {
	descr := npyDescrRe.FindStringSubmatch(header)
	if descr == nil || descr[1] != "<f4" {
		return 0, 0, fmt.Errorf("npy dtype must be <f4: %w", domain.ErrCorruptArtifact)
	}
	fortran := npyFortranRe.FindStringSubmatch(header)
	if fortran == nil || fortran[1] != "False" {
		return 0, 0, fmt.Errorf("npy array must be C order: %w", domain.ErrCorruptArtifact)
	}
	shape := npyShapeRe.FindStringSubmatch(header)
	if shape == nil {
		return 0, 0, fmt.Errorf("npy shape missing: %w", domain.ErrCorruptArtifact)
	}

	var dims []int
	for _, part := range strings.Split(shape[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, convErr := strconv.Atoi(part)
		if convErr != nil || v < 0 {
			return 0, 0, fmt.Errorf("npy shape %q: %w", shape[1], domain.ErrCorruptArtifact)
		}
		dims = append(dims, v)
	}
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("npy array must be 2-D, got shape (%s): %w", shape[1], domain.ErrCorruptArtifact)
	}
	return dims[0], dims[1], nil
}

// SaveMatrix writes the matrix to path atomically.
func SaveMatrix(path string, m *Matrix) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := m.WriteTo(w)
		return err
	})
}

// LoadMatrix reads a .npy matrix from path.
func LoadMatrix(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embeddings: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat embeddings: %w", err)
	}

	br := bufio.NewReader(f)
	rows, dim, headerLen, err := readNpyHeader(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !payloadMatches(uint64(rows), uint64(dim), info.Size()-int64(headerLen)) {
		return nil, fmt.Errorf("%s: size %d does not hold a (%d, %d) matrix: %w", path, info.Size(), rows, dim, domain.ErrCorruptArtifact)
	}

	m, err := readMatrixData(br, rows, dim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
