package flat

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// File layout, little endian:
//
//	magic   [4]byte "DSFL"
//	version uint32
//	dim     uint32
//	count   uint64
//	data    count*dim float32
var fileMagic = [4]byte{'D', 'S', 'F', 'L'}

const fileVersion = 1

// ErrCorruptIndex is returned when a serialised index cannot be decoded.
var ErrCorruptIndex = errors.New("corrupt flat index")

type header struct {
	Magic     [4]byte
	Version   uint32
	Dimension uint32
	Count     uint64
}

// WriteTo serialises the index. It implements io.WriterTo.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	h := header{
		Magic:     fileMagic,
		Version:   fileVersion,
		Dimension: uint32(idx.dimension),
		Count:     uint64(len(idx.data) / idx.dimension),
	}
	if err := binary.Write(cw, binary.LittleEndian, h); err != nil {
		return cw.n, fmt.Errorf("write header: %w", err)
	}

	buf := make([]byte, 4)
	for _, f := range idx.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
		if _, err := cw.Write(buf); err != nil {
			return cw.n, fmt.Errorf("write vectors: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("flush: %w", err)
	}
	return cw.n, nil
}

// Read decodes an index written by WriteTo.
func Read(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)

	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrCorruptIndex, err)
	}
	if h.Magic != fileMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptIndex, h.Magic[:])
	}
	if h.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, h.Version)
	}
	if h.Dimension == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorruptIndex)
	}

	idx, err := New(int(h.Dimension))
	if err != nil {
		return nil, err
	}

	total := h.Count * uint64(h.Dimension)
	idx.data = make([]float32, 0, min(total, 1<<24))
	buf := make([]byte, 4)
	for i := uint64(0); i < total; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: vector data truncated at value %d of %d", ErrCorruptIndex, i, total)
		}
		idx.data = append(idx.data, math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}

	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after %d vectors", ErrCorruptIndex, h.Count)
	}

	return idx, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
