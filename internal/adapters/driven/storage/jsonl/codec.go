// Package jsonl reads and writes chunk records as JSON Lines.
//
// Written records use the canonical shape
//
//	{"text": "...", "metadata": {"source": "...", "page_number": 3, "chunk_index": 0}}
//
// Read also accepts chunk files produced by other tools: text may be under
// "text" or "content", metadata under "meta" or "metadata", and the page
// may be given as a top-level "page" field.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/debtscan/internal/core/domain"
)

// maxLineSize bounds a single record.
const maxLineSize = 16 << 20

// ErrMalformedRecord is returned for a line that is not a JSON object.
var ErrMalformedRecord = errors.New("malformed chunk record")

// Write emits one JSON object per chunk, newline terminated.
func Write(w io.Writer, chunks []domain.Chunk) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for i, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encode chunk %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// Read parses chunk records. Blank lines are skipped, as are records
// without text. A malformed line fails the read with its line number.
func Read(r io.Reader) ([]domain.Chunk, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var chunks []domain.Chunk
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		chunk, ok, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			chunks = append(chunks, chunk)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chunks after line %d: %w", line, err)
	}

	return chunks, nil
}

// WriteFile writes chunks to path, creating parent directories.
// The file is replaced atomically.
func WriteFile(path string, chunks []domain.Chunk) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chunk directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".chunks-*.jsonl")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, chunks); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync chunks: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close chunks: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile reads chunks from path. A missing file is a *domain.ArtifactError.
func ReadFile(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.ArtifactError{
			Artifact: "chunks",
			Path:     path,
			Hint:     "Run 'debtscan ingest <pdf>' first",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open chunks: %w", err)
	}
	defer f.Close()

	chunks, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return chunks, nil
}

// decodeRecord maps one record onto a chunk. ok is false when the record
// carries no text.
func decodeRecord(raw []byte) (domain.Chunk, bool, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return domain.Chunk{}, false, fmt.Errorf("%w: expected a JSON object", ErrMalformedRecord)
	}

	text := firstString(rec, "text", "content")
	if text == "" {
		return domain.Chunk{}, false, nil
	}

	meta, err := firstObject(rec, "meta", "metadata")
	if err != nil {
		return domain.Chunk{}, false, err
	}

	var md domain.ChunkMetadata
	md.Source = stringField(meta, "source")
	md.ChunkIndex, _ = intField(meta, "chunk_index")

	if pageRaw, present := meta["page_number"]; present {
		if n, ok := intValue(pageRaw); ok {
			md.PageNumber = domain.PageRef(n)
		}
	} else if n, ok := intField(rec, "page"); ok {
		md.PageNumber = domain.PageRef(n)
	}

	return domain.Chunk{Text: text, Metadata: md}, true, nil
}

// firstString returns the first key holding a non-empty string.
func firstString(rec map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := stringField(rec, k); s != "" {
			return s
		}
	}
	return ""
}

// firstObject returns the first key holding a non-empty JSON object.
// Keys holding other JSON types are treated as empty.
func firstObject(rec map[string]json.RawMessage, keys ...string) (map[string]json.RawMessage, error) {
	for _, k := range keys {
		raw, ok := rec[k]
		if !ok {
			continue
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, k, err)
		}
		if len(obj) > 0 {
			return obj, nil
		}
	}
	return map[string]json.RawMessage{}, nil
}

func stringField(rec map[string]json.RawMessage, key string) string {
	raw, ok := rec[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func intField(rec map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := rec[key]
	if !ok {
		return 0, false
	}
	return intValue(raw)
}

// intValue accepts integral JSON numbers, including 3.0. null is not a number.
func intValue(raw json.RawMessage) (int, bool) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	n := int(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}
