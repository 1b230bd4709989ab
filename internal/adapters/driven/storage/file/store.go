// Package file provides a versioned on-disk snapshot store.
//
// Layout:
//
//	<dir>/CURRENT                       name of the current version
//	<dir>/versions/<version>/index.flat vectors
//	<dir>/versions/<version>/meta.json  chunk metadata, position aligned
//	<dir>/versions/<version>/texts.json chunk text, position aligned
//	<dir>/versions/<version>/manifest.json
//
// A version directory is fully written and synced under a temporary name
// before it is renamed into place, and CURRENT is replaced by rename.
// Readers therefore see either the previous or the new snapshot, never a mix.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/debtscan/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/debtscan/internal/core/domain"
	"github.com/custodia-labs/debtscan/internal/core/ports/driven"
	"github.com/custodia-labs/debtscan/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// Artifact file names.
const (
	CurrentFile  = "CURRENT"
	VersionsDir  = "versions"
	IndexFile    = "index.flat"
	MetaFile     = "meta.json"
	TextsFile    = "texts.json"
	ManifestFile = "manifest.json"
)

// buildHint tells users how to produce a missing snapshot.
const buildHint = "Run 'debtscan index build' to create it"

// tmpPrefix marks version directories that are still being written.
const tmpPrefix = ".tmp-"

// Store persists snapshots under a directory.
type Store struct {
	dir string
	mu  sync.Mutex // serialises Publish and Prune
	now func() time.Time
}

// NewStore creates a store rooted at dir. The directory is created on
// first publish.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Publish writes snap as a new version and makes it current.
func (s *Store) Publish(ctx context.Context, snap *driven.Snapshot) (domain.IndexManifest, error) {
	if snap == nil || snap.Index == nil {
		return domain.IndexManifest{}, fmt.Errorf("%w: snapshot has no index", domain.ErrInvalidInput)
	}
	n := snap.Index.Len()
	if len(snap.Texts) != n || len(snap.Metadata) != n {
		return domain.IndexManifest{}, fmt.Errorf("%w: index has %d vectors, %d texts, %d metadata entries",
			domain.ErrInvalidInput, n, len(snap.Texts), len(snap.Metadata))
	}
	wt, ok := snap.Index.(io.WriterTo)
	if !ok {
		return domain.IndexManifest{}, fmt.Errorf("%w: index %T cannot be serialised", domain.ErrUnsupportedType, snap.Index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versionsDir := filepath.Join(s.dir, VersionsDir)
	if err := os.MkdirAll(versionsDir, 0o755); err != nil {
		return domain.IndexManifest{}, fmt.Errorf("create versions directory: %w", err)
	}

	manifest := snap.Manifest
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = s.now().UTC()
	}
	manifest.Version = newVersion(manifest.CreatedAt)
	manifest.ChunkCount = n
	manifest.Dimensions = snap.Index.Dimension()

	tmpDir := filepath.Join(versionsDir, tmpPrefix+uuid.NewString())
	if err := os.Mkdir(tmpDir, 0o755); err != nil {
		return domain.IndexManifest{}, fmt.Errorf("create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(tmpDir)
		}
	}()

	writes := []struct {
		name  string
		write func(io.Writer) error
	}{
		{IndexFile, func(w io.Writer) error { _, err := wt.WriteTo(w); return err }},
		{MetaFile, jsonWriter(snap.Metadata)},
		{TextsFile, jsonWriter(snap.Texts)},
		{ManifestFile, jsonWriter(manifest)},
	}
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return domain.IndexManifest{}, err
		}
		if err := writeSynced(filepath.Join(tmpDir, w.name), w.write); err != nil {
			return domain.IndexManifest{}, fmt.Errorf("write %s: %w", w.name, err)
		}
	}

	finalDir := filepath.Join(versionsDir, manifest.Version)
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return domain.IndexManifest{}, fmt.Errorf("commit version %s: %w", manifest.Version, err)
	}
	committed = true
	syncDir(versionsDir)

	if err := s.setCurrent(manifest.Version); err != nil {
		return domain.IndexManifest{}, err
	}

	logger.Debug("Published snapshot %s (%d chunks)", manifest.Version, n)
	return manifest, nil
}

// Open loads the current snapshot.
func (s *Store) Open(ctx context.Context) (*driven.Snapshot, error) {
	version, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return s.OpenVersion(ctx, version)
}

// OpenVersion loads a specific version.
func (s *Store) OpenVersion(ctx context.Context, version string) (*driven.Snapshot, error) {
	dir := filepath.Join(s.dir, VersionsDir, version)

	var snap driven.Snapshot

	idxPath := filepath.Join(dir, IndexFile)
	f, err := os.Open(idxPath)
	if err != nil {
		return nil, artifactErr("index", idxPath, err)
	}
	idx, err := flat.Read(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", idxPath, err)
	}
	snap.Index = idx

	if err := ctx.Err(); err != nil {
		idx.Close()
		return nil, err
	}

	loads := []struct {
		artifact string
		name     string
		dst      any
	}{
		{"metadata", MetaFile, &snap.Metadata},
		{"texts", TextsFile, &snap.Texts},
		{"manifest", ManifestFile, &snap.Manifest},
	}
	for _, l := range loads {
		if err := readJSON(filepath.Join(dir, l.name), l.artifact, l.dst); err != nil {
			idx.Close()
			return nil, err
		}
	}

	n := idx.Len()
	if len(snap.Texts) != n || len(snap.Metadata) != n {
		logger.Warn("snapshot %s side tables differ from index: %d vectors, %d texts, %d metadata",
			version, n, len(snap.Texts), len(snap.Metadata))
	}

	return &snap, nil
}

// Current returns the current version name.
func (s *Store) Current(_ context.Context) (string, error) {
	path := filepath.Join(s.dir, CurrentFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", artifactErr("snapshot", path, err)
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", &domain.ArtifactError{Artifact: "snapshot", Path: path, Hint: buildHint}
	}
	return version, nil
}

// Versions lists committed versions, oldest first.
func (s *Store) Versions(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, VersionsDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	var versions []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), tmpPrefix) {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// Manifest reads the manifest of one version.
func (s *Store) Manifest(_ context.Context, version string) (domain.IndexManifest, error) {
	var m domain.IndexManifest
	path := filepath.Join(s.dir, VersionsDir, version, ManifestFile)
	err := readJSON(path, "manifest", &m)
	return m, err
}

// Prune deletes all but the newest keep versions and returns what it removed.
// The current version is always kept, as are leftover staging directories
// of builds still in progress.
func (s *Store) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("%w: keep must be at least 1, got %d", domain.ErrInvalidInput, keep)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.Versions(ctx)
	if err != nil {
		return nil, err
	}
	current, _ := s.Current(ctx)

	if len(versions) <= keep {
		return nil, nil
	}

	var removed []string
	for _, v := range versions[:len(versions)-keep] {
		if v == current {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, VersionsDir, v)); err != nil {
			return removed, fmt.Errorf("remove version %s: %w", v, err)
		}
		removed = append(removed, v)
	}
	return removed, nil
}

// setCurrent atomically points CURRENT at version.
func (s *Store) setCurrent(version string) error {
	path := filepath.Join(s.dir, CurrentFile)
	tmp := path + "." + uuid.NewString()[:8] + ".tmp"

	err := writeSynced(tmp, func(w io.Writer) error {
		_, err := io.WriteString(w, version+"\n")
		return err
	})
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", CurrentFile, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("swap %s: %w", CurrentFile, err)
	}
	syncDir(s.dir)
	return nil
}

// newVersion names a version by build time; the suffix keeps names unique
// within the same second.
func newVersion(t time.Time) string {
	return t.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}

func jsonWriter(v any) func(io.Writer) error {
	return func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// writeSynced creates path, writes it and fsyncs before closing.
func writeSynced(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syncDir flushes directory entries. Errors are ignored; not every
// platform supports fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}

func readJSON(path, artifact string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return artifactErr(artifact, path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func artifactErr(artifact, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.ArtifactError{Artifact: artifact, Path: path, Hint: buildHint}
	}
	return fmt.Errorf("read %s: %w", path, err)
}
