// Package store manages transient artifact storage for the converter
// service. Artifacts live in two filesystem partitions, inbound (uploads)
// and outbound (results); the filesystem is the index — no database sits in
// front of it.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smartpdf/smartpdf/internal/config"
	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
)

// Partition is a logical storage bucket.
type Partition string

const (
	// PartitionInbound holds request-supplied uploads.
	PartitionInbound Partition = "inbound"
	// PartitionOutbound holds transformation results.
	PartitionOutbound Partition = "outbound"
)

// Role distinguishes request-supplied artifacts from produced ones.
type Role string

const (
	RoleInput  Role = "input"
	RoleOutput Role = "output"
)

// Artifact is a stored file tracked by identifier and partition.
type Artifact struct {
	ID        string
	Role      Role
	Partition Partition
	Name      string // client-visible filename
	Path      string // physical location on disk
	Size      int64  // measured at write time
	CreatedAt time.Time
}

// Reference returns the download reference for the artifact, which is its
// on-disk filename ({id}_{name}).
func (a Artifact) Reference() string {
	return filepath.Base(a.Path)
}

// Store provides durable-enough (process-lifetime) artifact storage.
type Store struct {
	logger *observability.Logger
	dirs   map[Partition]string
}

// New creates a Store and its partition directories.
func New(logger *observability.Logger, cfg config.StorageConfig) (*Store, error) {
	dirs := map[Partition]string{
		PartitionInbound:  cfg.InboundDir,
		PartitionOutbound: cfg.OutboundDir,
	}

	for p, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.StorageWriteError(fmt.Sprintf("create %s directory", p), err)
		}
	}

	return &Store{logger: logger, dirs: dirs}, nil
}

// Dir returns the directory backing a partition.
func (s *Store) Dir(p Partition) string {
	return s.dirs[p]
}

// Put writes r fully to the location derived from (partition, id, name) and
// returns the resulting Artifact. The file is flushed to disk before Put
// returns; a partially-written file is removed on failure.
func (s *Store) Put(p Partition, id, name string, r io.Reader) (Artifact, error) {
	dir, ok := s.dirs[p]
	if !ok {
		return Artifact{}, domain.StorageWriteError(fmt.Sprintf("unknown partition %q", p), nil)
	}

	name = sanitizeName(name)
	path := filepath.Join(dir, id+"_"+name)

	f, err := os.Create(path)
	if err != nil {
		return Artifact{}, domain.StorageWriteError("create artifact file", err)
	}

	size, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return Artifact{}, domain.StorageWriteError("write artifact", err)
	}

	role := RoleInput
	if p == PartitionOutbound {
		role = RoleOutput
	}

	return Artifact{
		ID:        id,
		Role:      role,
		Partition: p,
		Name:      name,
		Path:      path,
		Size:      size,
		CreatedAt: time.Now(),
	}, nil
}

// SizeOf returns the current size of the artifact's backing file, or 0 if it
// no longer exists. Absence is informational here, not an error.
func (s *Store) SizeOf(a Artifact) int64 {
	info, err := os.Stat(a.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// OpenForRead opens the artifact's backing file for reading.
func (s *Store) OpenForRead(a Artifact) (io.ReadCloser, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NotFound("File not found or expired", err)
		}
		return nil, domain.StorageWriteError("open artifact", err)
	}
	return f, nil
}

// Delete removes the artifact's backing file. Absence is not an error.
func (s *Store) Delete(a Artifact) error {
	err := os.Remove(a.Path)
	if err != nil && !os.IsNotExist(err) {
		return domain.StorageWriteError("delete artifact", err)
	}
	return nil
}

// RejectIfOversized deletes the artifact and fails with PayloadTooLarge when
// its measured size exceeds maxBytes.
func (s *Store) RejectIfOversized(a Artifact, maxBytes int64) error {
	if s.SizeOf(a) <= maxBytes {
		return nil
	}

	if err := s.Delete(a); err != nil {
		s.logger.Warn().Err(err).Str("artifact", a.Reference()).Msg("Failed to delete oversized artifact")
	}

	return domain.PayloadTooLarge(
		fmt.Sprintf("File size exceeds %dMB limit", maxBytes/(1024*1024)), nil)
}

// PurgeOlderThan scans the partition once and deletes every entry whose
// mtime predates now-maxAge. Returns the number of entries removed. The scan
// is not mutually excluded against concurrent writers; an entry racing the
// pass may survive until the next one.
func (s *Store) PurgeOlderThan(p Partition, maxAge time.Duration) (int, error) {
	dir, ok := s.dirs[p]
	if !ok {
		return 0, domain.StorageWriteError(fmt.Sprintf("unknown partition %q", p), nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, domain.StorageWriteError("scan partition", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // removed between scan and stat
		}

		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to purge artifact")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info().
			Str("partition", string(p)).
			Int("removed", removed).
			Dur("max_age", maxAge).
			Msg("Purged expired artifacts")
	}

	return removed, nil
}

// List returns the filenames currently present in a partition.
func (s *Store) List(p Partition) ([]string, error) {
	dir, ok := s.dirs[p]
	if !ok {
		return nil, domain.StorageWriteError(fmt.Sprintf("unknown partition %q", p), nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.StorageWriteError("scan partition", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Lookup resolves a download reference against the outbound partition. An
// exact filename match wins; otherwise the reference is treated as an id
// prefix and matched against {reference}_*. References that attempt path
// traversal are rejected.
func (s *Store) Lookup(reference string) (Artifact, error) {
	if reference == "" || reference != filepath.Base(reference) || strings.Contains(reference, "..") {
		return Artifact{}, domain.ValidationError("invalid download reference", nil)
	}

	dir := s.dirs[PartitionOutbound]

	path := filepath.Join(dir, reference)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return s.artifactFromFile(path, info), nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, reference+"_*"))
	if err == nil && len(matches) > 0 {
		if info, err := os.Stat(matches[0]); err == nil {
			return s.artifactFromFile(matches[0], info), nil
		}
	}

	return Artifact{}, domain.NotFound("File not found or expired", nil)
}

func (s *Store) artifactFromFile(path string, info os.FileInfo) Artifact {
	base := filepath.Base(path)
	id, name, found := strings.Cut(base, "_")
	if !found {
		id, name = "", base
	}
	return Artifact{
		ID:        id,
		Role:      RoleOutput,
		Partition: PartitionOutbound,
		Name:      name,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}
}

// sanitizeName strips any path components from a client-supplied filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
