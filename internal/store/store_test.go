package store

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpdf/smartpdf/internal/config"
	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(observability.Nop(), config.StorageConfig{
		InboundDir:  filepath.Join(dir, "uploads"),
		OutboundDir: filepath.Join(dir, "outputs"),
	})
	require.NoError(t, err)
	return s
}

func TestNew_CreatesPartitionDirs(t *testing.T) {
	s := newTestStore(t)

	for _, p := range []Partition{PartitionInbound, PartitionOutbound} {
		info, err := os.Stat(s.Dir(p))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPut_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	content := "hello artifact"

	a, err := s.Put(PartitionInbound, NewID(), "report.pdf", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, RoleInput, a.Role)
	assert.Equal(t, int64(len(content)), a.Size)
	assert.Equal(t, int64(len(content)), s.SizeOf(a))

	rc, err := s.OpenForRead(a)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestPut_KeyIncludesID(t *testing.T) {
	s := newTestStore(t)

	a1, err := s.Put(PartitionInbound, "aaaa1111", "same.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	a2, err := s.Put(PartitionInbound, "bbbb2222", "same.pdf", strings.NewReader("two"))
	require.NoError(t, err)

	// Identical logical names never collide because the id is in the key.
	assert.NotEqual(t, a1.Path, a2.Path)
	assert.Equal(t, "aaaa1111_same.pdf", a1.Reference())
}

func TestPut_SanitizesTraversalNames(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Put(PartitionInbound, "cafe0123", "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(a.Path), s.Dir(PartitionInbound))
	assert.Equal(t, "passwd", a.Name)
}

func TestSizeOf_MissingFileIsZero(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Put(PartitionOutbound, NewID(), "gone.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(a))

	assert.Equal(t, int64(0), s.SizeOf(a))
}

func TestOpenForRead_MissingIsNotFound(t *testing.T) {
	s := newTestStore(t)

	a := Artifact{Path: filepath.Join(s.Dir(PartitionOutbound), "deadbeef_x.pdf")}
	_, err := s.OpenForRead(a)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.TypeOf(err))
}

func TestDelete_Idempotent(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Put(PartitionInbound, NewID(), "x.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	assert.NoError(t, s.Delete(a))
	assert.NoError(t, s.Delete(a))
}

func TestRejectIfOversized(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Put(PartitionInbound, NewID(), "big.pdf", strings.NewReader(strings.Repeat("a", 100)))
	require.NoError(t, err)

	err = s.RejectIfOversized(a, 10)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeTooLarge, domain.TypeOf(err))

	// The oversized artifact is deleted, leaving nothing behind.
	names, err := s.List(PartitionInbound)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRejectIfOversized_UnderCapKeepsFile(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Put(PartitionInbound, NewID(), "ok.pdf", strings.NewReader("small"))
	require.NoError(t, err)

	assert.NoError(t, s.RejectIfOversized(a, 1024))
	assert.Equal(t, int64(5), s.SizeOf(a))
}

func TestPurgeOlderThan_ThresholdZeroRemovesEverything(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.Put(PartitionInbound, NewID(), "a.pdf", strings.NewReader("x"))
		require.NoError(t, err)
	}
	out, err := s.Put(PartitionOutbound, NewID(), "b.pdf", strings.NewReader("y"))
	require.NoError(t, err)

	// Backdate mtimes so a zero-age purge is unambiguous.
	for _, p := range []Partition{PartitionInbound, PartitionOutbound} {
		names, err := s.List(p)
		require.NoError(t, err)
		for _, n := range names {
			old := time.Now().Add(-time.Minute)
			require.NoError(t, os.Chtimes(filepath.Join(s.Dir(p), n), old, old))
		}
	}

	n, err := s.PurgeOlderThan(PartitionInbound, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.PurgeOlderThan(PartitionOutbound, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Lookup(out.Reference())
	assert.Equal(t, domain.ErrorTypeNotFound, domain.TypeOf(err))
}

func TestPurgeOlderThan_KeepsFreshEntries(t *testing.T) {
	s := newTestStore(t)

	fresh, err := s.Put(PartitionOutbound, NewID(), "fresh.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	stalePath := filepath.Join(s.Dir(PartitionOutbound), "00000000_stale.pdf")
	require.NoError(t, os.WriteFile(stalePath, []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	n, err := s.PurgeOlderThan(PartitionOutbound, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Positive(t, s.SizeOf(fresh))
}

func TestLookup_ExactAndPrefix(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Put(PartitionOutbound, "feed1234", "merged.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)

	exact, err := s.Lookup("feed1234_merged.pdf")
	require.NoError(t, err)
	assert.Equal(t, a.Path, exact.Path)
	assert.Equal(t, "feed1234", exact.ID)
	assert.Equal(t, "merged.pdf", exact.Name)

	byID, err := s.Lookup("feed1234")
	require.NoError(t, err)
	assert.Equal(t, a.Path, byID.Path)
}

func TestLookup_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	for _, ref := range []string{"", "../secret", "a/b.pdf", ".."} {
		_, err := s.Lookup(ref)
		require.Error(t, err, "reference %q", ref)
		assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))
	}
}

func TestNewID_ShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		assert.Len(t, id, 8)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSweeper_SweepOnce(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Put(PartitionInbound, NewID(), "in.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = s.Put(PartitionOutbound, NewID(), "out.pdf", strings.NewReader("y"))
	require.NoError(t, err)

	for _, p := range []Partition{PartitionInbound, PartitionOutbound} {
		names, err := s.List(p)
		require.NoError(t, err)
		for _, n := range names {
			old := time.Now().Add(-time.Minute)
			require.NoError(t, os.Chtimes(filepath.Join(s.Dir(p), n), old, old))
		}
	}

	sw := NewSweeper(s, time.Hour, time.Minute)
	assert.Equal(t, 2, sw.SweepOnce(0))

	for _, p := range []Partition{PartitionInbound, PartitionOutbound} {
		names, err := s.List(p)
		require.NoError(t, err)
		assert.Empty(t, names)
	}
}
