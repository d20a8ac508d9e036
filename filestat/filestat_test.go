package filestat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatSmallFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	s := NewOSSupplier()
	stats, err := s.Stat(path)
	require.NoError(t, err)

	assert.EqualValues(t, 11, stats.Size)
	assert.NotEmpty(t, stats.ContentHash)
}

func TestStatIdenticalContentSameHash(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(pathA, []byte("duplicate content"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("duplicate content"), 0o644))

	s := NewOSSupplier()
	statsA, err := s.Stat(pathA)
	require.NoError(t, err)
	statsB, err := s.Stat(pathB)
	require.NoError(t, err)

	assert.Equal(t, statsA.ContentHash, statsB.ContentHash)
}

func TestStatDifferentContentDifferentHash(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(pathA, []byte("content one"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("content two"), 0o644))

	s := NewOSSupplier()
	statsA, err := s.Stat(pathA)
	require.NoError(t, err)
	statsB, err := s.Stat(pathB)
	require.NoError(t, err)

	assert.NotEqual(t, statsA.ContentHash, statsB.ContentHash)
}

func TestStatLargeFileHashesHeadAndTail(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.bin")
	pathB := filepath.Join(dir, "b.bin")

	big := make([]byte, maxChunkSize+1024)
	require.NoError(t, os.WriteFile(pathA, big, 0o644))

	bigDiffMiddle := make([]byte, maxChunkSize+1024)
	copy(bigDiffMiddle, big)
	bigDiffMiddle[maxChunkSize/2+500] = 0xFF // perturb a byte outside head/tail windows
	require.NoError(t, os.WriteFile(pathB, bigDiffMiddle, 0o644))

	s := NewOSSupplier()
	statsA, err := s.Stat(pathA)
	require.NoError(t, err)
	statsB, err := s.Stat(pathB)
	require.NoError(t, err)

	// A middle-only perturbation outside the head/tail windows must
	// not change the content hash.
	assert.Equal(t, statsA.ContentHash, statsB.ContentHash)
}

func TestStatMissingFile(t *testing.T) {
	s := NewOSSupplier()
	_, err := s.Stat("/nonexistent/path.jpg")
	assert.Error(t, err)
}
