package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodedupe/types"
)

func tempDBPath(t *testing.T) string {
	dir := t.TempDir()
	return filepath.Join(dir, "cache.db")
}

func TestProcessCachesResult(t *testing.T) {
	var calls int32
	compute := func(_ context.Context, path string) (types.FileInfo, error) {
		atomic.AddInt32(&calls, 1)
		return types.FileInfo{Path: path}, nil
	}

	layer, err := New(tempDBPath(t), "job1", types.DefaultSimilarityConfig(), compute)
	require.NoError(t, err)
	defer layer.Close()

	info1, err := layer.Process(context.Background(), "/a.jpg", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, "/a.jpg", info1.Path)

	info2, err := layer.Process(context.Background(), "/a.jpg", "hash-a")
	require.NoError(t, err)
	assert.Equal(t, info1, info2)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestProcessConfigChangeInvalidates(t *testing.T) {
	var calls int32
	compute := func(_ context.Context, path string) (types.FileInfo, error) {
		atomic.AddInt32(&calls, 1)
		return types.FileInfo{Path: path}, nil
	}

	cfg := types.DefaultSimilarityConfig()
	layer, err := New(tempDBPath(t), "job1", cfg, compute)
	require.NoError(t, err)
	defer layer.Close()

	_, err = layer.Process(context.Background(), "/a.jpg", "hash-a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	cfg.ImageSimilarityThreshold = 0.5
	layer.SetConfig(cfg)

	_, err = layer.Process(context.Background(), "/a.jpg", "hash-a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestProcessSingleFlightConcurrentCallsComputeOnce(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	compute := func(_ context.Context, path string) (types.FileInfo, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return types.FileInfo{Path: path}, nil
	}

	layer, err := New(tempDBPath(t), "job1", types.DefaultSimilarityConfig(), compute)
	require.NoError(t, err)
	defer layer.Close()

	const n = 10
	var wg sync.WaitGroup
	results := make([]types.FileInfo, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = layer.Process(context.Background(), "/shared.jpg", "hash-shared")
		}(i)
	}

	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "/shared.jpg", results[i].Path)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestProcessPropagatesComputeError(t *testing.T) {
	wantErr := fmt.Errorf("boom")
	compute := func(_ context.Context, path string) (types.FileInfo, error) {
		return types.FileInfo{}, wantErr
	}

	layer, err := New(tempDBPath(t), "job1", types.DefaultSimilarityConfig(), compute)
	require.NoError(t, err)
	defer layer.Close()

	_, err = layer.Process(context.Background(), "/a.jpg", "hash-a")
	assert.ErrorIs(t, err, wantErr)
}

func TestNewCreatesDBFile(t *testing.T) {
	path := tempDBPath(t)
	compute := func(_ context.Context, p string) (types.FileInfo, error) {
		return types.FileInfo{Path: p}, nil
	}
	layer, err := New(path, "job1", types.DefaultSimilarityConfig(), compute)
	require.NoError(t, err)
	defer layer.Close()

	_, err = layer.Process(context.Background(), "/a.jpg", "hash-a")
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
