package history

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/tv-restore-mcp/internal/quality"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestRecordAndRecent(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	id, err := s.Record(ctx, Run{
		Source:     "tvctl inpaint",
		Label:      "00-rows",
		Image:      "lena.png",
		Iterations: 100,
		Lambda:     2.5,
		Before:     &quality.Report{MSE: 0.04, PSNR: 13.2},
		After:      &quality.Report{MSE: 0.001, PSNR: 36.9},
		Elapsed:    1500 * time.Millisecond,
		CreatedAt:  base,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.Record(ctx, Run{
		ID:        "fixed-id",
		Source:    "mcp tv_denoise",
		Label:     "diffuse",
		Image:     "noisy.png",
		CreatedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "fixed-id", runs[0].ID)
	assert.Nil(t, runs[0].Before)
	assert.Nil(t, runs[0].After)

	r := runs[1]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "tvctl inpaint", r.Source)
	assert.Equal(t, "00-rows", r.Label)
	assert.Equal(t, 100, r.Iterations)
	assert.Equal(t, float32(2.5), r.Lambda)
	assert.Equal(t, 1500*time.Millisecond, r.Elapsed)
	assert.True(t, r.CreatedAt.Equal(base))
	require.NotNil(t, r.After)
	assert.InDelta(t, 0.001, r.After.MSE, 1e-12)
	assert.InDelta(t, 36.9, r.After.PSNR, 1e-12)
	assert.True(t, math.IsNaN(r.After.SNR))

	runs, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecord_InfinitePSNR(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, Run{
		Source: "tvctl compare",
		Label:  "exact",
		Image:  "a.png",
		After:  &quality.Report{MSE: 0, SNR: math.Inf(1), PSNR: math.Inf(1)},
	})
	require.NoError(t, err)

	runs, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].After)
	assert.Zero(t, runs[0].After.MSE)
	assert.True(t, math.IsInf(runs[0].After.PSNR, 1))
}

func TestOpen_Reopen(t *testing.T) {
	s, path := openStore(t)
	_, err := s.Record(context.Background(), Run{Source: "test", Label: "a", Image: "x.png"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Migrations already applied; reopening keeps the data.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	runs, err := s2.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecord_Concurrent(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Record(ctx, Run{Source: "test", Label: "c", Image: "x.png"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	runs, err := s.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, runs, 8)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "runs.db"))
	assert.Error(t, err)
}
