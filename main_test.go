package main

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/charades/internal/config"
	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/rounds"
)

var (
	launch = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now    = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
)

func memRounds(t *testing.T) *rounds.Memory {
	t.Helper()
	rs, err := rounds.Generate(launch, "2024-03-08", "salt", []string{"a llama", "a cat"})
	require.NoError(t, err)
	return rounds.NewMemory(rs...)
}

func TestCleanup_DryRunThenLive(t *testing.T) {
	ctx := context.Background()
	src := memRounds(t)

	var out bytes.Buffer
	require.NoError(t, cleanup(ctx, &out, src, now, daily.DefaultRollover, 0, false))
	assert.Contains(t, out.String(), "would delete r6 (2024-03-06)")
	assert.Contains(t, out.String(), "would delete r8 (2024-03-08)")
	assert.NotContains(t, out.String(), "r5 ")
	latest, err := src.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, latest.Index, "dry run keeps rounds")

	out.Reset()
	require.NoError(t, cleanup(ctx, &out, src, now, daily.DefaultRollover, 7, true))
	assert.Contains(t, out.String(), "deleted r7")
	latest, err = src.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, latest.Index)
}

func TestCleanup_HiatusNeedsFrom(t *testing.T) {
	err := cleanup(context.Background(), &bytes.Buffer{}, rounds.NewMemory(), now, daily.DefaultRollover, 0, true)
	assert.ErrorContains(t, err, "--from")
}

type countingEngine struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (e *countingEngine) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, text)
	if e.err != nil {
		return nil, e.err
	}
	return make([]float32, rounds.EmbeddingDims), nil
}

func (e *countingEngine) Name() string { return "fake" }

func TestBackfill(t *testing.T) {
	ctx := context.Background()
	src := memRounds(t)
	require.NoError(t, src.SetEmbedding(ctx, 2, make([]float32, rounds.EmbeddingDims)))

	e := &countingEngine{}
	n, err := backfill(ctx, src, e, false, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, n, "round 2 already has a vector")

	r, err := src.ByIndex(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, r.Embedding, rounds.EmbeddingDims)

	n, err = backfill(ctx, src, e, false, 3)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = backfill(ctx, src, e, true, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, err = backfill(ctx, memRounds(t), &countingEngine{err: errors.New("down")}, false, 1)
	assert.ErrorContains(t, err, "down")
}

func TestPrintReports(t *testing.T) {
	var out bytes.Buffer
	err := printReports(&out, []rounds.Report{
		{DateID: "2024-03-05", Index: 5},
		{DateID: "2024-03-06", Index: 6, Problems: []string{"missing images/abc.jpg"}},
	})
	assert.ErrorContains(t, err, "1 of 2 days failed")
	assert.Equal(t, "✓ 2024-03-05 r5\n✗ 2024-03-06 r6\n    - missing images/abc.jpg\n", out.String())
}

func TestRootCmd_ValidatesConfig(t *testing.T) {
	t.Setenv("CONTENT_SOURCE", "memory")
	t.Setenv("VARIANT", "crosswords")
	cmd := newRootCmd(&config.Config{})
	cmd.SetArgs([]string{"rounds", "cleanup"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "unsupported --variant")
}
