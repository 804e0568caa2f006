package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nharlow/recap/internal/collect"
	"github.com/nharlow/recap/internal/config"
	"github.com/nharlow/recap/internal/errors"
	"github.com/nharlow/recap/internal/manifest"
	"github.com/nharlow/recap/internal/parquet"
	"github.com/nharlow/recap/internal/types"
	"github.com/nharlow/recap/internal/walk"
)

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = "record"
	cfg.TotalSteps = 40
	cfg.SampleRate = 2
	cfg.FlushInterval = 10
	cfg.OutputDir = dir
	cfg.Manifest.Enabled = false
	return cfg
}

func recordRun(t *testing.T, cfg *config.Config, agents int, seed int64) {
	t.Helper()
	s, err := New(walk.New(agents, seed), walk.Collector(), cfg)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Close())
}

func TestRecordRunWritesEveryBucket(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	recordRun(t, cfg, 3, 42)

	// 40 steps at interval 10 complete four buckets, padded to one digit.
	for bucket := 0; bucket < 4; bucket++ {
		model := filepath.Join(dir, fmt.Sprintf("model_data_%d.parquet", bucket))
		agent := filepath.Join(dir, fmt.Sprintf("agent_data_%d.parquet", bucket))

		mt, err := parquet.ReadTable(model)
		require.NoError(t, err, "bucket %d model file", bucket)
		at, err := parquet.ReadTable(agent)
		require.NoError(t, err, "bucket %d agent file", bucket)

		// Sample rate 2 selects five steps per ten-step window, three
		// agents give three rows per sampled step.
		assert.Equal(t, 5, mt.NumRows(), "bucket %d model rows", bucket)
		assert.Equal(t, 15, at.NumRows(), "bucket %d agent rows", bucket)

		wantFirst := int64(bucket * 10)
		assert.Equal(t, wantFirst, mt.Rows[0].Index[0], "bucket %d first step", bucket)
		assert.Equal(t, wantFirst+8, mt.Rows[4].Index[0], "bucket %d last step", bucket)
	}
}

func TestRecordSkipsUnsampledSteps(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.TotalSteps = 10
	cfg.SampleRate = 3
	recordRun(t, cfg, 2, 1)

	mt, err := parquet.ReadTable(filepath.Join(dir, "model_data_0.parquet"))
	require.NoError(t, err)

	// Steps 0, 3, 6, 9 are selected out of [0, 10).
	require.Equal(t, 4, mt.NumRows())
	steps := []int64{mt.Rows[0].Index[0], mt.Rows[1].Index[0], mt.Rows[2].Index[0], mt.Rows[3].Index[0]}
	assert.Equal(t, []int64{0, 3, 6, 9}, steps)
}

func TestPartialTailDropped(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.TotalSteps = 45
	recordRun(t, cfg, 2, 7)

	// Buckets 0-3 are complete; steps 40-44 never fill bucket 4.
	if _, err := os.Stat(filepath.Join(dir, "model_data_3.parquet")); err != nil {
		t.Errorf("bucket 3 missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "model_data_4.parquet")); !os.IsNotExist(err) {
		t.Error("partial tail bucket was persisted")
	}
}

func TestManifestLedger(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.TotalSteps = 45
	cfg.Manifest.Enabled = true

	s, err := New(walk.New(2, 7), walk.Collector(), cfg)
	require.NoError(t, err)
	require.NotZero(t, s.RunID())
	require.NoError(t, s.Run(context.Background()))
	require.NoError(t, s.Close())

	man, err := manifest.Open(context.Background(), cfg.ManifestPath())
	require.NoError(t, err)
	defer man.Close()

	runs, err := man.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(45), runs[0].StepsCompleted)
	assert.False(t, runs[0].FinishedAt.IsZero())
	// Steps 40, 42, 44 were sampled but never flushed.
	assert.Equal(t, int64(3), runs[0].DroppedModel)
	assert.Equal(t, int64(6), runs[0].DroppedAgent)

	buckets, err := man.Buckets(context.Background(), runs[0].ID)
	require.NoError(t, err)
	require.Len(t, buckets, 4)
	assert.Equal(t, int64(30), buckets[3].WindowStart)
	assert.Equal(t, int64(39), buckets[3].WindowEnd)
	assert.Equal(t, int64(5), buckets[3].ModelRows)
}

func TestRecordThenReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	recordRun(t, cfg, 3, 42)

	// An identically seeded model yields the expected observations.
	expected := walk.New(3, 42)
	collector := walk.Collector()

	replayCfg := testConfig(dir)
	replayCfg.Mode = "replay"
	s, err := New(nil, nil, replayCfg)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, types.ModeReplay, s.Mode())

	for step := int64(0); step < 40; step++ {
		expected.Step()
		require.NoError(t, s.Step(), "step %d", step)

		mv, ok := s.ModelVars()
		if step%2 != 0 {
			assert.False(t, ok, "step %d should be skipped", step)
			continue
		}
		require.True(t, ok, "step %d should be sampled", step)

		want := collector.CollectModel(step, expected)
		for name, v := range want.Values {
			assert.InDelta(t, v, mv[name], 1e-12, "step %d reporter %s", step, name)
		}

		av := s.AgentVars()
		require.Len(t, av, 3, "step %d", step)
		wantAgents := collector.CollectAgents(step, expected)
		for i, rec := range av {
			assert.Equal(t, wantAgents[i].AgentID, rec.AgentID)
			assert.InDelta(t, wantAgents[i].Values["x"], rec.Values["x"], 1e-12)
			assert.InDelta(t, wantAgents[i].Values["dist"], rec.Values["dist"], 1e-12)
		}
	}
}

func TestStepGuards(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.TotalSteps = 10

	s, err := New(walk.New(2, 1), walk.Collector(), cfg)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))

	assert.ErrorIs(t, s.Step(), errors.ErrRunFinished)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Step(), errors.ErrSessionClosed)

	// Close is idempotent.
	assert.NoError(t, s.Close())
}

func TestRunHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	s, err := New(walk.New(2, 1), walk.Collector(), cfg)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Equal(t, int64(0), s.StepIndex())
}

func TestSecondRunCollides(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	recordRun(t, cfg, 2, 1)

	s, err := New(walk.New(2, 1), walk.Collector(), testConfig(dir))
	require.NoError(t, err)
	defer s.Close()

	// The first flush at step 10 targets the existing bucket 0 files.
	err = s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCollision(err))
}

func TestNoReportersFailsAtFlush(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	s, err := New(walk.New(2, 1), collect.New(nil, nil), cfg)
	require.NoError(t, err)
	defer s.Close()

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNoReporters(err))
	assert.ErrorIs(t, err, errors.ErrNoModelReporters)
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.FlushInterval = 0

	_, err := New(walk.New(1, 1), walk.Collector(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
