// Package cache implements the record/replay session that wraps a stepwise
// simulation. In record mode each step is simulated and its sampled
// observations buffered, then flushed to columnar files at interval
// boundaries. In replay mode each step's observations are read back from
// those files instead of re-running the simulation.
package cache

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/nharlow/recap/internal/buffer"
	"github.com/nharlow/recap/internal/collect"
	"github.com/nharlow/recap/internal/config"
	"github.com/nharlow/recap/internal/errors"
	"github.com/nharlow/recap/internal/gateway"
	"github.com/nharlow/recap/internal/logging"
	"github.com/nharlow/recap/internal/manifest"
	"github.com/nharlow/recap/internal/parquet"
	"github.com/nharlow/recap/internal/replay"
	"github.com/nharlow/recap/internal/sim"
	"github.com/nharlow/recap/internal/stats"
	"github.com/nharlow/recap/internal/table"
	"github.com/nharlow/recap/internal/types"
)

// Session is one cache run: one model, one output directory, one mode,
// fixed at construction. The session owns its buffer exclusively and is
// single-threaded: one Step completes fully (simulate, capture, append,
// conditional flush) before the next begins.
type Session struct {
	cfg       *config.Config
	mode      types.Mode
	model     sim.Model
	collector *collect.Collector

	buf    *buffer.Buffer
	gw     *gateway.Gateway
	reader *replay.Reader
	man    *manifest.Store
	runID  int64

	log *slog.Logger

	// step is the index of the next step to process. Strictly increasing,
	// advanced exactly once per Step regardless of mode.
	step   int64
	closed bool

	// Replay-mode state: the observations of the last replayed step.
	curModel  map[string]float64
	curAgents []types.AgentRecord
}

// New creates a session bound to cfg. The model is stepped in record mode
// and left untouched in replay mode; the collector supplies the reporter
// sets in both.
func New(model sim.Model, collector *collect.Collector, cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode := cfg.CacheMode()

	s := &Session{
		cfg:       cfg,
		mode:      mode,
		model:     model,
		collector: collector,
		buf:       buffer.New(),
		log:       logging.Component("session"),
	}

	opts := parquet.DefaultOptions()
	opts.Compression = parquet.ParseCompressionType(cfg.Compression.Algorithm)
	if cfg.Compression.Level > 0 {
		opts.CompressionLevel = cfg.Compression.Level
	}

	switch mode {
	case types.ModeRecord:
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create output dir %s", cfg.OutputDir)
		}
		s.gw = gateway.New(cfg.OutputDir, cfg.TotalSteps, cfg.FlushInterval, opts)

		if cfg.Manifest.Enabled {
			man, err := manifest.Open(context.Background(), cfg.ManifestPath())
			if err != nil {
				return nil, err
			}
			runID, err := man.CreateRun(context.Background(), manifest.Run{
				StartedAt:     time.Now(),
				Mode:          mode.String(),
				OutputDir:     cfg.OutputDir,
				TotalSteps:    cfg.TotalSteps,
				SampleRate:    cfg.SampleRate,
				FlushInterval: cfg.FlushInterval,
			})
			if err != nil {
				man.Close()
				return nil, err
			}
			s.man = man
			s.runID = runID
			s.log = logging.Run(runID, mode.String()).With("component", "session")
		}

	case types.ModeReplay:
		s.reader = replay.NewReader(cfg.OutputDir, cfg.TotalSteps, cfg.SampleRate, cfg.FlushInterval)
	}

	s.log.Info("session created",
		"mode", mode.String(),
		"output_dir", cfg.OutputDir,
		"total_steps", cfg.TotalSteps,
		"sample_rate", cfg.SampleRate,
		"flush_interval", cfg.FlushInterval)
	return s, nil
}

// StepIndex returns the index of the next step to process.
func (s *Session) StepIndex() int64 {
	return s.step
}

// Mode returns the session's cache mode.
func (s *Session) Mode() types.Mode {
	return s.mode
}

// RunID returns the manifest run id, or 0 when the ledger is disabled.
func (s *Session) RunID() int64 {
	return s.runID
}

// Step processes one simulation tick. In record mode it first flushes the
// completed window if the step lands on an interval boundary, then advances
// the model and captures the step's observations if selected by the sample
// rate. In replay mode it reads the step's observations back instead.
func (s *Session) Step() error {
	if s.closed {
		return errors.ErrSessionClosed
	}
	if s.step >= s.cfg.TotalSteps {
		return errors.ErrRunFinished
	}

	switch s.mode {
	case types.ModeRecord:
		return s.recordStep()
	default:
		return s.replayStep()
	}
}

// Run steps the session to completion, checking ctx between steps.
func (s *Session) Run(ctx context.Context) error {
	for s.step < s.cfg.TotalSteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) recordStep() error {
	step := s.step

	// Flush the completed window before this step's observations land in
	// the buffer, so every record belongs to exactly one flushed table.
	if ShouldFlush(step, s.cfg.FlushInterval) {
		if err := s.flush(step); err != nil {
			return err
		}
	}

	s.model.Step()

	if step%s.cfg.SampleRate == 0 {
		s.buf.AppendModel(s.collector.CollectModel(step, s.model))
		for _, rec := range s.collector.CollectAgents(step, s.model) {
			s.buf.AppendAgent(rec)
		}
	}

	s.step++
	return nil
}

func (s *Session) replayStep() error {
	step := s.step

	if step%s.cfg.SampleRate == 0 {
		mv, err := s.reader.ModelRow(step)
		if err != nil {
			return err
		}
		av, err := s.reader.AgentRows(step)
		if err != nil {
			return err
		}
		s.curModel = mv
		s.curAgents = av
	} else {
		s.curModel = nil
		s.curAgents = nil
	}

	s.step++
	return nil
}

// ModelVars returns the model-level observations of the last replayed step.
// The second return is false for steps skipped by the sample rate.
func (s *Session) ModelVars() (map[string]float64, bool) {
	return s.curModel, s.curModel != nil
}

// AgentVars returns the agent-level observations of the last replayed step.
func (s *Session) AgentVars() []types.AgentRecord {
	return s.curAgents
}

// flush drains the buffer, assembles both tables, and writes them through
// the gateway under the bucket of the completed window. boundaryStep is the
// interval boundary that triggered the flush; the window it completes is
// [boundaryStep-FlushInterval, boundaryStep).
func (s *Session) flush(boundaryStep int64) error {
	windowStart := boundaryStep - s.cfg.FlushInterval

	modelRecords := s.buf.DrainModel()
	agentRecords := s.buf.DrainAgents()

	modelTable, err := table.AssembleModel(modelRecords, s.collector.ModelReporterNames())
	if err != nil {
		return err
	}
	agentTable, err := table.AssembleAgents(agentRecords, s.collector.AgentReporterNames())
	if err != nil {
		return err
	}

	for _, sum := range stats.Summarize(modelTable) {
		s.log.Debug("window summary",
			"reporter", sum.Reporter,
			"count", sum.Count,
			"min", sum.Min,
			"max", sum.Max,
			"mean", sum.Mean,
			"p50", sum.P50,
			"p95", sum.P95,
			"p99", sum.P99)
	}

	if err := s.gw.Flush(windowStart, modelTable, agentTable); err != nil {
		return err
	}

	if s.man != nil {
		bucket := types.Bucket(windowStart, s.cfg.FlushInterval)
		err := s.man.RecordBucket(context.Background(), s.runID, manifest.BucketInfo{
			Bucket:      bucket,
			WindowStart: windowStart,
			WindowEnd:   boundaryStep - 1,
			ModelRows:   int64(modelTable.NumRows()),
			AgentRows:   int64(agentTable.NumRows()),
			ModelFile:   s.gw.ModelPath(bucket),
			AgentFile:   s.gw.AgentPath(bucket),
			FlushedAt:   time.Now(),
		})
		if err != nil {
			s.log.Warn("manifest bucket record failed", "error", err)
		}
	}
	return nil
}

// Close ends the run. In record mode a final window that ends exactly on an
// interval boundary is flushed; a partial tail is dropped, never written,
// since its bucket would be incomplete. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if s.mode == types.ModeRecord {
		if s.step == s.cfg.TotalSteps && ShouldFlush(s.step, s.cfg.FlushInterval) {
			if err := s.flush(s.step); err != nil {
				firstErr = err
			}
		}

		droppedModel := int64(len(s.buf.DrainModel()))
		droppedAgent := int64(len(s.buf.DrainAgents()))
		if droppedModel > 0 || droppedAgent > 0 {
			s.log.Warn("unflushed tail dropped",
				"model_records", droppedModel,
				"agent_records", droppedAgent)
		}

		if s.man != nil {
			if err := s.man.FinishRun(context.Background(), s.runID, s.step, droppedModel, droppedAgent); err != nil {
				s.log.Warn("manifest finish failed", "error", err)
			}
			if err := s.man.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	s.log.Info("session closed", "steps", s.step)
	return firstErr
}
