// Package gateway computes deterministic cache file names, guards against
// overwrite, and writes assembled tables through the columnar writer.
package gateway

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/nharlow/recap/internal/errors"
	"github.com/nharlow/recap/internal/logging"
	"github.com/nharlow/recap/internal/parquet"
	"github.com/nharlow/recap/internal/table"
	"github.com/nharlow/recap/internal/types"
)

// Gateway writes one (model, agent) cache file pair per completed flush
// bucket. Buckets are never revisited: a pre-existing target path is a fatal
// collision, not an overwrite, since silent overwrite would corrupt the
// bucket invariant. A cache run must not be resumed into the same output
// directory without clearing it first.
type Gateway struct {
	dir           string
	flushInterval int64
	padWidth      int
	opts          parquet.Options
	log           *slog.Logger

	bucketsWritten atomic.Int64
	filesWritten   atomic.Int64
}

// New creates a Gateway bound to one output directory.
func New(dir string, totalSteps, flushInterval int64, opts parquet.Options) *Gateway {
	return &Gateway{
		dir:           dir,
		flushInterval: flushInterval,
		padWidth:      types.PadWidth(totalSteps),
		opts:          opts,
		log:           logging.Component("gateway"),
	}
}

// ModelPath returns the model cache file path for a bucket.
func (g *Gateway) ModelPath(bucket int64) string {
	return g.path(table.ModelTableName, bucket)
}

// AgentPath returns the agent cache file path for a bucket.
func (g *Gateway) AgentPath(bucket int64) string {
	return g.path(table.AgentTableName, bucket)
}

func (g *Gateway) path(name string, bucket int64) string {
	file := fmt.Sprintf("%s_%s.%s", name, types.FormatBucket(bucket, g.padWidth), parquet.Ext)
	return filepath.Join(g.dir, file)
}

// Flush writes the tables for the bucket containing step. Both target paths
// are checked for existence before anything is written; a hit on either is a
// fatal ErrPathCollision and neither file is touched. Empty tables are
// skipped: they carry no information and would shadow the bucket on replay.
func (g *Gateway) Flush(step int64, model, agents *table.Table) error {
	bucket := types.Bucket(step, g.flushInterval)
	modelPath := g.ModelPath(bucket)
	agentPath := g.AgentPath(bucket)

	for _, path := range []string{modelPath, agentPath} {
		if err := checkVacant(path); err != nil {
			return err
		}
	}

	written := 0
	if !model.Empty() {
		if err := parquet.WriteTable(model, modelPath, g.opts); err != nil {
			return errors.Wrapf(err, "write %s", modelPath)
		}
		written++
	}
	if !agents.Empty() {
		if err := parquet.WriteTable(agents, agentPath, g.opts); err != nil {
			return errors.Wrapf(err, "write %s", agentPath)
		}
		written++
	}

	g.bucketsWritten.Add(1)
	g.filesWritten.Add(int64(written))
	g.log.Info("bucket flushed",
		"bucket", bucket,
		"model_rows", model.NumRows(),
		"agent_rows", agents.NumRows(),
		"files", written)
	return nil
}

// checkVacant fails with ErrPathCollision if path already exists, whether it
// is a file or a directory. The check is advisory and sequential, not a
// lock: two processes racing on the same directory can both pass it.
func checkVacant(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return errors.NewCollision(path)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %s", path)
	}
	return nil
}

// Stats returns gateway statistics.
func (g *Gateway) Stats() Stats {
	return Stats{
		BucketsWritten: g.bucketsWritten.Load(),
		FilesWritten:   g.filesWritten.Load(),
	}
}

// Stats holds gateway statistics.
type Stats struct {
	BucketsWritten int64
	FilesWritten   int64
}
