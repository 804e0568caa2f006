// Package replay implements the read path of the cache: locating the bucket
// file pair for a step, deserializing it, and indexing into the rows for
// that step.
package replay

import (
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nharlow/recap/internal/errors"
	"github.com/nharlow/recap/internal/gateway"
	"github.com/nharlow/recap/internal/logging"
	"github.com/nharlow/recap/internal/parquet"
	"github.com/nharlow/recap/internal/types"
)

// Reader reconstructs recorded observations from a cache directory. It keeps
// the most recently used bucket deserialized in memory; sequential replay
// therefore touches each file once.
type Reader struct {
	dir           string
	sampleRate    int64
	flushInterval int64
	gw            *gateway.Gateway
	log           *slog.Logger

	mu     sync.Mutex
	loaded map[int64]*bucketData

	group singleflight.Group
}

// bucketData is one deserialized bucket pair, indexed by step.
type bucketData struct {
	model  map[int64]map[string]float64
	agents map[int64][]types.AgentRecord
}

// maxLoadedBuckets bounds the in-memory bucket cache. Sequential replay
// needs one; a small headroom covers back-and-forth stepping.
const maxLoadedBuckets = 2

// NewReader creates a Reader over an existing cache directory. The
// parameters must match the recording run; there is no metadata handshake
// beyond the file naming scheme.
func NewReader(dir string, totalSteps, sampleRate, flushInterval int64) *Reader {
	return &Reader{
		dir:           dir,
		sampleRate:    sampleRate,
		flushInterval: flushInterval,
		gw:            gateway.New(dir, totalSteps, flushInterval, parquet.DefaultOptions()),
		log:           logging.Component("replay"),
		loaded:        make(map[int64]*bucketData),
	}
}

// ModelRow returns the model-level observations recorded for step.
func (r *Reader) ModelRow(step int64) (map[string]float64, error) {
	if step%r.sampleRate != 0 {
		return nil, errors.Wrapf(errors.ErrStepNotSampled, "step %d", step)
	}
	data, err := r.bucketFor(step)
	if err != nil {
		return nil, err
	}
	row, ok := data.model[step]
	if !ok {
		return nil, errors.Wrapf(errors.ErrStepNotCached, "step %d", step)
	}
	return row, nil
}

// AgentRows returns the agent-level observations recorded for step, in the
// order they were written.
func (r *Reader) AgentRows(step int64) ([]types.AgentRecord, error) {
	if step%r.sampleRate != 0 {
		return nil, errors.Wrapf(errors.ErrStepNotSampled, "step %d", step)
	}
	data, err := r.bucketFor(step)
	if err != nil {
		return nil, err
	}
	return data.agents[step], nil
}

// bucketFor returns the deserialized bucket containing step, loading it on
// first use. Concurrent readers of the same bucket share one load.
func (r *Reader) bucketFor(step int64) (*bucketData, error) {
	bucket := types.Bucket(step, r.flushInterval)

	r.mu.Lock()
	data, ok := r.loaded[bucket]
	r.mu.Unlock()
	if ok {
		return data, nil
	}

	v, err, _ := r.group.Do(types.FormatBucket(bucket, 0), func() (any, error) {
		data, err := r.load(bucket)
		if err != nil {
			return nil, err
		}
		r.retain(bucket, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bucketData), nil
}

// load deserializes one bucket pair. A missing model file is a missing
// bucket; a missing agent file only means the window had no agent rows
// (empty tables are never persisted).
func (r *Reader) load(bucket int64) (*bucketData, error) {
	modelPath := r.gw.ModelPath(bucket)
	agentPath := r.gw.AgentPath(bucket)

	data := &bucketData{
		model:  make(map[int64]map[string]float64),
		agents: make(map[int64][]types.AgentRecord),
	}

	mt, err := parquet.ReadTable(modelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(errors.ErrBucketMissing, "bucket %d (%s)", bucket, modelPath)
		}
		return nil, errors.Wrapf(err, "read %s", modelPath)
	}
	for _, row := range mt.Rows {
		values := make(map[string]float64, len(mt.Columns))
		for j, col := range mt.Columns {
			values[col] = row.Values[j]
		}
		data.model[row.Index[0]] = values
	}

	at, err := parquet.ReadTable(agentPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(err, "read %s", agentPath)
		}
	} else {
		for _, row := range at.Rows {
			values := make(map[string]float64, len(at.Columns))
			for j, col := range at.Columns {
				values[col] = row.Values[j]
			}
			step := row.Index[0]
			data.agents[step] = append(data.agents[step], types.AgentRecord{
				Step:    step,
				AgentID: row.Index[1],
				Values:  values,
			})
		}
	}

	r.log.Debug("bucket loaded",
		"bucket", bucket,
		"model_rows", len(data.model),
		"agent_steps", len(data.agents))
	return data, nil
}

// retain caches a loaded bucket, evicting the lowest-numbered bucket when
// over capacity (replay walks forward, so lower buckets age out first).
func (r *Reader) retain(bucket int64, data *bucketData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loaded[bucket] = data
	for len(r.loaded) > maxLoadedBuckets {
		oldest := bucket
		for b := range r.loaded {
			if b < oldest {
				oldest = b
			}
		}
		delete(r.loaded, oldest)
	}
}
