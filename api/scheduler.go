package api

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"positionsmap/positionsmap"
)

var ErrSchedulerStopped = errors.New("batch scheduler stopped")

// BatchResult is the outcome of packing one sequence of a batch.
type BatchResult struct {
	Index  int    `json:"index"`
	Count  int    `json:"count"`
	Packed []byte `json:"packed,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

type batchJob struct {
	index     int
	positions []uint64
	results   []BatchResult
	done      *sync.WaitGroup
}

// BatchScheduler packs sequences on a fixed pool of workers.
type BatchScheduler struct {
	codec      *positionsmap.Codec
	log        *zap.Logger
	workQueue  chan batchJob
	stopChan   chan struct{}
	numWorkers int
	wg         sync.WaitGroup

	// submitters hold the read lock while queueing; Stop takes the write
	// lock so nothing is queued after the workers drain.
	submitMu sync.RWMutex
	stopped  bool
}

func NewBatchScheduler(codec *positionsmap.Codec, log *zap.Logger, numWorkers int) *BatchScheduler {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &BatchScheduler{
		codec:      codec,
		log:        log,
		workQueue:  make(chan batchJob, 100),
		stopChan:   make(chan struct{}),
		numWorkers: numWorkers,
	}
}

func (sched *BatchScheduler) Start() {
	for i := 0; i < sched.numWorkers; i++ {
		sched.wg.Add(1)
		go sched.worker(i)
	}
	sched.log.Info("batch scheduler started", zap.Int("workers", sched.numWorkers))
}

func (sched *BatchScheduler) Stop() {
	sched.submitMu.Lock()
	if sched.stopped {
		sched.submitMu.Unlock()
		return
	}
	sched.stopped = true
	close(sched.stopChan)
	sched.submitMu.Unlock()

	sched.wg.Wait()
	sched.log.Info("batch scheduler stopped")
}

// PackAll packs every sequence and returns one result per input, in
// input order. Failures of single sequences are reported in their
// result; the error is only set when the batch could not be run.
func (sched *BatchScheduler) PackAll(ctx context.Context, sequences [][]uint64) ([]BatchResult, error) {
	results := make([]BatchResult, len(sequences))
	var done sync.WaitGroup

	err := sched.submit(ctx, sequences, results, &done)
	// queued jobs still write into results
	done.Wait()
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (sched *BatchScheduler) submit(ctx context.Context, sequences [][]uint64, results []BatchResult, done *sync.WaitGroup) error {
	sched.submitMu.RLock()
	defer sched.submitMu.RUnlock()
	if sched.stopped {
		return ErrSchedulerStopped
	}

	for i, seq := range sequences {
		if err := ctx.Err(); err != nil {
			return err
		}
		job := batchJob{index: i, positions: seq, results: results, done: done}
		done.Add(1)
		select {
		case sched.workQueue <- job:
		case <-ctx.Done():
			done.Done()
			return ctx.Err()
		}
	}
	return nil
}

func (sched *BatchScheduler) worker(id int) {
	defer sched.wg.Done()
	sched.log.Debug("worker started", zap.Int("worker", id))

	for {
		select {
		case job := <-sched.workQueue:
			sched.execute(job)
		case <-sched.stopChan:
			sched.drain()
			sched.log.Debug("worker stopped", zap.Int("worker", id))
			return
		}
	}
}

// drain finishes whatever was queued before Stop.
func (sched *BatchScheduler) drain() {
	for {
		select {
		case job := <-sched.workQueue:
			sched.execute(job)
		default:
			return
		}
	}
}

func (sched *BatchScheduler) execute(job batchJob) {
	defer job.done.Done()

	res := BatchResult{Index: job.index, Count: len(job.positions)}
	packed, err := sched.codec.Pack(job.positions)
	if err != nil {
		res.Error = err.Error()
		res.Kind = positionsmap.KindOf(err).String()
	} else {
		res.Packed = packed
	}
	job.results[job.index] = res
}
