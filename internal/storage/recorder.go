package storage

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// recordQueueSize is the buffer size for the record queue. When full,
	// records are dropped rather than blocking the pipeline.
	recordQueueSize = 256

	// flushInterval is how often queued records are written to disk.
	flushInterval = 5 * time.Second
)

// queuedRecord is one unit of work for the recorder goroutine.
type queuedRecord struct {
	run        *RunRecord
	selections []SelectionEvent
}

// Recorder writes run and selection records in the background so the
// pipeline never blocks on analytics I/O.
type Recorder struct {
	store    Store
	queue    chan queuedRecord
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	enabled  bool
	log      *zap.Logger
}

// NewRecorder creates a recorder backed by the given store and starts
// its background goroutine. A nil log falls back to a no-op logger.
func NewRecorder(store Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{
		store:    store,
		queue:    make(chan queuedRecord, recordQueueSize),
		stopChan: make(chan struct{}),
		enabled:  true,
		log:      log,
	}

	if err := r.store.Init(); err != nil {
		log.Warn("history storage initialization failed, recording disabled", zap.Error(err))
		r.enabled = false
	}

	r.wg.Add(1)
	go r.process()

	return r
}

// Record queues one run and its selections (non-blocking). A full queue
// drops the record.
func (r *Recorder) Record(run RunRecord, selections []SelectionEvent) {
	if !r.enabled {
		return
	}
	select {
	case r.queue <- queuedRecord{run: &run, selections: selections}:
	default:
		r.log.Debug("record queue full, dropping run record", zap.String("run", run.ID))
	}
}

// Stop flushes pending records and stops the background goroutine.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
	})
}

// process drains the queue until stopped.
func (r *Recorder) process() {
	defer r.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-ticker.C:
			// periodic drain keeps the queue shallow under bursts
			r.drain()
		case <-r.stopChan:
			r.drain()
			return
		}
	}
}

// drain writes every queued record without blocking.
func (r *Recorder) drain() {
	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		default:
			return
		}
	}
}

// write persists one queued record.
func (r *Recorder) write(rec queuedRecord) {
	if rec.run != nil {
		if err := r.store.RecordRun(*rec.run); err != nil {
			r.log.Warn("failed to record run", zap.Error(err))
		}
	}
	if len(rec.selections) > 0 {
		if err := r.store.RecordSelections(rec.selections); err != nil {
			r.log.Warn("failed to record selections", zap.Error(err))
		}
	}
}
