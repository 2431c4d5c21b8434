// Package session reruns the pipeline on one loaded image as parameters
// change, debounced and last-writer-wins.
package session

import (
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
	"line-art-processing/internal/pipeline"
)

// DefaultDelay matches the preview debounce of an interactive editor.
const DefaultDelay = 200 * time.Millisecond

// Request is one set of parameters to run with.
type Request struct {
	Params pipeline.Params
	Crop   *pipeline.Crop
}

// Runner owns the original image of a session. Submitted requests are
// debounced; a newer request replaces a pending one; at most one run is in
// flight. A failed run leaves the original and the last artifact untouched.
type Runner struct {
	mu   sync.Mutex
	cond *sync.Cond

	image    *core.ImageData
	pipeline *pipeline.Pipeline
	logger   *logrus.Logger
	delay    time.Duration
	stats    Stats

	timer   *time.Timer
	armed   bool // timer set and not yet fired
	due     bool // timer fired while a run was in flight
	running bool
	stopped bool
	pending *Request
	seq     uint64

	// Callbacks run on the worker goroutine. The Result is closed when
	// onResult returns.
	onResult func(seq uint64, result *pipeline.Result)
	onError  func(seq uint64, err error)
}

func NewRunner(p *pipeline.Pipeline, logger *logrus.Logger, delay time.Duration) *Runner {
	if delay < 0 {
		delay = 0
	}
	r := &Runner{
		image:    core.NewImageData(),
		pipeline: p,
		logger:   logger,
		delay:    delay,
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// SetCallbacks sets result and error callbacks
func (r *Runner) SetCallbacks(onResult func(uint64, *pipeline.Result), onError func(uint64, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onResult = onResult
	r.onError = onError
}

// LoadImage decodes path and makes it the session original.
func (r *Runner) LoadImage(path string) error {
	mat, err := r.pipeline.Loader().LoadImage(path)
	if err != nil {
		return err
	}
	defer mat.Close()
	if err := r.SetImage(mat, path); err != nil {
		return err
	}

	meta := r.image.Metadata()
	r.logger.WithFields(logrus.Fields{
		"filepath": r.image.Filepath(),
		"width":    meta.Width,
		"height":   meta.Height,
		"channels": meta.Channels,
		"format":   meta.Format,
	}).Info("SESSION: Image loaded")
	return nil
}

// SetImage copies mat in as the session original.
func (r *Runner) SetImage(mat gocv.Mat, path string) error {
	return r.image.SetOriginal(mat, path)
}

// Image exposes the session holder.
func (r *Runner) Image() *core.ImageData {
	return r.image
}

// Stats returns the run counters of the session so far.
func (r *Runner) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

// Submit schedules req after the debounce delay and returns its sequence
// number. Sequence numbers grow with every call.
func (r *Runner) Submit(req Request) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return 0, errors.New("session stopped")
	}
	if !r.image.HasImage() {
		return 0, errors.WithMessage(core.ErrInvalidImage, "no image loaded")
	}

	r.seq++
	r.pending = &req
	if r.timer != nil {
		r.timer.Stop()
	}
	r.armed = true
	r.due = false
	r.timer = time.AfterFunc(r.delay, r.fire)

	r.logger.WithField("seq", r.seq).Debug("SESSION: Request scheduled")
	return r.seq, nil
}

func (r *Runner) fire() {
	r.mu.Lock()
	r.armed = false
	if r.stopped || r.pending == nil {
		r.cond.Broadcast()
		r.mu.Unlock()
		return
	}
	if r.running {
		// The worker picks this up when the current run ends.
		r.due = true
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.work()
}

// work runs pending requests until none is due.
func (r *Runner) work() {
	for {
		r.mu.Lock()
		req, seq := r.pending, r.seq
		r.pending = nil
		r.due = false
		onResult, onError := r.onResult, r.onError
		r.mu.Unlock()

		if req != nil {
			r.runOnce(seq, *req, onResult, onError)
		}

		r.mu.Lock()
		if r.stopped || r.pending == nil || !r.due {
			r.running = false
			r.cond.Broadcast()
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()
	}
}

func (r *Runner) runOnce(seq uint64, req Request, onResult func(uint64, *pipeline.Result), onError func(uint64, error)) {
	original := r.image.Original()
	defer original.Close()

	result, err := r.pipeline.Run(original, req.Params, req.Crop)
	if err != nil {
		r.stats.recordFailure()
		r.logger.WithFields(logrus.Fields{"seq": seq, "error": err}).Error("SESSION: Run failed")
		if onError != nil {
			onError(seq, err)
		}
		return
	}
	defer result.Close()
	r.stats.recordSuccess(result.Duration, result.MaskFallback())

	if err := r.image.SetProcessed(result.Artifact()); err != nil {
		r.logger.WithError(err).Warn("SESSION: Cannot store artifact")
	}

	r.logger.WithFields(logrus.Fields{
		"seq":      seq,
		"duration": result.Duration,
	}).Debug("SESSION: Run complete")

	if onResult != nil {
		onResult(seq, result)
	}
}

// Wait blocks until nothing is scheduled or running.
func (r *Runner) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.armed || r.running || (r.pending != nil && !r.stopped) {
		r.cond.Wait()
	}
}

// Stop drops any pending request, waits for a run in flight and releases
// the session image. Submit fails afterwards.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.pending = nil
	if r.timer != nil && r.timer.Stop() {
		r.armed = false
	}
	for r.running || r.armed {
		r.cond.Wait()
	}
	r.mu.Unlock()

	r.image.Close()
}
