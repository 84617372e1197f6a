package workflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kamilpajak/leafguard/internal/predict"
	"github.com/kamilpajak/leafguard/pkg/models"
)

const fallbackFailure = "Failed to analyze image"

// Submitter sends an image to the prediction service.
type Submitter interface {
	Submit(ctx context.Context, img predict.Image) (*models.Prediction, error)
}

// Listener observes every state change. Listeners run while the workflow is
// locked and must neither block nor call back into the Workflow.
type Listener func(State)

// Workflow owns a single State and serializes every transition on it. At
// most one submission is in flight at a time.
type Workflow struct {
	mu        sync.Mutex
	state     State
	submitter Submitter
	log       *slog.Logger
	cancel    context.CancelFunc
	listeners []Listener
	inflight  sync.WaitGroup
}

// New creates an empty workflow that submits through s.
func New(s Submitter, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Workflow{submitter: s, log: log}
}

// State returns the current snapshot.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Subscribe registers l for all future state changes.
func (w *Workflow) Subscribe(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Select holds img for analysis. Rejected files leave the state untouched.
func (w *Workflow) Select(img Image) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := w.state.Select(img)
	if err != nil {
		return err
	}
	w.set(next)
	w.log.Debug("image selected", "name", img.Name, "media_type", img.MediaType, "bytes", len(img.Data))
	return nil
}

// Analyze submits the held image in the background and reports whether a
// submission was started. It is a no-op without an image or while a
// submission is already in flight.
func (w *Workflow) Analyze(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, ok := w.state.Analyze()
	if !ok {
		return false
	}
	w.set(next)

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.inflight.Add(1)
	go w.submit(ctx, cancel, next.Generation, next.Image.payload())
	return true
}

// Reset returns to Empty. A submission still in flight is cancelled and its
// outcome, whenever it arrives, is dropped.
func (w *Workflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.set(w.state.Reset())
}

// Wait blocks until no submission is in flight.
func (w *Workflow) Wait() {
	w.inflight.Wait()
}

func (w *Workflow) submit(ctx context.Context, cancel context.CancelFunc, gen uint64, img predict.Image) {
	defer w.inflight.Done()
	defer cancel()

	result, err := w.submitter.Submit(ctx, img)

	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		next    State
		applied bool
	)
	if err != nil {
		next, applied = w.state.Fail(gen, failureMessage(err))
	} else {
		next, applied = w.state.Succeed(gen, result)
	}
	if !applied {
		w.log.Debug("discarding stale prediction", "generation", gen, "current", w.state.Generation)
		return
	}

	w.cancel = nil
	w.set(next)
	if err != nil {
		w.log.Warn("prediction failed", "error", err)
	} else {
		w.log.Info("prediction received", "class", result.PredictedClass, "confidence", result.Confidence)
	}
}

func (w *Workflow) set(s State) {
	w.state = s
	for _, l := range w.listeners {
		l(s)
	}
}

func failureMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackFailure
}
