// Package workflow drives one analysis attempt: selecting an image,
// submitting it and holding the outcome until the user starts over.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kamilpajak/leafguard/pkg/models"
)

var (
	// ErrNotImage is returned when the selected file is not an image.
	ErrNotImage = errors.New("please upload an image file")
	// ErrEmptyImage is returned when the selected file has no content.
	ErrEmptyImage = errors.New("image file is empty")
	// ErrBusy is returned when selecting while a submission is in flight.
	ErrBusy = errors.New("analysis in progress")
)

// Phase is the active step of the workflow
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseSelected
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

var phaseNames = [...]string{"empty", "selected", "loading", "succeeded", "failed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is an immutable snapshot of the workflow. Transition methods return
// a new State and never modify the receiver.
//
// Image is held in every phase but Empty. Result is set only when
// Succeeded, Err only when Failed. Generation changes on every transition
// that starts or abandons an attempt, so completions tagged with an older
// generation can be told apart and dropped.
type State struct {
	Phase      Phase
	Image      *Image
	Result     *models.Prediction
	Err        string
	Generation uint64
}

// Select holds img and moves to Selected. Non-image files are rejected
// and leave the state unchanged.
func (s State) Select(img Image) (State, error) {
	if s.Phase == PhaseLoading {
		return s, ErrBusy
	}
	if !strings.HasPrefix(img.MediaType, "image/") {
		return s, fmt.Errorf("%w (got %q)", ErrNotImage, img.MediaType)
	}
	if len(img.Data) == 0 {
		return s, ErrEmptyImage
	}

	if img.Preview == "" {
		img.Preview = preview(img)
	}
	return State{
		Phase:      PhaseSelected,
		Image:      &img,
		Generation: s.Generation + 1,
	}, nil
}

// Analyze moves a Selected or Failed workflow to Loading. ok is false, and
// the state unchanged, from any other phase.
func (s State) Analyze() (next State, ok bool) {
	if s.Image == nil || (s.Phase != PhaseSelected && s.Phase != PhaseFailed) {
		return s, false
	}
	return State{
		Phase:      PhaseLoading,
		Image:      s.Image,
		Generation: s.Generation + 1,
	}, true
}

// Succeed records result for the attempt tagged gen. Completions for any
// other attempt are ignored.
func (s State) Succeed(gen uint64, result *models.Prediction) (next State, applied bool) {
	if !s.awaiting(gen) {
		return s, false
	}
	return State{
		Phase:      PhaseSucceeded,
		Image:      s.Image,
		Result:     result,
		Generation: s.Generation,
	}, true
}

// Fail records message for the attempt tagged gen, keeping the image so the
// attempt can be retried.
func (s State) Fail(gen uint64, message string) (next State, applied bool) {
	if !s.awaiting(gen) {
		return s, false
	}
	return State{
		Phase:      PhaseFailed,
		Image:      s.Image,
		Err:        message,
		Generation: s.Generation,
	}, true
}

// Reset discards everything and returns to Empty. Always legal.
func (s State) Reset() State {
	return State{Phase: PhaseEmpty, Generation: s.Generation + 1}
}

func (s State) awaiting(gen uint64) bool {
	return s.Phase == PhaseLoading && s.Generation == gen
}
