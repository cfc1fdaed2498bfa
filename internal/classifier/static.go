package classifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/lox/rpsvision/internal/vision"
)

// Static cycles through a fixed list of results, one per Classify call.
type Static struct {
	labels  []string
	results []vision.PredictionResult

	mu     sync.Mutex
	next   int
	loaded bool
	fail   error
}

// NewStatic creates a classifier for labels that answers with results in order.
func NewStatic(labels []string, results ...vision.PredictionResult) *Static {
	return &Static{labels: labels, results: results}
}

// DemoScript is a rotation of confident and unsure gestures for the demo driver.
func DemoScript() *Static {
	labels := []string{"Rock", "Paper", "Scissors"}
	return NewStatic(labels,
		vision.PredictionResult{{Label: "Rock", Confidence: 0.92}, {Label: "Paper", Confidence: 0.05}, {Label: "Scissors", Confidence: 0.03}},
		vision.PredictionResult{{Label: "Rock", Confidence: 0.04}, {Label: "Paper", Confidence: 0.88}, {Label: "Scissors", Confidence: 0.08}},
		vision.PredictionResult{{Label: "Rock", Confidence: 0.40}, {Label: "Paper", Confidence: 0.35}, {Label: "Scissors", Confidence: 0.25}},
		vision.PredictionResult{{Label: "Rock", Confidence: 0.02}, {Label: "Paper", Confidence: 0.07}, {Label: "Scissors", Confidence: 0.91}},
	)
}

// Load succeeds when the classifier has labels and at least one result.
func (s *Static) Load(_ context.Context, modelRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.labels) == 0 || len(s.results) == 0 {
		return fmt.Errorf("%w: static model %q has no script", vision.ErrModelLoad, modelRef)
	}
	s.loaded = true
	return nil
}

// Classify returns the next scripted result.
func (s *Static) Classify(ctx context.Context, _ vision.Frame) (vision.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", vision.ErrInference, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, fmt.Errorf("%w: model not loaded", vision.ErrInference)
	}
	if s.fail != nil {
		return nil, fmt.Errorf("%w: %w", vision.ErrInference, s.fail)
	}
	result := s.results[s.next%len(s.results)]
	s.next++
	return append(vision.PredictionResult(nil), result...), nil
}

// LabelCount returns the number of labels.
func (s *Static) LabelCount() int {
	return len(s.labels)
}

// FailWith makes every Classify call fail with err until cleared with nil.
func (s *Static) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
