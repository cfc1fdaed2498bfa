package vision

import (
	"context"
	"fmt"
	"strings"
)

// Prediction is one ranked entry returned by a classifier.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// PredictionResult covers every class the model knows about, in the model's
// label order.
type PredictionResult []Prediction

// Top returns the entry with the highest confidence. Ties keep the earliest
// entry. Returns false for an empty result.
func (r PredictionResult) Top() (Prediction, bool) {
	if len(r) == 0 {
		return Prediction{}, false
	}
	best := r[0]
	for _, p := range r[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	return best, true
}

// Lines formats each entry as "Label: 0.95".
func (r PredictionResult) Lines() []string {
	lines := make([]string, len(r))
	for i, p := range r {
		lines[i] = fmt.Sprintf("%s: %.2f", p.Label, p.Confidence)
	}
	return lines
}

func (r PredictionResult) String() string {
	return strings.Join(r.Lines(), ", ")
}

// Classifier ranks the known labels for a frame.
type Classifier interface {
	// Load initialises the model identified by modelRef. Fails with ErrModelLoad.
	Load(ctx context.Context, modelRef string) error

	// Classify returns a full ranked result or fails with ErrInference.
	Classify(ctx context.Context, frame Frame) (PredictionResult, error)

	// LabelCount is the number of classes the loaded model knows.
	LabelCount() int
}
