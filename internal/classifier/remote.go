package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/rpsvision/internal/vision"
)

// RemoteConfig locates the inference service.
type RemoteConfig struct {
	InferenceURL string        // ws:// or wss:// endpoint
	Timeout      time.Duration // per Classify call, and for Load
}

// Remote classifies frames through a websocket inference service. Requests
// are serialised on a single connection; a broken connection is redialled on
// the next call.
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
	dialer *websocket.Dialer
	logger *log.Logger

	mu     sync.Mutex
	labels []string
	model  string
	conn   *websocket.Conn
	nextID uint64
}

// metadata is the subset of a Teachable Machine metadata.json we use.
type metadata struct {
	ModelName string   `json:"modelName"`
	Labels    []string `json:"labels"`
	ImageSize int      `json:"imageSize"`
}

type classifyRequest struct {
	ID     uint64 `json:"id"`
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

type classPrediction struct {
	ClassName   string  `json:"className"`
	Probability float64 `json:"probability"`
}

type classifyResponse struct {
	ID          uint64            `json:"id"`
	Predictions []classPrediction `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

// NewRemote creates an unloaded remote classifier.
func NewRemote(cfg RemoteConfig, logger *log.Logger) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Remote{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.Timeout},
		logger: logger.WithPrefix("classifier").With("endpoint", cfg.InferenceURL),
	}
}

// Load fetches <modelRef>/metadata.json and connects to the inference service.
func (r *Remote) Load(ctx context.Context, modelRef string) error {
	if modelRef == "" {
		return fmt.Errorf("%w: model reference is required", vision.ErrModelLoad)
	}

	meta, err := r.fetchMetadata(ctx, modelRef)
	if err != nil {
		return fmt.Errorf("%w: %w", vision.ErrModelLoad, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.labels = meta.Labels
	r.model = meta.ModelName
	if err := r.dialLocked(ctx); err != nil {
		r.labels = nil
		return fmt.Errorf("%w: %w", vision.ErrModelLoad, err)
	}

	r.logger.Info("Model loaded", "model", meta.ModelName, "labels", meta.Labels)
	return nil
}

func (r *Remote) fetchMetadata(ctx context.Context, modelRef string) (*metadata, error) {
	url := strings.TrimSuffix(modelRef, "/") + "/metadata.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch metadata: unexpected status %d", resp.StatusCode)
	}

	var meta metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(meta.Labels) == 0 {
		return nil, errors.New("metadata lists no labels")
	}
	return &meta, nil
}

func (r *Remote) dialLocked(ctx context.Context) error {
	conn, _, err := r.dialer.DialContext(ctx, r.cfg.InferenceURL, nil)
	if err != nil {
		return fmt.Errorf("connect to inference service: %w", err)
	}
	r.conn = conn
	return nil
}

// Classify sends frame to the inference service and returns one entry per
// model label, in metadata order.
func (r *Remote) Classify(ctx context.Context, frame vision.Frame) (vision.PredictionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.labels == nil {
		return nil, fmt.Errorf("%w: model not loaded", vision.ErrInference)
	}
	if r.conn == nil {
		if err := r.dialLocked(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", vision.ErrInference, err)
		}
		r.logger.Debug("Reconnected to inference service")
	}

	result, err := r.roundTripLocked(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vision.ErrInference, err)
	}
	return result, nil
}

func (r *Remote) roundTripLocked(ctx context.Context, frame vision.Frame) (vision.PredictionResult, error) {
	conn := r.conn

	deadline := time.Now().Add(r.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	// Unblock the read as soon as the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	r.nextID++
	req := classifyRequest{
		ID:     r.nextID,
		Seq:    frame.Seq,
		Width:  frame.Width,
		Height: frame.Height,
		Format: frame.Format,
		Data:   frame.Data,
	}
	if err := conn.WriteJSON(req); err != nil {
		r.dropLocked()
		return nil, fmt.Errorf("send frame: %w", err)
	}

	var resp classifyResponse
	if err := conn.ReadJSON(&resp); err != nil {
		r.dropLocked()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read prediction: %w", err)
	}
	if resp.ID != req.ID {
		// Replies are out of step with requests; start over on a new connection.
		r.dropLocked()
		return nil, fmt.Errorf("reply %d does not match request %d", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("inference service: %s", resp.Error)
	}

	return r.rankLocked(resp.Predictions)
}

// rankLocked orders predictions by model label and checks every label is present.
func (r *Remote) rankLocked(preds []classPrediction) (vision.PredictionResult, error) {
	byLabel := make(map[string]float64, len(preds))
	for _, p := range preds {
		byLabel[p.ClassName] = p.Probability
	}

	result := make(vision.PredictionResult, len(r.labels))
	for i, label := range r.labels {
		prob, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("prediction missing label %q", label)
		}
		if prob < 0 || prob > 1 {
			return nil, fmt.Errorf("label %q has probability %v outside [0,1]", label, prob)
		}
		result[i] = vision.Prediction{Label: label, Confidence: prob}
	}
	return result, nil
}

func (r *Remote) dropLocked() {
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
}

// LabelCount returns the number of labels in the loaded model.
func (r *Remote) LabelCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.labels)
}

// Labels returns the model's labels in order.
func (r *Remote) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.labels...)
}

// Close says goodbye to the inference service and unloads the model.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.labels = nil
	if r.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = r.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err := r.conn.Close()
	r.conn = nil
	return err
}
