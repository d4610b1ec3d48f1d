package predictor

import (
	"context"
	"fmt"
	"time"

	domrepo "HomeCast/internal/domain/repository"
	xhttp "HomeCast/pkg/http"
	applogger "HomeCast/pkg/logger"
)

// Remote consumes the trained model from a separate inference service over
// HTTP. Used when the artifact stays with the training job instead of being
// exported for in-process inference.
type Remote struct {
	baseURL string
	window  int
	client  *xhttp.Client
	ready   bool
}

type predictPayload struct {
	Window []float64 `json:"window"`
}

type predictReply struct {
	Prediction float64 `json:"prediction"`
}

// NewRemote builds the client and runs a throwaway inference to verify the
// service is reachable and warm.
func NewRemote(baseURL string, window int, timeout time.Duration, l *applogger.Logger) (*Remote, error) {
	if window <= 0 {
		window = DefaultWindowSize
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	r := &Remote{
		baseURL: baseURL,
		window:  window,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}

	if _, err := r.Predict(context.Background(), make([]float64, window)); err != nil {
		return nil, fmt.Errorf("warm-up inference: %w", err)
	}
	r.ready = true

	if l != nil {
		l.Info("remote model ready", applogger.String("url", baseURL), applogger.Int("window", window))
	}
	return r, nil
}

// WindowSize returns the fixed model window length.
func (r *Remote) WindowSize() int { return r.window }

// Ready reports whether the warm-up inference succeeded.
func (r *Remote) Ready() bool { return r.ready }

// Predict posts one scaled window to the inference service. Transient
// failures are retried with a short backoff; the rollout loop bounds total
// calls by the horizon, so latency stays predictable.
func (r *Remote) Predict(ctx context.Context, window []float64) (float64, error) {
	if len(window) != r.window {
		return 0, fmt.Errorf("window length %d, want %d", len(window), r.window)
	}

	var reply predictReply
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = r.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     r.baseURL + "/predict",
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    predictPayload{Window: window},
		}, &reply)
		if err == nil {
			return reply.Prediction, nil
		}
		select {
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, fmt.Errorf("remote predict: %w", err)
}

var _ domrepo.SequencePredictor = (*Remote)(nil)
