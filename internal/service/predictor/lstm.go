package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	domrepo "HomeCast/internal/domain/repository"
	applogger "HomeCast/pkg/logger"
)

// DefaultWindowSize is the trailing window length the model was trained on.
const DefaultWindowSize = 260

// artifact is the serialized model file. The training section is metadata
// only; unknown or missing fields there must not prevent loading, so it is
// decoded leniently and defaulted.
type artifact struct {
	WindowSize int     `json:"window_size"`
	InputSize  int     `json:"input_size"`
	HiddenSize int     `json:"hidden_size"`
	Kernel     []float64 `json:"kernel"`           // input_size x 4*hidden, gate order i,f,g,o
	Recurrent  []float64 `json:"recurrent_kernel"` // hidden x 4*hidden
	Bias       []float64 `json:"bias"`             // 4*hidden
	DenseW     []float64 `json:"dense_kernel"`     // hidden
	DenseB     float64   `json:"dense_bias"`
	Training   struct {
		Loss      string `json:"loss"`
		Optimizer string `json:"optimizer"`
	} `json:"training"`
}

// LSTM runs the trained sequence model in-process: a single LSTM layer over
// the scaled window followed by a dense head. Weights are frozen at load, so
// Predict is a pure function and safe for concurrent use.
type LSTM struct {
	window int
	hidden int
	kernel []float64
	recur  []float64
	bias   []float64
	denseW []float64
	denseB float64
	ready  bool
}

// LoadLSTM reads a model artifact, validates its shapes, and runs one
// throwaway inference so the first request does not pay warm-up cost.
func LoadLSTM(path string, l *applogger.Logger) (*LSTM, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if a.WindowSize == 0 {
		a.WindowSize = DefaultWindowSize
	}
	if a.InputSize == 0 {
		a.InputSize = 1
	}
	if a.Training.Loss == "" {
		// Older artifacts carry no loss metadata; inference does not need it.
		a.Training.Loss = "mse"
	}
	if a.InputSize != 1 {
		return nil, fmt.Errorf("unsupported input size %d, want 1", a.InputSize)
	}
	h := a.HiddenSize
	if h <= 0 {
		return nil, fmt.Errorf("invalid hidden size %d", h)
	}
	if len(a.Kernel) != 4*h || len(a.Recurrent) != h*4*h || len(a.Bias) != 4*h || len(a.DenseW) != h {
		return nil, fmt.Errorf("weight shapes do not match hidden size %d", h)
	}

	m := &LSTM{
		window: a.WindowSize,
		hidden: h,
		kernel: a.Kernel,
		recur:  a.Recurrent,
		bias:   a.Bias,
		denseW: a.DenseW,
		denseB: a.DenseB,
	}

	// Warm-up inference.
	if _, err := m.Predict(context.Background(), make([]float64, m.window)); err != nil {
		return nil, fmt.Errorf("warm-up inference: %w", err)
	}
	m.ready = true

	if l != nil {
		l.Info("lstm model loaded",
			applogger.String("loss", a.Training.Loss),
			applogger.Int("window", m.window),
			applogger.Int("hidden", h),
		)
	}
	return m, nil
}

// WindowSize returns the fixed model window length.
func (m *LSTM) WindowSize() int { return m.window }

// Ready reports whether the model loaded and warmed up.
func (m *LSTM) Ready() bool { return m.ready }

// Predict runs the forward pass over one scaled window and returns the next
// scaled value.
func (m *LSTM) Predict(_ context.Context, window []float64) (float64, error) {
	if len(window) != m.window {
		return 0, fmt.Errorf("window length %d, want %d", len(window), m.window)
	}

	h := m.hidden
	hs := make([]float64, h)
	cs := make([]float64, h)
	gates := make([]float64, 4*h)

	for _, x := range window {
		// z = x*W + h*U + b, gate order i,f,g,o
		for j := 0; j < 4*h; j++ {
			gates[j] = x*m.kernel[j] + m.bias[j]
		}
		for k := 0; k < h; k++ {
			hk := hs[k]
			if hk == 0 {
				continue
			}
			row := m.recur[k*4*h : (k+1)*4*h]
			for j := 0; j < 4*h; j++ {
				gates[j] += hk * row[j]
			}
		}
		for k := 0; k < h; k++ {
			i := sigmoid(gates[k])
			f := sigmoid(gates[h+k])
			g := math.Tanh(gates[2*h+k])
			o := sigmoid(gates[3*h+k])
			cs[k] = f*cs[k] + i*g
			hs[k] = o * math.Tanh(cs[k])
		}
	}

	out := m.denseB
	for k := 0; k < h; k++ {
		out += m.denseW[k] * hs[k]
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("non-finite model output")
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

var _ domrepo.SequencePredictor = (*LSTM)(nil)
