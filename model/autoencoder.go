package model

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
)

const (
	Architecture = "dense-autoencoder"

	DefaultHiddenUnits  = 32
	DefaultLearningRate = 1e-3
	DefaultSeed         = 42

	mapeEpsilon = 1e-7
)

// Tensor order within the weight set.
const (
	encoderKernel = iota
	encoderBias
	decoderKernel
	decoderBias
)

type Config struct {
	WindowSize   int     `toml:"window_size"   env:"WINDOW_SIZE"   envDefault:"20"`
	HiddenUnits  int     `toml:"hidden_units"  env:"HIDDEN_UNITS"  envDefault:"32"`
	LearningRate float64 `toml:"learning_rate" env:"LEARNING_RATE" envDefault:"0.001"`
	Seed         uint64  `toml:"seed"          env:"SEED"          envDefault:"42"`
}

func (c Config) Validate() error {
	switch {
	case c.WindowSize <= 0:
		return fmt.Errorf("%w: window size must be positive", ErrInvalidConfig)
	case c.HiddenUnits <= 0:
		return fmt.Errorf("%w: hidden units must be positive", ErrInvalidConfig)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidConfig)
	}

	return nil
}

var _ Model = (*Autoencoder)(nil)

// Autoencoder maps a window through a tanh bottleneck back to window length.
// Every decoder output is scored against the value that follows the window.
type Autoencoder struct {
	mu      sync.Mutex
	cfg     Config
	weights WeightSet
	opt     *adam
	rng     *rand.Rand
}

func NewAutoencoder(cfg Config) (*Autoencoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	l, h := cfg.WindowSize, cfg.HiddenUnits

	ws := WeightSet{
		glorot(rng, l, h),
		NewTensor(h),
		glorot(rng, h, l),
		NewTensor(l),
	}

	return &Autoencoder{
		cfg:     cfg,
		weights: ws,
		opt:     newAdam(ws, cfg.LearningRate),
		rng:     rng,
	}, nil
}

func glorot(rng *rand.Rand, fanIn, fanOut int) Tensor {
	t := NewTensor(fanIn, fanOut)
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range t.Values {
		t.Values[i] = (rng.Float64()*2 - 1) * limit
	}

	return t
}

func (a *Autoencoder) Config() Config {
	return a.cfg
}

func (a *Autoencoder) Weights() WeightSet {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.weights.Clone()
}

func (a *Autoencoder) SetWeights(ws WeightSet) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(ws) != len(a.weights) {
		return fmt.Errorf("%w: expected %d tensors, got %d", ErrShapeMismatch, len(a.weights), len(ws))
	}
	for i, t := range ws {
		want := a.weights[i]
		if !slices.Equal(t.Shape, want.Shape) || len(t.Values) != len(want.Values) {
			return fmt.Errorf("%w: tensor %d has shape %v, expected %v", ErrShapeMismatch, i, t.Shape, want.Shape)
		}
	}
	a.weights = ws.Clone()

	return nil
}

func (a *Autoencoder) Fit(ctx context.Context, x [][]float64, y []float64, cfg FitConfig) (History, error) {
	if err := cfg.Validate(); err != nil {
		return History{}, err
	}
	if err := a.checkInputs(x, y); err != nil {
		return History{}, err
	}
	if len(x) == 0 {
		return History{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Validation takes the trailing samples before shuffling.
	splitAt := int(float64(len(x)) * (1 - cfg.ValidationSplit))
	if splitAt == 0 {
		splitAt = len(x)
	}
	trainIdx := make([]int, splitAt)
	for i := range trainIdx {
		trainIdx[i] = i
	}
	xVal, yVal := x[splitAt:], y[splitAt:]

	grads := make(WeightSet, len(a.weights))
	for i, t := range a.weights {
		grads[i] = NewTensor(t.Shape...)
	}
	s := newScratch(a.cfg)

	history := History{Epochs: make([]EpochStats, 0, cfg.Epochs)}
	for epoch := range cfg.Epochs {
		a.rng.Shuffle(len(trainIdx), func(i, j int) {
			trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
		})

		var lossSum, mapeSum float64
		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return history, err
			}

			batch := trainIdx[start:min(start+cfg.BatchSize, len(trainIdx))]
			for _, g := range grads {
				clear(g.Values)
			}
			for _, i := range batch {
				loss, mape := a.backward(s, x[i], y[i], grads, float64(len(batch)))
				lossSum += loss
				mapeSum += mape
			}
			a.opt.step(a.weights, grads)
		}

		stats := EpochStats{
			Epoch: epoch + 1,
			Loss:  lossSum / float64(len(trainIdx)),
			MAPE:  mapeSum / float64(len(trainIdx)),
		}
		if !finite(stats.Loss) {
			return history, fmt.Errorf("%w: epoch %d loss is %v", ErrTrainingDivergence, epoch+1, stats.Loss)
		}
		if len(xVal) > 0 {
			ev := a.evaluate(s, xVal, yVal)
			if !finite(ev.Loss) {
				return history, fmt.Errorf("%w: epoch %d validation loss is %v", ErrTrainingDivergence, epoch+1, ev.Loss)
			}
			stats.ValLoss, stats.ValMAPE = &ev.Loss, &ev.MAPE
		}
		history.Epochs = append(history.Epochs, stats)
	}

	return history, nil
}

func (a *Autoencoder) Evaluate(ctx context.Context, x [][]float64, y []float64) (Evaluation, error) {
	if err := a.checkInputs(x, y); err != nil {
		return Evaluation{}, err
	}
	if len(x) == 0 {
		return Evaluation{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ev := a.evaluate(newScratch(a.cfg), x, y)
	if !finite(ev.Loss) {
		return Evaluation{}, fmt.Errorf("%w: evaluation loss is %v", ErrTrainingDivergence, ev.Loss)
	}

	return ev, nil
}

func (a *Autoencoder) checkInputs(x [][]float64, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d samples but %d targets", ErrShapeMismatch, len(x), len(y))
	}
	for i, row := range x {
		if len(row) != a.cfg.WindowSize {
			return fmt.Errorf("%w: sample %d has width %d, expected %d", ErrShapeMismatch, i, len(row), a.cfg.WindowSize)
		}
	}

	return nil
}

type scratch struct {
	hidden []float64
	out    []float64
	dOut   []float64
	dHid   []float64
}

func newScratch(cfg Config) *scratch {
	return &scratch{
		hidden: make([]float64, cfg.HiddenUnits),
		out:    make([]float64, cfg.WindowSize),
		dOut:   make([]float64, cfg.WindowSize),
		dHid:   make([]float64, cfg.HiddenUnits),
	}
}

func (a *Autoencoder) forward(s *scratch, x []float64) {
	l, h := a.cfg.WindowSize, a.cfg.HiddenUnits
	w1, b1 := a.weights[encoderKernel].Values, a.weights[encoderBias].Values
	w2, b2 := a.weights[decoderKernel].Values, a.weights[decoderBias].Values

	for j := range h {
		z := b1[j]
		for i := range l {
			z += x[i] * w1[i*h+j]
		}
		s.hidden[j] = math.Tanh(z)
	}
	for k := range l {
		o := b2[k]
		for j := range h {
			o += s.hidden[j] * w2[j*l+k]
		}
		s.out[k] = o
	}
}

// score returns the mean absolute error and mean absolute percentage error
// of the current outputs against target.
func score(out []float64, target float64) (float64, float64) {
	denom := math.Max(math.Abs(target), mapeEpsilon)
	var mae float64
	for _, o := range out {
		mae += math.Abs(o - target)
	}
	mae /= float64(len(out))

	return mae, 100 * mae / denom
}

// backward accumulates the gradient of the batch-mean loss for one sample.
func (a *Autoencoder) backward(s *scratch, x []float64, target float64, grads WeightSet, batch float64) (float64, float64) {
	a.forward(s, x)
	loss, mape := score(s.out, target)

	l, h := a.cfg.WindowSize, a.cfg.HiddenUnits
	w2 := a.weights[decoderKernel].Values
	gw1, gb1 := grads[encoderKernel].Values, grads[encoderBias].Values
	gw2, gb2 := grads[decoderKernel].Values, grads[decoderBias].Values

	scale := 1 / (float64(l) * batch)
	for k, o := range s.out {
		var g float64
		switch {
		case o > target:
			g = scale
		case o < target:
			g = -scale
		}
		s.dOut[k] = g
		gb2[k] += g
	}
	for j := range h {
		var dh float64
		for k := range l {
			gw2[j*l+k] += s.hidden[j] * s.dOut[k]
			dh += w2[j*l+k] * s.dOut[k]
		}
		s.dHid[j] = dh * (1 - s.hidden[j]*s.hidden[j])
		gb1[j] += s.dHid[j]
	}
	for i := range l {
		for j := range h {
			gw1[i*h+j] += x[i] * s.dHid[j]
		}
	}

	return loss, mape
}

func (a *Autoencoder) evaluate(s *scratch, x [][]float64, y []float64) Evaluation {
	var ev Evaluation
	for i := range x {
		a.forward(s, x[i])
		loss, mape := score(s.out, y[i])
		ev.Loss += loss
		ev.MAPE += mape
	}
	n := float64(len(x))
	ev.Loss /= n
	ev.MAPE /= n

	return ev
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  WeightSet
}

func newAdam(ws WeightSet, lr float64) *adam {
	m := make(WeightSet, len(ws))
	v := make(WeightSet, len(ws))
	for i, t := range ws {
		m[i] = NewTensor(t.Shape...)
		v[i] = NewTensor(t.Shape...)
	}

	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7, m: m, v: v}
}

func (o *adam) step(ws, grads WeightSet) {
	o.t++
	c1 := 1 - math.Pow(o.beta1, float64(o.t))
	c2 := 1 - math.Pow(o.beta2, float64(o.t))
	lr := o.lr * math.Sqrt(c2) / c1

	for i := range ws {
		w, g := ws[i].Values, grads[i].Values
		m, v := o.m[i].Values, o.v[i].Values
		for j := range w {
			m[j] = o.beta1*m[j] + (1-o.beta1)*g[j]
			v[j] = o.beta2*v[j] + (1-o.beta2)*g[j]*g[j]
			w[j] -= lr * m[j] / (math.Sqrt(v[j]) + o.eps)
		}
	}
}
