// Package network implements a small feed-forward regressor that satisfies
// trainer.Model. A window is flattened into a single input vector.
package network

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"PriceOracle/internal/tensor"
	"PriceOracle/internal/trainer"
)

// ErrClosed is returned by every call on a closed model.
var ErrClosed = errors.New("model is closed")

const (
	beta1   = 0.9
	beta2   = 0.999
	epsilon = 1e-7
)

type layer struct {
	in, out int
	w, b    []float64
	// Adam moments
	mw, vw, mb, vb []float64
	// gradient accumulators for the current batch
	gw, gb []float64
}

func newLayer(in, out int, rng *rand.Rand) *layer {
	l := &layer{
		in: in, out: out,
		w: make([]float64, in*out), b: make([]float64, out),
		mw: make([]float64, in*out), vw: make([]float64, in*out),
		mb: make([]float64, out), vb: make([]float64, out),
		gw: make([]float64, in*out), gb: make([]float64, out),
	}
	// Glorot uniform
	limit := math.Sqrt(6 / float64(in+out))
	for i := range l.w {
		l.w[i] = (rng.Float64()*2 - 1) * limit
	}
	return l
}

func (l *layer) forward(x, z []float64) {
	for j := 0; j < l.out; j++ {
		sum := l.b[j]
		row := l.w[j*l.in : (j+1)*l.in]
		for i, v := range x {
			sum += row[i] * v
		}
		z[j] = sum
	}
}

// MLP is a dense tanh network with a linear output unit, trained with Adam on
// mean squared error.
type MLP struct {
	steps, features int
	layers          []*layer
	dropout         float64
	lr              float64
	rng             *rand.Rand
	step            int
	closed          bool
}

// New builds an untrained network for windows of steps x features.
func New(cfg trainer.ArchConfig, steps, features int) (*MLP, error) {
	if steps <= 0 || features <= 0 {
		return nil, fmt.Errorf("invalid input shape [%d %d]", steps, features)
	}
	if len(cfg.Layers) == 0 {
		return nil, errors.New("at least one hidden layer is required")
	}
	if cfg.Dropout < 0 || cfg.Dropout >= 1 {
		return nil, fmt.Errorf("dropout must be in [0,1), got %v", cfg.Dropout)
	}
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %v", cfg.LearningRate)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	m := &MLP{
		steps:    steps,
		features: features,
		dropout:  cfg.Dropout,
		lr:       cfg.LearningRate,
		rng:      rng,
	}
	in := steps * features
	for _, units := range cfg.Layers {
		if units <= 0 {
			return nil, fmt.Errorf("layer size must be positive, got %d", units)
		}
		m.layers = append(m.layers, newLayer(in, units, rng))
		in = units
	}
	m.layers = append(m.layers, newLayer(in, 1, rng))
	return m, nil
}

// Factory adapts New to trainer.Factory.
func Factory(cfg trainer.ArchConfig, steps, features int) (trainer.Model, error) {
	return New(cfg, steps, features)
}

// pass holds the per-sample activations needed for backpropagation.
type pass struct {
	// acts[0] is the input; acts[l+1] is the output of layer l after dropout.
	acts [][]float64
	// hidden[l] is the tanh output of hidden layer l before dropout.
	hidden [][]float64
	// mask scales the first hidden layer output; nil when dropout is off.
	mask []float64
}

func (m *MLP) newPass() *pass {
	p := &pass{acts: make([][]float64, len(m.layers)+1), hidden: make([][]float64, len(m.layers)-1)}
	for l, ly := range m.layers {
		p.acts[l+1] = make([]float64, ly.out)
		if l < len(m.layers)-1 {
			p.hidden[l] = make([]float64, ly.out)
		}
	}
	if m.dropout > 0 {
		p.mask = make([]float64, m.layers[0].out)
	}
	return p
}

func (m *MLP) forward(p *pass, x []float64, train bool) float64 {
	p.acts[0] = x
	last := len(m.layers) - 1
	for l, ly := range m.layers {
		z := p.acts[l+1]
		ly.forward(p.acts[l], z)
		if l == last {
			break
		}
		for j, v := range z {
			h := math.Tanh(v)
			p.hidden[l][j] = h
			z[j] = h
		}
		if l == 0 && train && p.mask != nil {
			keep := 1 - m.dropout
			for j := range z {
				if m.rng.Float64() < m.dropout {
					p.mask[j] = 0
				} else {
					p.mask[j] = 1 / keep
				}
				z[j] *= p.mask[j]
			}
		}
	}
	return p.acts[last+1][0]
}

func (m *MLP) backward(p *pass, grad float64) {
	delta := []float64{grad}
	for l := len(m.layers) - 1; l >= 0; l-- {
		ly := m.layers[l]
		in := p.acts[l]
		for j, d := range delta {
			ly.gb[j] += d
			row := ly.gw[j*ly.in : (j+1)*ly.in]
			for i, v := range in {
				row[i] += d * v
			}
		}
		if l == 0 {
			return
		}
		prev := make([]float64, ly.in)
		for j, d := range delta {
			row := ly.w[j*ly.in : (j+1)*ly.in]
			for i := range prev {
				prev[i] += row[i] * d
			}
		}
		h := p.hidden[l-1]
		for i := range prev {
			if l-1 == 0 && p.mask != nil {
				prev[i] *= p.mask[i]
			}
			prev[i] *= 1 - h[i]*h[i]
		}
		delta = prev
	}
}

func (m *MLP) apply() {
	m.step++
	c1 := 1 - math.Pow(beta1, float64(m.step))
	c2 := 1 - math.Pow(beta2, float64(m.step))
	update := func(w, g, mo, ve []float64) {
		for i := range w {
			mo[i] = beta1*mo[i] + (1-beta1)*g[i]
			ve[i] = beta2*ve[i] + (1-beta2)*g[i]*g[i]
			w[i] -= m.lr * (mo[i] / c1) / (math.Sqrt(ve[i]/c2) + epsilon)
			g[i] = 0
		}
	}
	for _, ly := range m.layers {
		update(ly.w, ly.gw, ly.mw, ly.vw)
		update(ly.b, ly.gb, ly.mb, ly.vb)
	}
}

func (m *MLP) checkShape(xs *tensor.Tensor3) error {
	_, steps, features := xs.Shape()
	if steps != m.steps || features != m.features {
		return fmt.Errorf("input shape [%d %d] does not match model [%d %d]", steps, features, m.steps, m.features)
	}
	return nil
}

// Fit trains for opts.Epochs epochs over mini-batches taken in input order.
func (m *MLP) Fit(ctx context.Context, xs *tensor.Tensor3, ys *tensor.Vector, opts trainer.FitOptions) error {
	if m.closed {
		return ErrClosed
	}
	if err := m.checkShape(xs); err != nil {
		return err
	}
	n, _, _ := xs.Shape()
	if ys.Len() != n {
		return fmt.Errorf("%d samples but %d labels", n, ys.Len())
	}
	batch := opts.BatchSize
	if batch <= 0 || batch > n {
		batch = n
	}

	p := m.newPass()
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		total := 0.0
		for start := 0; start < n; start += batch {
			end := min(start+batch, n)
			size := float64(end - start)
			for i := start; i < end; i++ {
				diff := m.forward(p, xs.Sample(i), true) - ys.At(i)
				total += diff * diff
				m.backward(p, 2*diff/size)
			}
			m.apply()
		}
		loss := total / float64(n)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return fmt.Errorf("loss diverged at epoch %d", epoch)
		}
		if opts.OnEpochEnd != nil && !opts.OnEpochEnd(epoch, loss) {
			return nil
		}
	}
	return nil
}

// Predict runs inference without dropout.
func (m *MLP) Predict(xs *tensor.Tensor3) ([]float64, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if err := m.checkShape(xs); err != nil {
		return nil, err
	}
	n, _, _ := xs.Shape()
	p := m.newPass()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = m.forward(p, xs.Sample(i), false)
	}
	return out, nil
}

// Close drops the weights. The model cannot be used afterwards.
func (m *MLP) Close() error {
	m.closed = true
	m.layers = nil
	return nil
}
