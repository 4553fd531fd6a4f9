// Package tensor provides the packed numeric buffers handed to a trainable
// model. Buffers come from a shared pool and must be released by their owner.
package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"PriceOracle/internal/model"
)

var (
	pool sync.Pool
	live atomic.Int64
)

func acquire(n int) []float64 {
	live.Add(1)
	if p, ok := pool.Get().(*[]float64); ok && cap(*p) >= n {
		buf := (*p)[:n]
		clear(buf)
		return buf
	}
	return make([]float64, n)
}

func release(buf []float64) {
	live.Add(-1)
	buf = buf[:0]
	pool.Put(&buf)
}

// Live reports how many acquired buffers have not yet been released.
func Live() int64 { return live.Load() }

// Tensor3 is a dense rank-3 buffer laid out as sample x step x feature.
type Tensor3 struct {
	data     []float64
	samples  int
	steps    int
	features int
	released bool
}

// NewTensor3 acquires a zeroed rank-3 buffer.
func NewTensor3(samples, steps, features int) (*Tensor3, error) {
	if samples <= 0 || steps <= 0 || features <= 0 {
		return nil, fmt.Errorf("invalid tensor shape [%d %d %d]", samples, steps, features)
	}
	return &Tensor3{
		data:     acquire(samples * steps * features),
		samples:  samples,
		steps:    steps,
		features: features,
	}, nil
}

// Shape returns the buffer dimensions.
func (t *Tensor3) Shape() (samples, steps, features int) {
	return t.samples, t.steps, t.features
}

func (t *Tensor3) offset(i, j, k int) int {
	return (i*t.steps+j)*t.features + k
}

func (t *Tensor3) Set(i, j, k int, v float64) { t.data[t.offset(i, j, k)] = v }

func (t *Tensor3) At(i, j, k int) float64 { return t.data[t.offset(i, j, k)] }

// Sample returns the flattened step x feature window of sample i. The slice
// aliases the buffer and is invalid after Release.
func (t *Tensor3) Sample(i int) []float64 {
	size := t.steps * t.features
	return t.data[i*size : (i+1)*size : (i+1)*size]
}

// Release returns the buffer to the pool. Calling it more than once is a no-op.
func (t *Tensor3) Release() {
	if t == nil || t.released {
		return
	}
	t.released = true
	release(t.data)
	t.data = nil
}

// Vector is a dense rank-1 buffer.
type Vector struct {
	data     []float64
	released bool
}

// NewVector acquires a zeroed rank-1 buffer.
func NewVector(n int) (*Vector, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid vector length %d", n)
	}
	return &Vector{data: acquire(n)}, nil
}

func (v *Vector) Len() int { return len(v.data) }

func (v *Vector) Set(i int, x float64) { v.data[i] = x }

func (v *Vector) At(i int) float64 { return v.data[i] }

// Release returns the buffer to the pool. Calling it more than once is a no-op.
func (v *Vector) Release() {
	if v == nil || v.released {
		return
	}
	v.released = true
	release(v.data)
	v.data = nil
}

// PackSamples copies sample windows and labels into parallel buffers in input
// order. On error nothing is left acquired.
func PackSamples(samples []model.Sample, steps, features int) (*Tensor3, *Vector, error) {
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("no samples to pack")
	}
	xs, err := NewTensor3(len(samples), steps, features)
	if err != nil {
		return nil, nil, err
	}
	ys, err := NewVector(len(samples))
	if err != nil {
		xs.Release()
		return nil, nil, err
	}
	for i, s := range samples {
		if err := fill(xs, i, s.Window); err != nil {
			xs.Release()
			ys.Release()
			return nil, nil, fmt.Errorf("sample %d: %w", i, err)
		}
		ys.Set(i, s.Label)
	}
	return xs, ys, nil
}

// PackWindow copies a single window into a 1 x steps x features buffer.
func PackWindow(window []model.FeatureVector, steps, features int) (*Tensor3, error) {
	xs, err := NewTensor3(1, steps, features)
	if err != nil {
		return nil, err
	}
	if err := fill(xs, 0, window); err != nil {
		xs.Release()
		return nil, err
	}
	return xs, nil
}

func fill(xs *Tensor3, i int, window []model.FeatureVector) error {
	if len(window) != xs.steps {
		return fmt.Errorf("window has %d steps, expected %d", len(window), xs.steps)
	}
	if xs.features != model.FeatureCount {
		return fmt.Errorf("tensor has %d features, vectors carry %d", xs.features, model.FeatureCount)
	}
	for j, day := range window {
		for k, v := range day.Values() {
			xs.Set(i, j, k, v)
		}
	}
	return nil
}
