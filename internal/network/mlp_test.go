package network

import (
	"context"
	"errors"
	"math"
	"testing"

	"PriceOracle/internal/model"
	"PriceOracle/internal/tensor"
	"PriceOracle/internal/trainer"
)

func arch() trainer.ArchConfig {
	return trainer.ArchConfig{Layers: []int{16, 8}, Dropout: 0.2, LearningRate: 0.01, Seed: 7}
}

// trend builds windows whose label is the next step of a linear ramp.
func trend(n, steps int) []model.Sample {
	out := make([]model.Sample, n)
	for i := range out {
		w := make([]model.FeatureVector, steps)
		start := float64(i) / float64(n+steps)
		for j := range w {
			v := start + float64(j)/float64(n+steps)
			w[j] = model.FeatureVector{Price: v, Volume: 0.5, SMA: v, RSI: 0.5, Sentiment: 0.575}
		}
		out[i] = model.Sample{Window: w, Label: start + float64(steps)/float64(n+steps)}
	}
	return out
}

func TestMLP_LossDecreases(t *testing.T) {
	m, err := New(arch(), 5, model.FeatureCount)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer m.Close()

	xs, ys, err := tensor.PackSamples(trend(40, 5), 5, model.FeatureCount)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	defer xs.Release()
	defer ys.Release()

	var losses []float64
	err = m.Fit(context.Background(), xs, ys, trainer.FitOptions{
		Epochs:    60,
		BatchSize: 8,
		OnEpochEnd: func(epoch int, loss float64) bool {
			losses = append(losses, loss)
			return true
		},
	})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(losses) != 60 {
		t.Fatalf("expected 60 epoch callbacks, got %d", len(losses))
	}
	if losses[len(losses)-1] >= losses[0] {
		t.Errorf("loss did not decrease: first %v last %v", losses[0], losses[len(losses)-1])
	}

	out, err := m.Predict(xs)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(out) != 40 {
		t.Fatalf("expected 40 predictions, got %d", len(out))
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite prediction %v", v)
		}
	}
}

func TestMLP_Deterministic(t *testing.T) {
	predict := func() float64 {
		m, err := New(arch(), 5, model.FeatureCount)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		defer m.Close()
		xs, ys, _ := tensor.PackSamples(trend(10, 5), 5, model.FeatureCount)
		defer xs.Release()
		defer ys.Release()
		if err := m.Fit(context.Background(), xs, ys, trainer.FitOptions{Epochs: 5, BatchSize: 4}); err != nil {
			t.Fatalf("fit: %v", err)
		}
		out, err := m.Predict(xs)
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		return out[0]
	}
	if a, b := predict(), predict(); a != b {
		t.Errorf("same seed produced %v and %v", a, b)
	}
}

func TestMLP_StopsWhenAsked(t *testing.T) {
	m, _ := New(arch(), 5, model.FeatureCount)
	defer m.Close()
	xs, ys, _ := tensor.PackSamples(trend(10, 5), 5, model.FeatureCount)
	defer xs.Release()
	defer ys.Release()

	calls := 0
	err := m.Fit(context.Background(), xs, ys, trainer.FitOptions{
		Epochs:     20,
		BatchSize:  32,
		OnEpochEnd: func(int, float64) bool { calls++; return calls < 3 },
	})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 epochs, got %d", calls)
	}
}

func TestMLP_ShapeMismatch(t *testing.T) {
	m, _ := New(arch(), 5, model.FeatureCount)
	defer m.Close()
	xs, _ := tensor.PackWindow(trend(1, 4)[0].Window, 4, model.FeatureCount)
	defer xs.Release()
	if _, err := m.Predict(xs); err == nil {
		t.Error("expected shape error")
	}
}

func TestMLP_Closed(t *testing.T) {
	m, _ := New(arch(), 5, model.FeatureCount)
	m.Close()
	xs, _ := tensor.PackWindow(trend(1, 5)[0].Window, 5, model.FeatureCount)
	defer xs.Release()
	if _, err := m.Predict(xs); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	bad := []trainer.ArchConfig{
		{Layers: nil, LearningRate: 0.001},
		{Layers: []int{8}, Dropout: 1, LearningRate: 0.001},
		{Layers: []int{8}, LearningRate: 0},
		{Layers: []int{0}, LearningRate: 0.001},
	}
	for i, cfg := range bad {
		if _, err := New(cfg, 5, model.FeatureCount); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestTrainAndPredictThroughTrainer(t *testing.T) {
	m, err := Factory(arch(), 5, model.FeatureCount)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	defer m.Close()
	samples := trend(30, 5)
	out, err := trainer.Train(context.Background(), m, samples, 5, model.FeatureCount,
		trainer.TrainConfig{Epochs: 10, BatchSize: 8}, nil)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if out.EpochsRun != 10 {
		t.Errorf("expected 10 epochs, got %d", out.EpochsRun)
	}
	price, err := trainer.PredictNext(m, samples[len(samples)-1].Window, 5, model.FeatureCount, model.Bounds{Min: 100, Max: 200})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.IsNaN(price) {
		t.Error("prediction is NaN")
	}
}
