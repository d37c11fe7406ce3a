// Package model defines the local model capability exchanged with the
// aggregation server and a dense encoder-decoder implementation of it.
package model

import (
	"context"
	"errors"
	"fmt"
	"slices"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
)

var (
	ErrShapeMismatch      = fmt.Errorf("%w: weight or input shape mismatch", pkgerrors.ErrInvalidData)
	ErrTrainingDivergence = pkgerrors.ErrTrainingDivergence
	ErrInvalidConfig      = errors.New("invalid model config")
)

// Model is the only surface the federated client sees.
type Model interface {
	// Weights returns a copy of the current weights.
	Weights() WeightSet
	// SetWeights replaces every weight tensor. Partial updates are rejected.
	SetWeights(ws WeightSet) error
	Fit(ctx context.Context, x [][]float64, y []float64, cfg FitConfig) (History, error)
	// Evaluate does not change the weights.
	Evaluate(ctx context.Context, x [][]float64, y []float64) (Evaluation, error)
}

type Tensor struct {
	Shape  []int     `cbor:"shape"  json:"shape"`
	Values []float64 `cbor:"values" json:"values"`
}

func NewTensor(shape ...int) Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return Tensor{Shape: slices.Clone(shape), Values: make([]float64, n)}
}

func (t Tensor) Clone() Tensor {
	return Tensor{Shape: slices.Clone(t.Shape), Values: slices.Clone(t.Values)}
}

// WeightSet is an ordered list of tensors.
type WeightSet []Tensor

func (ws WeightSet) Clone() WeightSet {
	if ws == nil {
		return nil
	}
	out := make(WeightSet, len(ws))
	for i, t := range ws {
		out[i] = t.Clone()
	}

	return out
}

func (ws WeightSet) Equal(other WeightSet) bool {
	return slices.EqualFunc(ws, other, func(a, b Tensor) bool {
		return slices.Equal(a.Shape, b.Shape) && slices.Equal(a.Values, b.Values)
	})
}

// Size returns the total number of scalar parameters.
func (ws WeightSet) Size() int {
	n := 0
	for _, t := range ws {
		n += len(t.Values)
	}

	return n
}

type FitConfig struct {
	Epochs          int     `toml:"epochs"           env:"EPOCHS"           envDefault:"5"`
	BatchSize       int     `toml:"batch_size"       env:"BATCH_SIZE"       envDefault:"100"`
	ValidationSplit float64 `toml:"validation_split" env:"VALIDATION_SPLIT" envDefault:"0.2"`
}

func DefaultFitConfig() FitConfig {
	return FitConfig{
		Epochs:          5,
		BatchSize:       100,
		ValidationSplit: 0.2,
	}
}

func (c FitConfig) Validate() error {
	switch {
	case c.Epochs < 0:
		return fmt.Errorf("%w: epochs must not be negative", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.ValidationSplit < 0 || c.ValidationSplit >= 1:
		return fmt.Errorf("%w: validation split must be in [0, 1)", ErrInvalidConfig)
	}

	return nil
}

type EpochStats struct {
	Epoch   int      `json:"epoch"`
	Loss    float64  `json:"loss"`
	MAPE    float64  `json:"mape"`
	ValLoss *float64 `json:"val_loss,omitempty"`
	ValMAPE *float64 `json:"val_mape,omitempty"`
}

type History struct {
	Epochs []EpochStats `json:"epochs"`
}

// Last returns the stats of the final epoch and false when no epoch ran.
func (h History) Last() (EpochStats, bool) {
	if len(h.Epochs) == 0 {
		return EpochStats{}, false
	}

	return h.Epochs[len(h.Epochs)-1], true
}

type Evaluation struct {
	Loss float64 `json:"loss"`
	MAPE float64 `json:"mape"`
}
