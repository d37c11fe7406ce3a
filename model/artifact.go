package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

var errUnknownArchitecture = errors.New("unknown model architecture")

// Artifact is the persisted form of a trained model.
type Artifact struct {
	Architecture string    `cbor:"architecture"`
	Config       Config    `cbor:"config"`
	Weights      WeightSet `cbor:"weights"`
	SavedAt      time.Time `cbor:"saved_at"`
}

func MarshalArtifact(a *Autoencoder) ([]byte, error) {
	art := Artifact{
		Architecture: Architecture,
		Config:       a.Config(),
		Weights:      a.Weights(),
		SavedAt:      time.Now().UTC(),
	}

	data, err := cbor.Marshal(art)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model artifact: %w", err)
	}

	return data, nil
}

func UnmarshalArtifact(data []byte) (*Autoencoder, error) {
	var art Artifact
	if err := cbor.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if art.Architecture != Architecture {
		return nil, fmt.Errorf("%w: %q", errUnknownArchitecture, art.Architecture)
	}

	m, err := NewAutoencoder(art.Config)
	if err != nil {
		return nil, err
	}
	if err := m.SetWeights(art.Weights); err != nil {
		return nil, err
	}

	return m, nil
}
