package fl

import (
	"time"

	"github.com/absmach/flclient/model"
)

// MAPEKey is the metric name carried by evaluation replies.
const MAPEKey = "mape"

type InstructionKind string

const (
	GetParameters InstructionKind = "get_parameters"
	Fit           InstructionKind = "fit"
	Evaluate      InstructionKind = "evaluate"
	Shutdown      InstructionKind = "shutdown"
)

func (k InstructionKind) Valid() bool {
	switch k {
	case GetParameters, Fit, Evaluate, Shutdown:
		return true
	default:
		return false
	}
}

// Instruction is a server-to-client message.
type Instruction struct {
	Kind    InstructionKind `cbor:"kind"`
	Round   uint64          `cbor:"round"`
	Weights model.WeightSet `cbor:"weights,omitempty"`
	Config  map[string]any  `cbor:"config,omitempty"`
}

// Reply is a client-to-server message answering one instruction.
type Reply struct {
	Kind       InstructionKind    `cbor:"kind"`
	Round      uint64             `cbor:"round"`
	ClientID   string             `cbor:"client_id"`
	Weights    model.WeightSet    `cbor:"weights,omitempty"`
	Loss       float64            `cbor:"loss"`
	NumSamples int                `cbor:"num_samples"`
	Metrics    map[string]float64 `cbor:"metrics"`
}

type FitIns struct {
	Round   uint64
	Weights model.WeightSet
	Config  map[string]any
}

type FitRes struct {
	Weights    model.WeightSet
	NumSamples int
	Metrics    map[string]float64
}

type EvaluateIns struct {
	Round   uint64
	Weights model.WeightSet
	Config  map[string]any
}

type EvaluateRes struct {
	Loss       float64
	NumSamples int
	Metrics    map[string]float64
}

func (in Instruction) FitIns() FitIns {
	return FitIns{Round: in.Round, Weights: in.Weights, Config: in.Config}
}

func (in Instruction) EvaluateIns() EvaluateIns {
	return EvaluateIns{Round: in.Round, Weights: in.Weights, Config: in.Config}
}

func ParametersReply(clientID string, round uint64, ws model.WeightSet) Reply {
	return Reply{
		Kind:     GetParameters,
		Round:    round,
		ClientID: clientID,
		Weights:  ws,
		Metrics:  map[string]float64{},
	}
}

func FitReply(clientID string, round uint64, res FitRes) Reply {
	return Reply{
		Kind:       Fit,
		Round:      round,
		ClientID:   clientID,
		Weights:    res.Weights,
		NumSamples: res.NumSamples,
		Metrics:    res.Metrics,
	}
}

func EvaluateReply(clientID string, round uint64, res EvaluateRes) Reply {
	return Reply{
		Kind:       Evaluate,
		Round:      round,
		ClientID:   clientID,
		Loss:       res.Loss,
		NumSamples: res.NumSamples,
		Metrics:    res.Metrics,
	}
}

// RoundRecord is the journal entry of one completed round.
type RoundRecord struct {
	ClientID    string             `json:"client_id"`
	Round       uint64             `json:"round"`
	Kind        InstructionKind    `json:"kind"`
	NumSamples  int                `json:"num_samples"`
	Loss        *float64           `json:"loss,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Duration    time.Duration      `json:"duration"`
	CompletedAt time.Time          `json:"completed_at"`
}

type RoundPage struct {
	Offset uint64        `json:"offset"`
	Limit  uint64        `json:"limit"`
	Total  uint64        `json:"total"`
	Rounds []RoundRecord `json:"rounds"`
}
