package fl

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/snappy"
)

// Codec encodes protocol messages as CBOR, optionally snappy-compressed.
// Both peers must agree on compression.
type Codec struct {
	Compress bool
}

func (c Codec) EncodeInstruction(in Instruction) ([]byte, error) {
	return c.encode(in)
}

func (c Codec) DecodeInstruction(data []byte) (Instruction, error) {
	var in Instruction
	if err := c.decode(data, &in); err != nil {
		return Instruction{}, err
	}
	if err := in.Validate(); err != nil {
		return Instruction{}, err
	}

	return in, nil
}

func (c Codec) EncodeReply(r Reply) ([]byte, error) {
	return c.encode(r)
}

func (c Codec) DecodeReply(data []byte) (Reply, error) {
	var r Reply
	if err := c.decode(data, &r); err != nil {
		return Reply{}, err
	}

	return r, nil
}

func (c Codec) encode(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errEncode, err)
	}
	if c.Compress {
		data = snappy.Encode(nil, data)
	}

	return data, nil
}

func (c Codec) decode(data []byte, v any) error {
	if c.Compress {
		raw, err := snappy.Decode(nil, data)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		data = raw
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return nil
}

// Validate rejects unknown kinds and round instructions without weights.
func (in Instruction) Validate() error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInstruction, in.Kind)
	}
	if (in.Kind == Fit || in.Kind == Evaluate) && len(in.Weights) == 0 {
		return fmt.Errorf("%w: %s without weights", ErrInvalidInstruction, in.Kind)
	}

	return nil
}
