// Package domain contains the chain-height sync types.
package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// ErrMalformedEvent marks a push payload that could not be decoded into a block.
var ErrMalformedEvent = errors.New("malformed block event")

// Block is the block record carried by a new_block event.
type Block struct {
	Number           uint64          `json:"number"`
	Hash             string          `json:"hash"`
	ParentHash       string          `json:"parent_hash"`
	Timestamp        int64           `json:"timestamp"`
	GasUsed          string          `json:"gas_used"`
	GasLimit         string          `json:"gas_limit"`
	TransactionCount int             `json:"transaction_count"`
	Raw              json.RawMessage `json:"-"`
}

// BlockEvent is one decoded push notification.
type BlockEvent struct {
	Block      Block
	ReceivedAt time.Time
}

// Sample reduces the event to its rate-estimation input.
func (e BlockEvent) Sample() BlockSample {
	return BlockSample{Number: e.Block.Number, Timestamp: e.Block.Timestamp}
}

type blockEnvelope struct {
	Block json.RawMessage `json:"block"`
}

// required fields are pointers so a missing key is distinguishable from zero
type blockFields struct {
	Number           *uint64 `json:"number"`
	Timestamp        *int64  `json:"timestamp"`
	Hash             string  `json:"hash"`
	ParentHash       string  `json:"parent_hash"`
	GasUsed          any     `json:"gas_used"`
	GasLimit         any     `json:"gas_limit"`
	TransactionCount int     `json:"transaction_count"`
}

// ParseBlockEvent decodes {"block": {...}}. Number and timestamp are required;
// everything else is best effort.
func ParseBlockEvent(data []byte, receivedAt time.Time) (BlockEvent, error) {
	var env blockEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BlockEvent{}, errors.Join(ErrMalformedEvent, err)
	}
	if len(env.Block) == 0 || string(env.Block) == "null" {
		return BlockEvent{}, errors.Join(ErrMalformedEvent, errors.New("missing block"))
	}

	var f blockFields
	if err := json.Unmarshal(env.Block, &f); err != nil {
		return BlockEvent{}, errors.Join(ErrMalformedEvent, err)
	}
	if f.Number == nil || f.Timestamp == nil {
		return BlockEvent{}, errors.Join(ErrMalformedEvent, errors.New("missing number or timestamp"))
	}

	return BlockEvent{
		Block: Block{
			Number:           *f.Number,
			Hash:             f.Hash,
			ParentHash:       f.ParentHash,
			Timestamp:        *f.Timestamp,
			GasUsed:          quantity(f.GasUsed),
			GasLimit:         quantity(f.GasLimit),
			TransactionCount: f.TransactionCount,
			Raw:              env.Block,
		},
		ReceivedAt: receivedAt,
	}, nil
}

// quantity renders gas fields that arrive either as JSON numbers or strings.
func quantity(v any) string {
	switch q := v.(type) {
	case string:
		return q
	case float64:
		return strconv.FormatFloat(q, 'f', -1, 64)
	default:
		return ""
	}
}
