package model

import "encoding/json"

// TypedEventRecord is the JSON representation used for aggregation.
type TypedEventRecord struct {
	ChainID   uint64          `json:"chain_id"`
	Pool      string          `json:"pool"`
	Address   string          `json:"address"`
	Seq       uint64          `json:"seq"`
	EventName string          `json:"event_name"`
	Timestamp uint64          `json:"timestamp"`
	Decoded   json.RawMessage `json:"decoded"`
	Raw       *RawLogRef      `json:"raw,omitempty"`
}
