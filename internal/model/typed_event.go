package model

// TypedEvent is a decoded pool event enriched with its journal position.
type TypedEvent struct {
	ChainID   uint64      `json:"chain_id"`
	Pool      string      `json:"pool"`
	Address   string      `json:"address"`
	Seq       uint64      `json:"seq"`
	EventName string      `json:"event_name"`
	Timestamp uint64      `json:"timestamp"`
	Decoded   interface{} `json:"decoded"`
	Raw       *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
