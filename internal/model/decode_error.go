package model

// DecodeError records a decode failure for a journal line.
type DecodeError struct {
	ChainID uint64 `json:"chain_id"`
	Pool    string `json:"pool"`
	Seq     uint64 `json:"seq"`
	Address string `json:"address"`
	Topic0  string `json:"topic0"`
	Error   string `json:"error"`
}
