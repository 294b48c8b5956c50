package model

// LogRecord is the normalized, ABI-encoded form of a pool event as it is
// journaled. Seq orders records within one pool.
type LogRecord struct {
	ChainID    uint64   `json:"chain_id"`
	Pool       string   `json:"pool"`
	Address    string   `json:"address"`
	Seq        uint64   `json:"seq"`
	TxHash     string   `json:"tx_hash,omitempty"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	IngestedAt string   `json:"ingested_at"`
}

// Topic0 returns the event signature topic, or "" for anonymous records.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}
