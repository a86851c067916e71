package model

// PoolEventRecord is a decoded SmartYield pool event.
type PoolEventRecord struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Pool        string `json:"pool"`
	EventName   string `json:"event_name"`
	Account     string `json:"account"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	Fee         string `json:"fee,omitempty"`
	BondID      string `json:"bond_id,omitempty"`
	TermDays    uint64 `json:"term_days,omitempty"`
	Removed     bool   `json:"removed"`
	Timestamp   uint64 `json:"timestamp"`
	IngestedAt  string `json:"ingested_at"`
}
