package model

// ActionRecord is the published outcome of one action inside a cast.
// The JSON field names are consumed by downstream indexers and must stay stable.
type ActionRecord struct {
	CastID      string     `json:"cast_id"`
	ActionIndex int        `json:"action_index"`
	Kind        ActionKind `json:"kind"`
	EventName   string     `json:"event_name"`
	Account     string     `json:"account"`
	Asset       string     `json:"asset"`
	Pool        string     `json:"pool"`
	AmountIn    string     `json:"amount_in"`
	AmountOut   string     `json:"amount_out"`
	MinOutput   string     `json:"min_output"`
	Deadline    uint64     `json:"deadline"`
	BondID      string     `json:"bond_id,omitempty"`
	TermDays    uint16     `json:"term_days,omitempty"`
	ReadSlot    uint64     `json:"read_slot"`
	WriteSlot   uint64     `json:"write_slot"`
	EventParam  string     `json:"event_param"`
	ExecutedAt  uint64     `json:"executed_at"`
}
