package model

// CastFailure records an aborted cast.
type CastFailure struct {
	CastID      string `json:"cast_id"`
	Account     string `json:"account"`
	ActionIndex int    `json:"action_index"`
	Method      string `json:"method"`
	Kind        string `json:"kind"`
	Error       string `json:"error"`
	FailedAt    string `json:"failed_at"`
}
