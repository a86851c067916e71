package connector

import "errors"

// Error kinds surfaced by actions. Every failure aborts the enclosing cast.
var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAssetLedger      = errors.New("asset ledger error")
	ErrExternalProtocol = errors.New("external protocol error")
	ErrDeadlineExpired  = errors.New("deadline expired")
	ErrSlippageExceeded = errors.New("slippage exceeded")
	ErrNoChainedValue   = errors.New("no chained value")
)

// KindOf returns the error kind name for err, or "Unknown".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrAssetLedger):
		return "AssetLedgerError"
	case errors.Is(err, ErrExternalProtocol):
		return "ExternalProtocolError"
	case errors.Is(err, ErrDeadlineExpired):
		return "DeadlineExpired"
	case errors.Is(err, ErrSlippageExceeded):
		return "SlippageExceeded"
	case errors.Is(err, ErrNoChainedValue):
		return "NoChainedValue"
	default:
		return "Unknown"
	}
}
