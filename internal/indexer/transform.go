package indexer

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"yieldConnector/internal/model"
	"yieldConnector/internal/smartyield"
)

func buildPoolEventRecord(chainID uint64, log types.Log, event smartyield.Event, timestamp uint64, ingestedAt time.Time) model.PoolEventRecord {
	return model.PoolEventRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Pool:        log.Address.Hex(),
		EventName:   event.Name,
		Account:     event.Account.Hex(),
		AmountIn:    bigString(event.AmountIn),
		AmountOut:   bigString(event.AmountOut),
		Fee:         bigString(event.Fee),
		BondID:      bigString(event.BondID),
		TermDays:    event.TermDays,
		Removed:     log.Removed,
		Timestamp:   timestamp,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}
}

func bigString(value *big.Int) string {
	if value == nil {
		return ""
	}
	return value.String()
}
