package smartyield

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event is a decoded SmartYield pool event. Fields that an event does not
// carry are nil.
type Event struct {
	Name      string
	Pool      common.Address
	Account   common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
	Fee       *big.Int
	BondID    *big.Int
	TermDays  uint64
}

// Decoder decodes SmartYield pool logs.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[common.Hash]string
}

// NewDecoder builds a Decoder for the pool events.
func NewDecoder() (*Decoder, error) {
	poolABI, err := SmartYieldABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[common.Hash]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[event.ID] = name
	}
	return &Decoder{poolABI: poolABI, topicToName: topicToName}, nil
}

// Topics returns the topic0 hashes the decoder understands.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.topicToName))
	for _, name := range []string{"BuyTokens", "SellTokens", "BuySeniorBond", "RedeemSeniorBond"} {
		topics = append(topics, d.poolABI.Events[name].ID)
	}
	return topics
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.topicToName[topic0]
	return ok
}

// Decode converts a pool log into an Event.
func (d *Decoder) Decode(log types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return Event{}, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[log.Topics[0]]
	if !ok {
		return Event{}, fmt.Errorf("unsupported topic0: %s", log.Topics[0].Hex())
	}

	switch name {
	case "BuyTokens":
		return d.decodeTrade(log, name, "buyer", "underlyingIn", "tokensOut", "fee")
	case "SellTokens":
		return d.decodeTrade(log, name, "seller", "tokensIn", "underlyingOut", "forfeits")
	case "BuySeniorBond":
		return d.decodeBuyBond(log)
	case "RedeemSeniorBond":
		return d.decodeRedeemBond(log)
	default:
		return Event{}, fmt.Errorf("unsupported event name: %s", name)
	}
}

// FindEvent decodes the first log in receipt emitted by pool with the given
// event name.
func (d *Decoder) FindEvent(receipt *types.Receipt, pool common.Address, name string) (Event, error) {
	event, ok := d.poolABI.Events[name]
	if !ok {
		return Event{}, fmt.Errorf("unknown event %s", name)
	}
	for _, log := range receipt.Logs {
		if log == nil || log.Address != pool || len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		return d.Decode(*log)
	}
	return Event{}, fmt.Errorf("no %s event from %s in tx %s", name, pool.Hex(), receipt.TxHash.Hex())
}

func (d *Decoder) decodeTrade(log types.Log, name string, accountField string, inField string, outField string, feeField string) (Event, error) {
	event := d.poolABI.Events[name]

	indexed := make(map[string]interface{})
	if err := parseIndexed(event, log.Topics, indexed); err != nil {
		return Event{}, err
	}
	values := make(map[string]interface{})
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return Event{}, fmt.Errorf("unpack %s: %w", name, err)
	}

	account, err := asAddress(indexed[accountField])
	if err != nil {
		return Event{}, err
	}
	in, err := asBigInt(values[inField])
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", inField, err)
	}
	out, err := asBigInt(values[outField])
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", outField, err)
	}
	fee, err := asBigInt(values[feeField])
	if err != nil {
		return Event{}, fmt.Errorf("%s: %w", feeField, err)
	}

	return Event{
		Name:      name,
		Pool:      log.Address,
		Account:   account,
		AmountIn:  in,
		AmountOut: out,
		Fee:       fee,
	}, nil
}

func (d *Decoder) decodeBuyBond(log types.Log) (Event, error) {
	event := d.poolABI.Events["BuySeniorBond"]

	indexed := make(map[string]interface{})
	if err := parseIndexed(event, log.Topics, indexed); err != nil {
		return Event{}, err
	}
	values := make(map[string]interface{})
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return Event{}, fmt.Errorf("unpack BuySeniorBond: %w", err)
	}

	buyer, err := asAddress(indexed["buyer"])
	if err != nil {
		return Event{}, err
	}
	bondID, err := asBigInt(indexed["seniorBondId"])
	if err != nil {
		return Event{}, fmt.Errorf("seniorBondId: %w", err)
	}
	principal, err := asBigInt(values["underlyingIn"])
	if err != nil {
		return Event{}, fmt.Errorf("underlyingIn: %w", err)
	}
	gain, err := asBigInt(values["gain"])
	if err != nil {
		return Event{}, fmt.Errorf("gain: %w", err)
	}
	forDays, err := asBigInt(values["forDays"])
	if err != nil {
		return Event{}, fmt.Errorf("forDays: %w", err)
	}
	if !forDays.IsUint64() {
		return Event{}, fmt.Errorf("forDays overflow: %s", forDays)
	}

	return Event{
		Name:      "BuySeniorBond",
		Pool:      log.Address,
		Account:   buyer,
		AmountIn:  principal,
		AmountOut: new(big.Int).Add(principal, gain),
		BondID:    bondID,
		TermDays:  forDays.Uint64(),
	}, nil
}

func (d *Decoder) decodeRedeemBond(log types.Log) (Event, error) {
	event := d.poolABI.Events["RedeemSeniorBond"]

	indexed := make(map[string]interface{})
	if err := parseIndexed(event, log.Topics, indexed); err != nil {
		return Event{}, err
	}
	values := make(map[string]interface{})
	if err := event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return Event{}, fmt.Errorf("unpack RedeemSeniorBond: %w", err)
	}

	owner, err := asAddress(indexed["owner"])
	if err != nil {
		return Event{}, err
	}
	bondID, err := asBigInt(indexed["seniorBondId"])
	if err != nil {
		return Event{}, fmt.Errorf("seniorBondId: %w", err)
	}
	fee, err := asBigInt(values["fee"])
	if err != nil {
		return Event{}, fmt.Errorf("fee: %w", err)
	}

	return Event{
		Name:    "RedeemSeniorBond",
		Pool:    log.Address,
		Account: owner,
		Fee:     fee,
		BondID:  bondID,
	}, nil
}

func parseIndexed(event abi.Event, topics []common.Hash, out map[string]interface{}) error {
	indexedArgs := indexedArguments(event.Inputs)
	if len(topics) != len(indexedArgs)+1 {
		return fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(topics))
	}
	if err := abi.ParseTopicsIntoMap(out, indexedArgs, topics[1:]); err != nil {
		return fmt.Errorf("parse topics: %w", err)
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
