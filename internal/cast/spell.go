package cast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"yieldConnector/internal/connector"
	"yieldConnector/internal/model"
)

// ErrInvalidSpell marks a spell that cannot be turned into an action.
var ErrInvalidSpell = errors.New("invalid spell")

// Spell is one positional call in a cast.
type Spell struct {
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

// UnmarshalJSON accepts args as JSON strings or bare numbers.
func (s *Spell) UnmarshalJSON(data []byte) error {
	var raw struct {
		Connector string            `json:"connector"`
		Method    string            `json:"method"`
		Args      []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	args := make([]string, 0, len(raw.Args))
	for i, arg := range raw.Args {
		arg = bytes.TrimSpace(arg)
		if len(arg) > 0 && arg[0] == '"' {
			var text string
			if err := json.Unmarshal(arg, &text); err != nil {
				return fmt.Errorf("arg %d: %w", i, err)
			}
			args = append(args, text)
			continue
		}
		var num json.Number
		if err := json.Unmarshal(arg, &num); err != nil {
			return fmt.Errorf("arg %d: expected string or number", i)
		}
		args = append(args, num.String())
	}

	s.Method = raw.Method
	s.Args = args
	return nil
}

// Registry resolves asset and pool names to addresses.
type Registry interface {
	Asset(name string) (common.Address, bool)
	Pool(name string) (common.Address, bool)
}

type methodShape struct {
	kind  model.ActionKind
	arity int
}

var methods = map[string]methodShape{
	"acquirePosition":     {model.ActionAcquirePosition, 7},
	"buyJuniorTokensRaw":  {model.ActionAcquirePosition, 7},
	"liquidatePosition":   {model.ActionLiquidatePosition, 7},
	"sellJuniorTokensRaw": {model.ActionLiquidatePosition, 7},
	"acquireBond":         {model.ActionAcquireBond, 8},
	"buySeniorBond":       {model.ActionAcquireBond, 8},
	"redeemBond":          {model.ActionRedeemBond, 7},
	"redeemSeniorBond":    {model.ActionRedeemBond, 7},
}

// ParseSpell converts positional args into an ActionRequest.
//
//	position actions: asset, pool, amount, minOutput, deadline, readSlot, writeSlot
//	acquire bond:     asset, pool, amount, minOutput, deadline, termDays, readSlot, writeSlot
//	redeem bond:      asset, pool, bondId, minOutput, deadline, readSlot, writeSlot
func ParseSpell(spell Spell, registry Registry) (model.ActionKind, model.ActionRequest, error) {
	shape, ok := methods[spell.Method]
	if !ok {
		return "", model.ActionRequest{}, fmt.Errorf("%w: unknown method %q", ErrInvalidSpell, spell.Method)
	}
	if len(spell.Args) != shape.arity {
		return "", model.ActionRequest{}, fmt.Errorf("%w: %s takes %d args, got %d", ErrInvalidSpell, spell.Method, shape.arity, len(spell.Args))
	}
	args := spell.Args

	asset, err := resolveAddress(args[0], registry, Registry.Asset)
	if err != nil {
		return "", model.ActionRequest{}, fmt.Errorf("%w: asset: %w", ErrInvalidSpell, err)
	}
	pool, err := resolveAddress(args[1], registry, Registry.Pool)
	if err != nil {
		return "", model.ActionRequest{}, fmt.Errorf("%w: pool: %w", ErrInvalidSpell, err)
	}
	amount, err := model.ParseAmountSpec(args[2])
	if err != nil {
		return "", model.ActionRequest{}, fmt.Errorf("%w: amount: %w", connector.ErrInvalidAmount, err)
	}
	minOutput, err := model.ParseQuantity(args[3])
	if err != nil {
		return "", model.ActionRequest{}, fmt.Errorf("%w: min output: %w", connector.ErrInvalidAmount, err)
	}
	deadline, err := parseUint(args[4], 64)
	if err != nil {
		return "", model.ActionRequest{}, fmt.Errorf("%w: deadline: %w", ErrInvalidSpell, err)
	}

	req := model.ActionRequest{
		Asset:     asset,
		Pool:      pool,
		Amount:    amount,
		MinOutput: minOutput,
		Deadline:  deadline,
	}

	slots := args[5:]
	if shape.kind == model.ActionAcquireBond {
		days, err := parseUint(args[5], 16)
		if err != nil {
			return "", model.ActionRequest{}, fmt.Errorf("%w: term days: %w", connector.ErrInvalidAmount, err)
		}
		req.TermDays = uint16(days)
		slots = args[6:]
	}

	if req.ReadSlot, err = parseUint(slots[0], 64); err != nil {
		return "", model.ActionRequest{}, fmt.Errorf("%w: read slot: %w", ErrInvalidSpell, err)
	}
	if req.WriteSlot, err = parseUint(slots[1], 64); err != nil {
		return "", model.ActionRequest{}, fmt.Errorf("%w: write slot: %w", ErrInvalidSpell, err)
	}

	return shape.kind, req, nil
}

// LoadSpells reads a JSON array of spells from path.
func LoadSpells(path string) ([]Spell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spells: %w", err)
	}
	var spells []Spell
	if err := json.Unmarshal(data, &spells); err != nil {
		return nil, fmt.Errorf("parse spells: %w", err)
	}
	return spells, nil
}

func resolveAddress(input string, registry Registry, lookup func(Registry, string) (common.Address, bool)) (common.Address, error) {
	input = strings.TrimSpace(input)
	if common.IsHexAddress(input) {
		return common.HexToAddress(input), nil
	}
	if registry != nil {
		if addr, ok := lookup(registry, input); ok {
			return addr, nil
		}
	}
	return common.Address{}, fmt.Errorf("unknown address or name %q", input)
}

func parseUint(input string, bits int) (uint64, error) {
	value, err := model.ParseQuantity(input)
	if err != nil {
		return 0, err
	}
	if value.BitLen() > bits {
		return 0, fmt.Errorf("%s exceeds uint%d", value, bits)
	}
	return value.Uint64(), nil
}
