package cast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"yieldConnector/internal/connector"
	"yieldConnector/internal/model"
)

// Journal captures and restores backend state so a cast applies atomically.
type Journal interface {
	Snapshot(ctx context.Context) (string, error)
	Revert(ctx context.Context, id string) error
}

// Locker serializes casts per account.
type Locker interface {
	Lock(ctx context.Context, account common.Address) (func(), error)
}

// Sink receives records of committed and failed casts.
type Sink interface {
	PutActionBatch(ctx context.Context, records []model.ActionRecord) error
	PutCastFailure(ctx context.Context, failure model.CastFailure) error
}

// Receipt describes a committed cast.
type Receipt struct {
	CastID  string
	Account common.Address
	Records []model.ActionRecord
}

// ErrPublish marks a cast whose actions ran but whose records could not be
// stored. The backend is reverted in that case.
var ErrPublish = errors.New("publish records")

// publishMethod names the step reported when publishing fails. Its Index is
// the number of actions in the cast.
const publishMethod = "publish"

// Error reports which action aborted a cast and why.
type Error struct {
	CastID string
	Index  int
	Method string
	Kind   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cast %s aborted at action %d (%s): %s: %v", e.CastID, e.Index, e.Method, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner executes casts against one backend.
type Runner struct {
	connector *connector.Connector
	journal   Journal
	registry  Registry
	sink      Sink
	locker    Locker
	logger    *zap.Logger
}

// NewRunner builds a Runner. sink and locker are optional.
func NewRunner(conn *connector.Connector, journal Journal, registry Registry, sink Sink, locker Locker, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		connector: conn,
		journal:   journal,
		registry:  registry,
		sink:      sink,
		locker:    locker,
		logger:    logger,
	}
}

type action struct {
	method string
	kind   model.ActionKind
	req    model.ActionRequest
}

// Cast runs spells in order for account. Either every action takes effect
// and its records are published, or the backend is reverted to its state
// before the cast and an *Error is returned.
func (r *Runner) Cast(ctx context.Context, account common.Address, spells []Spell) (Receipt, error) {
	if r.connector == nil {
		return Receipt{}, fmt.Errorf("connector is nil")
	}
	if r.journal == nil {
		return Receipt{}, fmt.Errorf("journal is nil")
	}
	if len(spells) == 0 {
		return Receipt{}, fmt.Errorf("cast has no spells")
	}

	castID := uuid.New().String()
	log := r.logger.With(zap.String("cast_id", castID), zap.String("account", account.Hex()))

	actions := make([]action, 0, len(spells))
	for i, spell := range spells {
		kind, req, err := ParseSpell(spell, r.registry)
		if err != nil {
			return Receipt{}, r.fail(ctx, log, castID, account, i, spell.Method, err)
		}
		actions = append(actions, action{method: spell.Method, kind: kind, req: req})
	}

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, account)
		if err != nil {
			return Receipt{}, fmt.Errorf("lock account %s: %w", account.Hex(), err)
		}
		defer unlock()
	}

	snapshot, err := r.journal.Snapshot(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("snapshot: %w", err)
	}

	mem := connector.NewMemory()
	records := make([]model.ActionRecord, 0, len(actions))
	for i, a := range actions {
		outcome, err := r.connector.Execute(ctx, mem, account, a.kind, a.req)
		if err != nil {
			err = r.revert(ctx, snapshot, err)
			return Receipt{}, r.fail(ctx, log, castID, account, i, a.method, err)
		}

		outcome.Record.CastID = castID
		outcome.Record.ActionIndex = i
		records = append(records, outcome.Record)

		log.Info("action executed",
			zap.Int("action_index", i),
			zap.String("kind", string(a.kind)),
			zap.String("pool", a.req.Pool.Hex()),
			zap.String("amount_in", outcome.Record.AmountIn),
			zap.String("amount_out", outcome.Record.AmountOut),
		)
	}

	// records are published while the snapshot can still undo the cast
	if r.sink != nil {
		if err := r.sink.PutActionBatch(ctx, records); err != nil {
			err = r.revert(ctx, snapshot, fmt.Errorf("%w: %w", ErrPublish, err))
			return Receipt{}, r.fail(ctx, log, castID, account, len(actions), publishMethod, err)
		}
	}

	log.Info("cast committed", zap.Int("actions", len(records)))
	return Receipt{CastID: castID, Account: account, Records: records}, nil
}

func (r *Runner) revert(ctx context.Context, snapshot string, cause error) error {
	if err := r.journal.Revert(ctx, snapshot); err != nil {
		return errors.Join(cause, fmt.Errorf("revert snapshot %s: %w", snapshot, err))
	}
	return cause
}

func (r *Runner) fail(ctx context.Context, log *zap.Logger, castID string, account common.Address, index int, method string, err error) error {
	castErr := &Error{
		CastID: castID,
		Index:  index,
		Method: method,
		Kind:   kindOf(err),
		Err:    err,
	}

	log.Warn("cast aborted",
		zap.Int("action_index", index),
		zap.String("method", method),
		zap.String("kind", castErr.Kind),
		zap.Error(err),
	)

	if r.sink != nil {
		failure := model.CastFailure{
			CastID:      castID,
			Account:     account.Hex(),
			ActionIndex: index,
			Method:      method,
			Kind:        castErr.Kind,
			Error:       err.Error(),
			FailedAt:    time.Now().UTC().Format(time.RFC3339Nano),
		}
		if sinkErr := r.sink.PutCastFailure(ctx, failure); sinkErr != nil {
			log.Warn("record cast failure", zap.Error(sinkErr))
		}
	}

	return castErr
}

func kindOf(err error) string {
	if kind := connector.KindOf(err); kind != "Unknown" {
		return kind
	}
	if errors.Is(err, ErrInvalidSpell) {
		return "InvalidSpell"
	}
	if errors.Is(err, ErrPublish) {
		return "PublishError"
	}
	return "Unknown"
}
