// Package ledger decides whether asset movements are legal and applies them.
//
// Every movement is a transaction: a header plus one line per device. A line
// either names a serialized unit by serial, which moves as a whole, or a
// non-serialized model by id, whose quantity moves between stock pools. Each
// transaction type follows one rule from a fixed table; a request is fully
// validated before anything is written, and the checks and writes of one
// request share a single database transaction.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// Actor is the user on whose behalf a transaction is recorded.
type Actor struct {
	UserID   int64
	Username string
}

// Line is one device in a request: a serial, or a model id for bulk stock.
type Line struct {
	Serial   string `json:"serial,omitempty"`
	ModelID  int64  `json:"model_id,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

func (l Line) identifier() string {
	if l.Serial != "" {
		return l.Serial
	}
	return fmt.Sprintf("model %d", l.ModelID)
}

// Request asks for one transaction. Which references are required depends on
// the type.
type Request struct {
	Type           model.TransactionType `json:"type"`
	SrcWarehouseID int64                 `json:"src_warehouse_id,omitempty"`
	DstWarehouseID int64                 `json:"dst_warehouse_id,omitempty"`
	SrcFloorID     int64                 `json:"src_floor_id,omitempty"`
	DstFloorID     int64                 `json:"dst_floor_id,omitempty"`
	UserID         int64                 `json:"user_id,omitempty"`
	WorkAtHome     bool                  `json:"work_at_home,omitempty"`
	TargetStatus   model.DeviceStatus    `json:"target_status,omitempty"`
	Note           string                `json:"note,omitempty"`
	Lines          []Line                `json:"lines"`
}

// Ledger records transactions in a database.
type Ledger struct {
	db      *sql.DB
	log     *slog.Logger
	reg     prometheus.Registerer
	metrics *metrics
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger for committed and rejected transactions.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithRegisterer registers the ledger's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Ledger) { l.reg = reg }
}

// New returns a Ledger over db.
func New(db *sql.DB, opts ...Option) *Ledger {
	l := &Ledger{db: db, log: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.metrics = newMetrics(l.reg)
	return l
}

// Create validates req and, if it is legal, records it and applies it.
// TRANSFER_SITE transactions are left PENDING until confirmed or canceled;
// all other types are COMPLETED immediately.
func (l *Ledger) Create(ctx context.Context, actor Actor, req Request) (*model.Transaction, error) {
	start := time.Now()
	t, err := l.create(ctx, actor, req)
	l.observe("create", req.Type, actor, t, start, err)
	return t, err
}

func (l *Ledger) create(ctx context.Context, actor Actor, req Request) (*model.Transaction, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := validate(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	header := p.header(actor)
	if err := store.InsertTransaction(ctx, tx, header); err != nil {
		return nil, err
	}

	for _, pl := range p.lines {
		if err := p.apply(ctx, tx, header.ID, pl); err != nil {
			return nil, err
		}
	}

	t, err := store.GetTransaction(ctx, tx, header.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return t, nil
}

func (p *plan) header(actor Actor) *model.Transaction {
	t := &model.Transaction{
		Reference:    uuid.NewString(),
		Type:         p.req.Type,
		Status:       model.TxStatusCompleted,
		TargetStatus: p.refs.targetStatus,
		Note:         p.req.Note,
	}
	if p.rule.pending {
		t.Status = model.TxStatusPending
	}
	if actor.UserID > 0 {
		t.CreatedBy = &actor.UserID
	}
	if w := p.refs.srcWarehouse; w != nil {
		t.SrcWarehouseID = &w.ID
	}
	if w := p.refs.dstWarehouse; w != nil {
		t.DstWarehouseID = &w.ID
	}
	if f := p.refs.srcFloor; f != nil {
		t.SrcFloorID = &f.ID
	}
	if f := p.refs.dstFloor; f != nil {
		t.DstFloorID = &f.ID
	}
	if u := p.refs.user; u != nil {
		t.UserID = &u.ID
	}
	return t
}

// apply records one line and moves its device.
func (p *plan) apply(ctx context.Context, q store.DBTX, txID int64, pl plannedLine) error {
	if _, err := store.InsertDetail(ctx, q, txID, pl.device.ID, pl.quantity); err != nil {
		return err
	}

	if pl.device.Serialized() {
		from, statuses := p.rule.from(&p.refs, pl.device)
		to, status := p.rule.to(&p.refs, pl.device)
		return transition(ctx, q, store.Transition{
			DeviceID:      pl.device.ID,
			From:          from,
			FromStatuses:  statuses,
			To:            to,
			ToStatus:      status,
			TransactionID: txID,
		}, pl.device.Serial)
	}

	if p.rule.debit != nil {
		src := p.rule.debit(&p.refs)
		err := store.DecrementStock(ctx, q, src.kind, pl.device.ID, src.id, pl.quantity)
		if errors.Is(err, store.ErrInsufficientStock) {
			available, err := store.GetStock(ctx, q, src.kind, pl.device.ID, src.id)
			if err != nil {
				return err
			}
			return stockError(src, pl, available)
		}
		if err != nil {
			return err
		}
	}
	if p.rule.credit != nil {
		dst := p.rule.credit(&p.refs)
		err := store.IncrementStock(ctx, q, dst.kind, pl.device.ID, dst.id, pl.quantity)
		if errors.Is(err, store.ErrStockOverflow) {
			return overflowError(dst, pl)
		}
		if err != nil {
			return err
		}
	}
	return store.TouchBulkDevice(ctx, q, pl.device.ID, txID)
}

func transition(ctx context.Context, q store.DBTX, t store.Transition, serial string) error {
	err := store.TransitionDevice(ctx, q, t)
	if errors.Is(err, store.ErrStaleDevice) {
		return &LineError{Kind: ErrInvalidDeviceState, Identifiers: []string{serial}}
	}
	return err
}

// Confirm completes a pending site transfer: units in transit arrive in the
// destination warehouse as IN_STOCK and bulk quantities are credited there.
func (l *Ledger) Confirm(ctx context.Context, actor Actor, id int64) (*model.Transaction, error) {
	start := time.Now()
	t, err := l.settle(ctx, id, model.TxStatusConfirmed, func(t *model.Transaction) int64 {
		return *t.DstWarehouseID
	})
	l.observe("confirm", model.TxTransferSite, actor, t, start, err)
	return t, err
}

// Cancel abandons a pending site transfer and puts everything back in the
// source warehouse.
func (l *Ledger) Cancel(ctx context.Context, actor Actor, id int64) (*model.Transaction, error) {
	start := time.Now()
	t, err := l.settle(ctx, id, model.TxStatusCanceled, func(t *model.Transaction) int64 {
		return *t.SrcWarehouseID
	})
	l.observe("cancel", model.TxTransferSite, actor, t, start, err)
	return t, err
}

// settle moves a pending site transfer to status and delivers its lines to
// the warehouse chosen by dest.
func (l *Ledger) settle(ctx context.Context, id int64, status model.TransactionStatus, dest func(*model.Transaction) int64) (*model.Transaction, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := store.GetTransaction(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, id)
	}
	if t.Type != model.TxTransferSite || t.Status != model.TxStatusPending {
		return nil, fmt.Errorf("%w: transaction %d is %s %s", ErrInvalidTransactionState, id, t.Status, t.Type)
	}

	if err := store.UpdateTransactionStatus(ctx, tx, id, model.TxStatusPending, status); err != nil {
		if errors.Is(err, store.ErrTransactionChanged) {
			return nil, fmt.Errorf("%w: transaction %d is no longer pending", ErrInvalidTransactionState, id)
		}
		return nil, err
	}

	warehouseID := dest(t)
	for _, td := range t.Details {
		if td.Serial != "" {
			err = transition(ctx, tx, store.Transition{
				DeviceID:      td.DeviceID,
				From:          model.Nowhere(),
				FromStatuses:  []model.DeviceStatus{model.StatusOnTheMove},
				To:            model.AtWarehouse(warehouseID),
				ToStatus:      model.StatusInStock,
				TransactionID: id,
			}, td.Serial)
		} else {
			err = store.IncrementStock(ctx, tx, model.PoolWarehouse, td.DeviceID, warehouseID, td.Quantity)
			if errors.Is(err, store.ErrStockOverflow) {
				err = fmt.Errorf("%w: warehouse %d cannot hold %d more of %s", ErrInvalidRequest, warehouseID, td.Quantity, td.ModelName)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	t, err = store.GetTransaction(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return t, nil
}

func (l *Ledger) observe(op string, typ model.TransactionType, actor Actor, t *model.Transaction, start time.Time, err error) {
	l.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil {
		l.metrics.committed.WithLabelValues(op, string(typ)).Inc()
		l.log.Info("transaction recorded", "op", op, "type", typ, "reference", t.Reference,
			"status", t.Status, "lines", len(t.Details), "user", actor.Username)
		return
	}

	reason := Reason(err)
	l.metrics.rejected.WithLabelValues(op, string(typ), reason).Inc()
	if reason == "internal" {
		l.log.Error("transaction failed", "op", op, "type", typ, "user", actor.Username, "error", err)
		return
	}
	l.log.Warn("transaction rejected", "op", op, "type", typ, "user", actor.Username, "reason", reason, "error", err)
}
