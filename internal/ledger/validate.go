package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// plan is a validated request, ready to be applied.
type plan struct {
	req   Request
	rule  rule
	refs  refs
	lines []plannedLine
}

type plannedLine struct {
	line     Line
	device   *model.Device
	quantity int
}

// validate checks req against the current state seen through q. Checks run
// in a fixed order and the first failing stage is returned; within a stage,
// every offending line is reported. Nothing is written.
func validate(ctx context.Context, q store.DBTX, req Request) (*plan, error) {
	r, ok := rules[req.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidRequest, req.Type)
	}
	mask, err := r.needs(req)
	if err != nil {
		return nil, err
	}

	lines, err := normalizeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	resolved, err := resolveRefs(ctx, q, req, mask)
	if err != nil {
		return nil, err
	}

	if r.sanity != nil {
		if err := r.sanity(resolved); err != nil {
			return nil, err
		}
	}

	if err := checkDuplicates(lines); err != nil {
		return nil, err
	}

	p := &plan{req: req, rule: r, refs: *resolved}

	notFound := accumulator{kind: ErrDeviceNotFound}
	for _, l := range lines {
		var d *model.Device
		if l.Serial != "" {
			d, err = store.GetDeviceBySerial(ctx, q, l.Serial)
		} else {
			d, err = store.GetBulkDevice(ctx, q, l.ModelID)
		}
		if err != nil {
			return nil, err
		}
		if d == nil {
			notFound.add(l.identifier())
			continue
		}
		p.lines = append(p.lines, plannedLine{line: l, device: d, quantity: l.Quantity})
	}
	if err := notFound.err(); err != nil {
		return nil, err
	}

	if err := p.checkPreconditions(ctx, q); err != nil {
		return nil, err
	}
	if err := p.checkStock(ctx, q); err != nil {
		return nil, err
	}
	return p, nil
}

// normalizeLines trims serials and defaults serial line quantities to 1.
func normalizeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line required", ErrInvalidRequest)
	}

	bad := accumulator{kind: ErrInvalidRequest}
	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		l.Serial = strings.TrimSpace(l.Serial)
		switch {
		case (l.Serial == "") == (l.ModelID == 0):
			bad.add(fmt.Sprintf("line %d: exactly one of serial or model_id", i+1))
			continue
		case l.Serial != "" && l.Quantity == 0:
			l.Quantity = 1
		case l.Serial != "" && l.Quantity != 1:
			bad.add(fmt.Sprintf("line %d: serialized device quantity must be 1", i+1))
			continue
		case l.Quantity <= 0:
			bad.add(fmt.Sprintf("line %d: quantity must be positive", i+1))
			continue
		case l.Quantity > model.MaxQuantity:
			bad.add(fmt.Sprintf("line %d: quantity must be at most %d", i+1, model.MaxQuantity))
			continue
		}
		out = append(out, l)
	}
	if err := bad.err(); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveRefs(ctx context.Context, q store.DBTX, req Request, mask refMask) (*refs, error) {
	r := &refs{workAtHome: req.WorkAtHome}

	warehouse := func(id int64, what string) (*model.Warehouse, error) {
		if id == 0 {
			return nil, fmt.Errorf("%w: %s required", ErrInvalidRequest, what)
		}
		w, err := store.GetWarehouse(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, fmt.Errorf("%w: warehouse %d", ErrLocationNotFound, id)
		}
		return w, nil
	}
	floor := func(id int64, what string) (*model.Floor, error) {
		if id == 0 {
			return nil, fmt.Errorf("%w: %s required", ErrInvalidRequest, what)
		}
		f, err := store.GetFloor(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("%w: floor %d", ErrLocationNotFound, id)
		}
		return f, nil
	}

	var err error
	if mask&refSrcWarehouse != 0 {
		if r.srcWarehouse, err = warehouse(req.SrcWarehouseID, "source warehouse"); err != nil {
			return nil, err
		}
	}
	if mask&refDstWarehouse != 0 {
		if r.dstWarehouse, err = warehouse(req.DstWarehouseID, "destination warehouse"); err != nil {
			return nil, err
		}
	}
	if mask&refSrcFloor != 0 {
		if r.srcFloor, err = floor(req.SrcFloorID, "source floor"); err != nil {
			return nil, err
		}
	}
	if mask&refDstFloor != 0 {
		if r.dstFloor, err = floor(req.DstFloorID, "destination floor"); err != nil {
			return nil, err
		}
	}
	if mask&refUser != 0 {
		if req.UserID == 0 {
			return nil, fmt.Errorf("%w: user required", ErrInvalidRequest)
		}
		u, err := store.GetUser(ctx, q, req.UserID)
		if err != nil {
			return nil, err
		}
		if u == nil || u.DeletedAt != nil {
			return nil, fmt.Errorf("%w: user %d", ErrUserNotFound, req.UserID)
		}
		r.user = u
	}
	if mask&refTargetStatus != 0 {
		r.targetStatus = req.TargetStatus
	}
	return r, nil
}

func checkDuplicates(lines []Line) error {
	dup := accumulator{kind: ErrDuplicateLineItem}
	serials := make(map[string]bool)
	models := make(map[int64]bool)
	for _, l := range lines {
		if l.Serial != "" {
			if serials[l.Serial] {
				dup.add(l.Serial)
			}
			serials[l.Serial] = true
			continue
		}
		if models[l.ModelID] {
			dup.add(l.identifier())
		}
		models[l.ModelID] = true
	}
	return dup.err()
}

// checkPreconditions collects every line whose device is not in the state
// the rule expects.
func (p *plan) checkPreconditions(ctx context.Context, q store.DBTX) error {
	bad := accumulator{kind: ErrInvalidDeviceState}
	for _, pl := range p.lines {
		d := pl.device
		if !d.Serialized() {
			if !p.rule.bulk {
				bad.add(pl.line.identifier())
			}
			continue
		}

		if p.rule.lastEntry != "" {
			last, ok, err := store.LastTransactionType(ctx, q, d.ID)
			if err != nil {
				return err
			}
			if !ok || last != p.rule.lastEntry {
				bad.add(d.Serial)
				continue
			}
		}

		loc, statuses := p.rule.from(&p.refs, d)
		if !allows(loc, statuses, d) {
			bad.add(d.Serial)
		}
	}
	return bad.err()
}

// checkStock verifies every bulk line fits in its source pool, or for
// history-based rules in what is still out, and that its destination pool
// can take it. A pool that appears on several lines cannot happen: duplicate
// model lines are rejected earlier.
func (p *plan) checkStock(ctx context.Context, q store.DBTX) error {
	for _, pl := range p.lines {
		if pl.device.Serialized() {
			continue
		}

		switch {
		case p.rule.debit != nil:
			src := p.rule.debit(&p.refs)
			available, err := store.GetStock(ctx, q, src.kind, pl.device.ID, src.id)
			if err != nil {
				return err
			}
			if available < pl.quantity {
				return stockError(src, pl, available)
			}
		case p.rule.lastEntry != "":
			outstanding, err := store.OutstandingQuantity(ctx, q, pl.device.ID, p.rule.lastEntry, p.req.Type)
			if err != nil {
				return err
			}
			if outstanding < pl.quantity {
				return stockError(nil, pl, outstanding)
			}
		}

		if p.rule.credit != nil {
			dst := p.rule.credit(&p.refs)
			held, err := store.GetStock(ctx, q, dst.kind, pl.device.ID, dst.id)
			if err != nil {
				return err
			}
			if held > model.MaxQuantity-pl.quantity {
				return overflowError(dst, pl)
			}
		}
	}
	return nil
}

// stockError reports a bulk line that asks for more than its source has. A
// nil src means the source is the device's ledger history.
func stockError(src *poolRef, pl plannedLine, available int) *StockError {
	kind := ErrInsufficientStock
	if src != nil && src.kind == model.PoolUser {
		kind = ErrReturnExceedsHeld
	}
	return &StockError{
		Kind:      kind,
		DeviceID:  pl.device.ID,
		Device:    pl.device.Label(),
		Available: available,
		Requested: pl.quantity,
	}
}

func overflowError(dst *poolRef, pl plannedLine) error {
	return fmt.Errorf("%s pool %d cannot hold %d more: %w", dst.kind, dst.id, pl.quantity,
		&LineError{Kind: ErrInvalidRequest, Identifiers: []string{pl.line.identifier()}})
}
