package ledger

import (
	"fmt"

	"github.com/erazemk/sredstva/internal/model"
)

// refMask is the set of references a request must carry.
type refMask uint8

const (
	refSrcWarehouse refMask = 1 << iota
	refDstWarehouse
	refSrcFloor
	refDstFloor
	refUser
	refTargetStatus
)

// refs are a request's references, resolved against the store.
type refs struct {
	srcWarehouse *model.Warehouse
	dstWarehouse *model.Warehouse
	srcFloor     *model.Floor
	dstFloor     *model.Floor
	user         *model.User
	targetStatus model.DeviceStatus
	workAtHome   bool
}

// poolRef names one stock pool of a bulk device.
type poolRef struct {
	kind model.PoolKind
	id   int64
}

// rule is how one transaction type moves devices. from and to describe a
// serialized unit; debit and credit describe the pools a bulk line moves
// between. A nil debit or credit means that side is not touched.
type rule struct {
	needs  func(req Request) (refMask, error)
	sanity func(r *refs) error
	from   func(r *refs, d *model.Device) (model.Location, []model.DeviceStatus)
	to     func(r *refs, d *model.Device) (model.Location, model.DeviceStatus)
	debit  func(r *refs) *poolRef
	credit func(r *refs) *poolRef

	// lastEntry, when set, replaces the location check for serialized units:
	// the unit's most recent ledger entry must be of this type.
	lastEntry model.TransactionType
	bulk      bool
	pending   bool
}

var rules = map[model.TransactionType]rule{
	model.TxAssignment: {
		needs: always(refSrcWarehouse | refUser),
		from:  atSrcWarehouse(model.StatusInStock),
		to: func(r *refs, _ *model.Device) (model.Location, model.DeviceStatus) {
			if r.workAtHome {
				return model.HeldBy(r.user.ID), model.StatusWAH
			}
			return model.HeldBy(r.user.ID), model.StatusAssigned
		},
		debit:  srcWarehousePool,
		credit: userPool,
		bulk:   true,
	},
	model.TxUseFloor: {
		needs: always(refSrcWarehouse | refDstFloor),
		sanity: func(r *refs) error {
			if r.srcWarehouse.SiteID != r.dstFloor.SiteID {
				return fmt.Errorf("%w: warehouse %s and floor %s are on different sites",
					ErrInvalidUseFloor, r.srcWarehouse.Name, r.dstFloor.Name)
			}
			return nil
		},
		from: atSrcWarehouse(model.StatusInStock),
		to: func(r *refs, _ *model.Device) (model.Location, model.DeviceStatus) {
			return model.AtFloor(r.dstFloor.ID), model.StatusInFloor
		},
		debit: srcWarehousePool,
		bulk:  true,
	},
	model.TxRepair: {
		needs: always(refSrcWarehouse | refDstWarehouse),
		from:  atSrcWarehouse(model.StatusInStock, model.StatusBroken),
		to: func(r *refs, _ *model.Device) (model.Location, model.DeviceStatus) {
			return model.AtWarehouse(r.dstWarehouse.ID), model.StatusRepair
		},
		debit: srcWarehousePool,
		bulk:  true,
	},
	model.TxDisposal: {
		needs: always(refSrcWarehouse),
		from:  atSrcWarehouse(model.StatusInStock, model.StatusBroken),
		to: func(*refs, *model.Device) (model.Location, model.DeviceStatus) {
			return model.Nowhere(), model.StatusDisposed
		},
		debit: srcWarehousePool,
		bulk:  true,
	},
	model.TxEWaste: {
		needs: always(refSrcWarehouse),
		from:  atSrcWarehouse(model.StatusInStock, model.StatusBroken),
		to: func(r *refs, _ *model.Device) (model.Location, model.DeviceStatus) {
			return model.AtWarehouse(r.srcWarehouse.ID), model.StatusEWaste
		},
		debit: srcWarehousePool,
		bulk:  true,
	},
	model.TxTransferFloor: {
		needs: always(refSrcFloor | refDstFloor),
		sanity: func(r *refs) error {
			if r.srcFloor.ID == r.dstFloor.ID {
				return fmt.Errorf("%w: source and destination are both %s", ErrInvalidFloorTransfer, r.srcFloor.Name)
			}
			if r.srcFloor.SiteID != r.dstFloor.SiteID {
				return fmt.Errorf("%w: floors %s and %s are on different sites",
					ErrInvalidFloorTransfer, r.srcFloor.Name, r.dstFloor.Name)
			}
			return nil
		},
		from: func(r *refs, _ *model.Device) (model.Location, []model.DeviceStatus) {
			return model.AtFloor(r.srcFloor.ID), []model.DeviceStatus{model.StatusInFloor}
		},
		to: func(r *refs, d *model.Device) (model.Location, model.DeviceStatus) {
			return model.AtFloor(r.dstFloor.ID), d.Status
		},
	},
	model.TxTransferSite: {
		needs: always(refSrcWarehouse | refDstWarehouse),
		sanity: func(r *refs) error {
			if r.srcWarehouse.SiteID == r.dstWarehouse.SiteID {
				return fmt.Errorf("%w: warehouses %s and %s are on the same site",
					ErrInvalidSiteTransfer, r.srcWarehouse.Name, r.dstWarehouse.Name)
			}
			return nil
		},
		from: atSrcWarehouse(model.StatusInStock),
		to: func(*refs, *model.Device) (model.Location, model.DeviceStatus) {
			return model.Nowhere(), model.StatusOnTheMove
		},
		debit:   srcWarehousePool,
		bulk:    true,
		pending: true,
	},
	model.TxReturnFromUser: {
		needs: always(refUser | refDstWarehouse),
		from: func(r *refs, _ *model.Device) (model.Location, []model.DeviceStatus) {
			return model.HeldBy(r.user.ID), []model.DeviceStatus{model.StatusAssigned, model.StatusWAH}
		},
		to:     toDstWarehouse,
		debit:  userPool,
		credit: dstWarehousePool,
		bulk:   true,
	},
	model.TxReturnFromRepair: {
		needs: always(refDstWarehouse),
		from: func(_ *refs, d *model.Device) (model.Location, []model.DeviceStatus) {
			return d.Location, []model.DeviceStatus{model.StatusRepair}
		},
		to:        toDstWarehouse,
		credit:    dstWarehousePool,
		lastEntry: model.TxRepair,
		bulk:      true,
	},
	model.TxReturnFromFloor: {
		needs: always(refSrcFloor | refDstWarehouse),
		from: func(r *refs, _ *model.Device) (model.Location, []model.DeviceStatus) {
			return model.AtFloor(r.srcFloor.ID), []model.DeviceStatus{model.StatusInFloor}
		},
		to: toDstWarehouse,
		debit: func(r *refs) *poolRef {
			return &poolRef{kind: model.PoolFloor, id: r.srcFloor.ID}
		},
		credit: dstWarehousePool,
		bulk:   true,
	},
	model.TxChangeStatus: {
		needs: func(req Request) (refMask, error) {
			switch req.TargetStatus {
			case model.StatusInStock, model.StatusBroken:
				return refTargetStatus | refSrcWarehouse, nil
			case model.StatusAssigned, model.StatusWAH:
				return refTargetStatus | refUser, nil
			case "":
				return 0, fmt.Errorf("%w: target status required", ErrInvalidRequest)
			}
			return 0, fmt.Errorf("%w: cannot change status to %s", ErrInvalidRequest, req.TargetStatus)
		},
		from: func(r *refs, _ *model.Device) (model.Location, []model.DeviceStatus) {
			switch r.targetStatus {
			case model.StatusBroken:
				return model.AtWarehouse(r.srcWarehouse.ID), []model.DeviceStatus{model.StatusInStock}
			case model.StatusInStock:
				return model.AtWarehouse(r.srcWarehouse.ID), []model.DeviceStatus{model.StatusBroken}
			case model.StatusWAH:
				return model.HeldBy(r.user.ID), []model.DeviceStatus{model.StatusAssigned}
			default:
				return model.HeldBy(r.user.ID), []model.DeviceStatus{model.StatusWAH}
			}
		},
		to: func(r *refs, d *model.Device) (model.Location, model.DeviceStatus) {
			return d.Location, r.targetStatus
		},
	},
}

func always(mask refMask) func(Request) (refMask, error) {
	return func(Request) (refMask, error) { return mask, nil }
}

func atSrcWarehouse(statuses ...model.DeviceStatus) func(*refs, *model.Device) (model.Location, []model.DeviceStatus) {
	return func(r *refs, _ *model.Device) (model.Location, []model.DeviceStatus) {
		return model.AtWarehouse(r.srcWarehouse.ID), statuses
	}
}

func toDstWarehouse(r *refs, _ *model.Device) (model.Location, model.DeviceStatus) {
	return model.AtWarehouse(r.dstWarehouse.ID), model.StatusInStock
}

func srcWarehousePool(r *refs) *poolRef {
	return &poolRef{kind: model.PoolWarehouse, id: r.srcWarehouse.ID}
}

func dstWarehousePool(r *refs) *poolRef {
	return &poolRef{kind: model.PoolWarehouse, id: r.dstWarehouse.ID}
}

func userPool(r *refs) *poolRef {
	return &poolRef{kind: model.PoolUser, id: r.user.ID}
}

// allows reports whether d is at loc in one of statuses.
func allows(loc model.Location, statuses []model.DeviceStatus, d *model.Device) bool {
	if d.Location != loc {
		return false
	}
	for _, s := range statuses {
		if d.Status == s {
			return true
		}
	}
	return false
}
