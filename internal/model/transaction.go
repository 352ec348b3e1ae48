package model

import "time"

// TransactionType selects the movement rule a transaction follows.
type TransactionType string

// Transaction types.
const (
	TxAssignment       TransactionType = "ASSIGNMENT"
	TxTransferSite     TransactionType = "TRANSFER_SITE"
	TxTransferFloor    TransactionType = "TRANSFER_FLOOR"
	TxUseFloor         TransactionType = "USE_FLOOR"
	TxRepair           TransactionType = "REPAIR"
	TxDisposal         TransactionType = "DISPOSAL"
	TxEWaste           TransactionType = "E_WASTE"
	TxReturnFromUser   TransactionType = "RETURN_FROM_USER"
	TxReturnFromRepair TransactionType = "RETURN_FROM_REPAIR"
	TxReturnFromFloor  TransactionType = "RETURN_FROM_FLOOR"
	TxChangeStatus     TransactionType = "CHANGE_STATUS"
)

// TransactionTypes lists every transaction type.
var TransactionTypes = []TransactionType{
	TxAssignment, TxTransferSite, TxTransferFloor, TxUseFloor, TxRepair,
	TxDisposal, TxEWaste, TxReturnFromUser, TxReturnFromRepair,
	TxReturnFromFloor, TxChangeStatus,
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TransactionStatus is the state of a transaction header. Only TRANSFER_SITE
// passes through PENDING; all other types are written as COMPLETED.
type TransactionStatus string

// Transaction statuses.
const (
	TxStatusCompleted TransactionStatus = "COMPLETED"
	TxStatusPending   TransactionStatus = "PENDING"
	TxStatusApproved  TransactionStatus = "APPROVED"
	TxStatusConfirmed TransactionStatus = "CONFIRMED"
	TxStatusCanceled  TransactionStatus = "CANCELED"
)

// Transaction is a ledger header with its lines.
type Transaction struct {
	ID             int64             `json:"id"`
	Reference      string            `json:"reference"`
	Type           TransactionType   `json:"type"`
	Status         TransactionStatus `json:"status"`
	SrcWarehouseID *int64            `json:"src_warehouse_id,omitempty"`
	DstWarehouseID *int64            `json:"dst_warehouse_id,omitempty"`
	SrcFloorID     *int64            `json:"src_floor_id,omitempty"`
	DstFloorID     *int64            `json:"dst_floor_id,omitempty"`
	UserID         *int64            `json:"user_id,omitempty"`
	TargetStatus   DeviceStatus      `json:"target_status,omitempty"`
	Note           string            `json:"note,omitempty"`
	CreatedBy      *int64            `json:"created_by,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	Details []TransactionDetail `json:"details,omitempty"`
}

// TransactionDetail is one line of a transaction.
type TransactionDetail struct {
	ID            int64 `json:"id"`
	TransactionID int64 `json:"transaction_id"`
	DeviceID      int64 `json:"device_id"`
	Quantity      int   `json:"quantity"`

	// Joined fields (not always populated).
	Serial    string `json:"serial,omitempty"`
	ModelName string `json:"model_name,omitempty"`
}

// DeviceHistoryEntry is a ledger line seen from the device's side.
type DeviceHistoryEntry struct {
	TransactionID int64             `json:"transaction_id"`
	Reference     string            `json:"reference"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Quantity      int               `json:"quantity"`
	Note          string            `json:"note,omitempty"`
	CreatedBy     *int64            `json:"created_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
