package model

import "math"

// MaxQuantity is the most a single line may move and the most a single pool
// may hold.
const MaxQuantity = math.MaxInt32

// PoolKind is one of the three kinds of stock pools.
type PoolKind string

// Pool kinds.
const (
	PoolWarehouse PoolKind = "warehouse"
	PoolFloor     PoolKind = "floor"
	PoolUser      PoolKind = "user"
)

// Valid reports whether p is a known pool kind.
func (p PoolKind) Valid() bool {
	return p == PoolWarehouse || p == PoolFloor || p == PoolUser
}

// StockEntry is the quantity of a bulk device held in one pool.
type StockEntry struct {
	Pool       PoolKind `json:"pool"`
	DeviceID   int64    `json:"device_id"`
	LocationID int64    `json:"location_id"`
	Quantity   int      `json:"quantity"`

	// Joined fields (not always populated).
	ModelName    string `json:"model_name,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}
