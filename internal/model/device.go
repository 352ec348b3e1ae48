package model

import "time"

// DeviceType is a category of devices. HasSerial decides whether its devices
// are tracked one by one or only as quantities in stock pools.
type DeviceType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	HasSerial bool      `json:"has_serial"`
	CreatedAt time.Time `json:"created_at"`
}

// Model is a concrete make/model of a device type.
type Model struct {
	ID           int64     `json:"id"`
	DeviceTypeID int64     `json:"device_type_id"`
	Name         string    `json:"name"`
	ImageMime    string    `json:"image_mime,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Joined fields (not always populated).
	DeviceTypeName string `json:"device_type_name,omitempty"`
	HasSerial      bool   `json:"has_serial"`
}

// DeviceStatus is the lifecycle status of a serialized device.
type DeviceStatus string

// Device statuses.
const (
	StatusInStock   DeviceStatus = "IN_STOCK"
	StatusAssigned  DeviceStatus = "ASSIGNED"
	StatusWAH       DeviceStatus = "WAH"
	StatusInFloor   DeviceStatus = "IN_FLOOR"
	StatusRepair    DeviceStatus = "REPAIR"
	StatusDisposed  DeviceStatus = "DISPOSED"
	StatusEWaste    DeviceStatus = "E_WASTE"
	StatusOnTheMove DeviceStatus = "ON_THE_MOVE"
	StatusBroken    DeviceStatus = "BROKEN"
)

// Device is either a serialized unit or the bulk bucket of a non-serialized
// model. Bulk buckets have no serial, status, or location; their quantities
// live in the stock pools.
type Device struct {
	ID                int64        `json:"id"`
	ModelID           int64        `json:"model_id"`
	Serial            string       `json:"serial,omitempty"`
	Status            DeviceStatus `json:"status,omitempty"`
	Location          Location     `json:"location"`
	Note              string       `json:"note,omitempty"`
	LastTransactionID *int64       `json:"last_transaction_id,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`

	// Joined fields (not always populated).
	ModelName      string `json:"model_name,omitempty"`
	DeviceTypeName string `json:"device_type_name,omitempty"`
}

// Serialized reports whether the device is an individually tracked unit.
func (d *Device) Serialized() bool {
	return d.Serial != ""
}

// Label identifies the device in messages: its serial, or its model for
// bulk buckets.
func (d *Device) Label() string {
	if d.Serialized() {
		return d.Serial
	}
	if d.ModelName != "" {
		return d.ModelName
	}
	return "bulk device"
}
