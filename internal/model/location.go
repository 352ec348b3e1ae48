package model

import (
	"fmt"
	"time"
)

// Site groups warehouses and floors that share a physical address.
type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Warehouse is a stock room belonging to a site.
type Warehouse struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	SiteName string `json:"site_name,omitempty"`
}

// Floor is an office floor belonging to a site.
type Floor struct {
	ID        int64     `json:"id"`
	SiteID    int64     `json:"site_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	SiteName string `json:"site_name,omitempty"`
}

// LocationKind says which kind of place a serialized device is at.
type LocationKind string

// Location kinds.
const (
	LocationNone      LocationKind = "none"
	LocationWarehouse LocationKind = "warehouse"
	LocationFloor     LocationKind = "floor"
	LocationUser      LocationKind = "user"
)

// Location is the single place a serialized device is at. The zero value is
// not valid; use Nowhere for a device without a location.
type Location struct {
	Kind LocationKind `json:"kind"`
	ID   int64        `json:"id,omitempty"`
}

// Nowhere is the location of a device in transit or disposed of.
func Nowhere() Location { return Location{Kind: LocationNone} }

// AtWarehouse returns the location of a device stored in a warehouse.
func AtWarehouse(id int64) Location { return Location{Kind: LocationWarehouse, ID: id} }

// AtFloor returns the location of a device in use on a floor.
func AtFloor(id int64) Location { return Location{Kind: LocationFloor, ID: id} }

// HeldBy returns the location of a device held by a user.
func HeldBy(userID int64) Location { return Location{Kind: LocationUser, ID: userID} }

// Columns splits the location into the three mutually exclusive
// warehouse/floor/user columns. At most one of them is non-nil.
func (l Location) Columns() (warehouseID, floorID, userID *int64) {
	id := l.ID
	switch l.Kind {
	case LocationWarehouse:
		return &id, nil, nil
	case LocationFloor:
		return nil, &id, nil
	case LocationUser:
		return nil, nil, &id
	}
	return nil, nil, nil
}

// LocationFromColumns is the inverse of Columns.
func LocationFromColumns(warehouseID, floorID, userID *int64) Location {
	switch {
	case warehouseID != nil:
		return AtWarehouse(*warehouseID)
	case floorID != nil:
		return AtFloor(*floorID)
	case userID != nil:
		return HeldBy(*userID)
	}
	return Nowhere()
}

func (l Location) String() string {
	if l.Kind == LocationNone || l.Kind == "" {
		return string(LocationNone)
	}
	return fmt.Sprintf("%s:%d", l.Kind, l.ID)
}
