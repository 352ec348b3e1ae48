package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/erazemk/sredstva/internal/db"
)

// fixture is a small site with one warehouse and floor, a serialized laptop
// model and a bulk mouse model.
type fixture struct {
	db          *sql.DB
	siteID      int64
	warehouseID int64
	floorID     int64
	laptopModel int64
	mouseModel  int64
	mouseDevice int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	site, err := CreateSite(ctx, database, "Ljubljana")
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	wh, err := CreateWarehouse(ctx, database, site.ID, "Basement")
	if err != nil {
		t.Fatalf("CreateWarehouse: %v", err)
	}
	floor, err := CreateFloor(ctx, database, site.ID, "3rd floor")
	if err != nil {
		t.Fatalf("CreateFloor: %v", err)
	}
	laptops, err := CreateDeviceType(ctx, database, "Laptop", true)
	if err != nil {
		t.Fatalf("CreateDeviceType: %v", err)
	}
	mice, err := CreateDeviceType(ctx, database, "Mouse", false)
	if err != nil {
		t.Fatalf("CreateDeviceType: %v", err)
	}
	laptop, err := CreateModel(ctx, database, laptops.ID, "ThinkPad T14")
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}
	mouse, err := CreateModel(ctx, database, mice.ID, "MX Anywhere")
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}
	bulk, err := GetBulkDevice(ctx, database, mouse.ID)
	if err != nil || bulk == nil {
		t.Fatalf("GetBulkDevice: %v %v", bulk, err)
	}

	return fixture{
		db:          database,
		siteID:      site.ID,
		warehouseID: wh.ID,
		floorID:     floor.ID,
		laptopModel: laptop.ID,
		mouseModel:  mouse.ID,
		mouseDevice: bulk.ID,
	}
}
