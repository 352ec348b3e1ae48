package store

import (
	"context"
	"testing"

	"github.com/erazemk/sredstva/internal/db"
)

func TestLocations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, err := CreateSite(ctx, database, "Ljubljana")
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}
	b, _ := CreateSite(ctx, database, "Maribor")

	if _, err := CreateSite(ctx, database, "Ljubljana"); err == nil {
		t.Error("expected duplicate site name to fail")
	}

	CreateWarehouse(ctx, database, a.ID, "Basement")
	CreateWarehouse(ctx, database, b.ID, "Basement")
	if _, err := CreateWarehouse(ctx, database, a.ID, "Basement"); err == nil {
		t.Error("expected duplicate warehouse name on one site to fail")
	}
	f, err := CreateFloor(ctx, database, a.ID, "2nd floor")
	if err != nil {
		t.Fatalf("CreateFloor: %v", err)
	}
	if f.SiteID != a.ID {
		t.Errorf("expected floor on site %d, got %d", a.ID, f.SiteID)
	}

	sites, _ := ListSites(ctx, database)
	if len(sites) != 2 {
		t.Errorf("expected 2 sites, got %d", len(sites))
	}

	all, _ := ListWarehouses(ctx, database, 0)
	if len(all) != 2 {
		t.Errorf("expected 2 warehouses, got %d", len(all))
	}
	onA, _ := ListWarehouses(ctx, database, a.ID)
	if len(onA) != 1 {
		t.Errorf("expected 1 warehouse on site A, got %d", len(onA))
	}

	floors, _ := ListFloors(ctx, database, b.ID)
	if len(floors) != 0 {
		t.Errorf("expected no floors on site B, got %d", len(floors))
	}

	missing, err := GetWarehouse(ctx, database, 999)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing warehouse, got %v %v", missing, err)
	}
}

func TestCatalog(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	laptops, err := CreateDeviceType(ctx, database, "Laptop", true)
	if err != nil {
		t.Fatalf("CreateDeviceType: %v", err)
	}
	cables, _ := CreateDeviceType(ctx, database, "Cable", false)

	m, err := CreateModel(ctx, database, laptops.ID, "ThinkPad T14")
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}
	if !m.HasSerial || m.DeviceTypeName != "Laptop" {
		t.Errorf("unexpected model: %+v", m)
	}
	bulk, _ := GetBulkDevice(ctx, database, m.ID)
	if bulk != nil {
		t.Error("serialized model must not get a bulk bucket")
	}

	usbc, _ := CreateModel(ctx, database, cables.ID, "USB-C 1m")
	bulk, err = GetBulkDevice(ctx, database, usbc.ID)
	if err != nil || bulk == nil {
		t.Fatalf("expected bulk bucket for non-serialized model: %v", err)
	}

	if _, err := CreateModel(ctx, database, 999, "Nothing"); err == nil {
		t.Error("expected error for unknown device type")
	}

	models, _ := ListModels(ctx, database, cables.ID)
	if len(models) != 1 || models[0].Name != "USB-C 1m" {
		t.Errorf("unexpected models: %+v", models)
	}

	data, mime, err := GetModelImage(ctx, database, m.ID)
	if err != nil || data != nil || mime != "" {
		t.Errorf("expected no photo, got %d bytes %q %v", len(data), mime, err)
	}
	if err := SetModelImage(ctx, database, m.ID, []byte{0xff, 0xd8}, "image/jpeg"); err != nil {
		t.Fatalf("SetModelImage: %v", err)
	}
	data, mime, _ = GetModelImage(ctx, database, m.ID)
	if len(data) != 2 || mime != "image/jpeg" {
		t.Errorf("unexpected photo: %d bytes %q", len(data), mime)
	}
}
