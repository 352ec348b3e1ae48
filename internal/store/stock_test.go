package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/sredstva/internal/model"
)

func TestAddStockAndListStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := AddStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, 10); err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	AddStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, 5)

	entries, err := ListStock(ctx, f.db, StockFilter{Pool: model.PoolWarehouse})
	if err != nil {
		t.Fatalf("ListStock: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stock entry, got %d", len(entries))
	}
	if entries[0].Quantity != 15 {
		t.Errorf("expected quantity 15, got %d", entries[0].Quantity)
	}
	if entries[0].LocationName != "Basement" || entries[0].ModelName != "MX Anywhere" {
		t.Errorf("unexpected joined names: %+v", entries[0])
	}
}

func TestAddStockRejectsSerializedDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dev, err := RegisterDevice(ctx, f.db, f.laptopModel, "SN-1", f.warehouseID, "")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}

	if err := AddStock(ctx, f.db, model.PoolWarehouse, dev.ID, f.warehouseID, 1); err == nil {
		t.Error("expected error stocking a serialized device")
	}
}

func TestAddStockToUserPoolFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := AddStock(ctx, f.db, model.PoolUser, f.mouseDevice, 1, 1); err == nil {
		t.Error("expected error adding stock to a user pool")
	}
}

func TestDecrementStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	AddStock(ctx, f.db, model.PoolFloor, f.mouseDevice, f.floorID, 5)

	if err := DecrementStock(ctx, f.db, model.PoolFloor, f.mouseDevice, f.floorID, 3); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	qty, _ := GetStock(ctx, f.db, model.PoolFloor, f.mouseDevice, f.floorID)
	if qty != 2 {
		t.Errorf("expected 2 left, got %d", qty)
	}
}

func TestDecrementStockNeverGoesNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	AddStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, 3)

	err := DecrementStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, 4)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	qty, _ := GetStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID)
	if qty != 3 {
		t.Errorf("expected quantity unchanged at 3, got %d", qty)
	}

	// A pool without a row behaves like an empty one.
	err = DecrementStock(ctx, f.db, model.PoolUser, f.mouseDevice, 1, 1)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock for missing row, got %v", err)
	}
}

func TestDecrementToZeroKeepsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	AddStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, 2)
	if err := DecrementStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, 2); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}

	// Zero rows persist but are hidden from listings.
	entries, _ := ListStock(ctx, f.db, StockFilter{Pool: model.PoolWarehouse})
	if len(entries) != 0 {
		t.Errorf("expected empty listing, got %v", entries)
	}

	var rows int
	f.db.QueryRow(`SELECT COUNT(*) FROM warehouse_stock`).Scan(&rows)
	if rows != 1 {
		t.Errorf("expected the zero row to persist, got %d rows", rows)
	}
}

func TestIncrementStockCreatesRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, f.db, "alice", "hash", model.RoleUser)

	if err := IncrementStock(ctx, f.db, model.PoolUser, f.mouseDevice, user.ID, 2); err != nil {
		t.Fatalf("IncrementStock: %v", err)
	}
	IncrementStock(ctx, f.db, model.PoolUser, f.mouseDevice, user.ID, 1)

	holdings, _ := ListStock(ctx, f.db, StockFilter{Pool: model.PoolUser, LocationID: user.ID})
	if len(holdings) != 1 || holdings[0].Quantity != 3 {
		t.Errorf("expected alice to hold 3, got %v", holdings)
	}
	if holdings[0].LocationName != "alice" {
		t.Errorf("expected location name 'alice', got %q", holdings[0].LocationName)
	}
}

func TestUnknownPoolKind(t *testing.T) {
	f := newFixture(t)
	if _, err := GetStock(context.Background(), f.db, "shelf", f.mouseDevice, 1); err == nil {
		t.Error("expected error for unknown pool kind")
	}
}

func TestAddStockRejectsOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := AddStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, model.MaxQuantity+1)
	if !errors.Is(err, ErrStockOverflow) {
		t.Fatalf("expected ErrStockOverflow for oversized line, got %v", err)
	}

	if err := AddStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, model.MaxQuantity); err != nil {
		t.Fatalf("AddStock: %v", err)
	}
	err = AddStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID, 1)
	if !errors.Is(err, ErrStockOverflow) {
		t.Fatalf("expected ErrStockOverflow on full pool, got %v", err)
	}

	q, err := GetStock(ctx, f.db, model.PoolWarehouse, f.mouseDevice, f.warehouseID)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if q != model.MaxQuantity {
		t.Errorf("expected quantity %d, got %d", model.MaxQuantity, q)
	}
}
