package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/sredstva/internal/model"
)

func TestRegisterDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dev, err := RegisterDevice(ctx, f.db, f.laptopModel, " SN-100 ", f.warehouseID, "new")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if dev.Serial != "SN-100" {
		t.Errorf("expected trimmed serial, got %q", dev.Serial)
	}
	if dev.Status != model.StatusInStock {
		t.Errorf("expected IN_STOCK, got %s", dev.Status)
	}
	if dev.Location != model.AtWarehouse(f.warehouseID) {
		t.Errorf("expected device at warehouse, got %s", dev.Location)
	}

	got, _ := GetDeviceBySerial(ctx, f.db, "SN-100")
	if got == nil || got.ID != dev.ID {
		t.Errorf("expected lookup by serial to find device %d, got %v", dev.ID, got)
	}
}

func TestRegisterDeviceRejectsBulkModel(t *testing.T) {
	f := newFixture(t)
	if _, err := RegisterDevice(context.Background(), f.db, f.mouseModel, "M-1", f.warehouseID, ""); err == nil {
		t.Error("expected error registering a serial for a bulk model")
	}
}

func TestRegisterDeviceDuplicateSerial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	RegisterDevice(ctx, f.db, f.laptopModel, "SN-1", f.warehouseID, "")
	if _, err := RegisterDevice(ctx, f.db, f.laptopModel, "SN-1", f.warehouseID, ""); err == nil {
		t.Error("expected error for duplicate serial")
	}
}

func TestGetBulkDeviceIgnoresSerializedModels(t *testing.T) {
	f := newFixture(t)
	d, err := GetBulkDevice(context.Background(), f.db, f.laptopModel)
	if err != nil {
		t.Fatalf("GetBulkDevice: %v", err)
	}
	if d != nil {
		t.Errorf("expected no bulk device for a serialized model, got %+v", d)
	}
}

func TestTransitionDevice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dev, _ := RegisterDevice(ctx, f.db, f.laptopModel, "SN-1", f.warehouseID, "")

	err := TransitionDevice(ctx, f.db, Transition{
		DeviceID:     dev.ID,
		From:         model.AtWarehouse(f.warehouseID),
		FromStatuses: []model.DeviceStatus{model.StatusInStock},
		To:           model.AtFloor(f.floorID),
		ToStatus:     model.StatusInFloor,
	})
	if err != nil {
		t.Fatalf("TransitionDevice: %v", err)
	}

	loc, _ := LocateDevice(ctx, f.db, dev.ID)
	if loc != model.AtFloor(f.floorID) {
		t.Errorf("expected device on floor, got %s", loc)
	}

	// Replaying the same move finds the device somewhere else.
	err = TransitionDevice(ctx, f.db, Transition{
		DeviceID:     dev.ID,
		From:         model.AtWarehouse(f.warehouseID),
		FromStatuses: []model.DeviceStatus{model.StatusInStock},
		To:           model.Nowhere(),
		ToStatus:     model.StatusDisposed,
	})
	if !errors.Is(err, ErrStaleDevice) {
		t.Errorf("expected ErrStaleDevice, got %v", err)
	}
}

func TestTransitionDeviceClearsOtherColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dev, _ := RegisterDevice(ctx, f.db, f.laptopModel, "SN-1", f.warehouseID, "")
	TransitionDevice(ctx, f.db, Transition{
		DeviceID: dev.ID,
		From:     model.AtWarehouse(f.warehouseID),
		To:       model.Nowhere(),
		ToStatus: model.StatusOnTheMove,
	})

	var set int
	f.db.QueryRow(
		`SELECT (warehouse_id IS NOT NULL) + (floor_id IS NOT NULL) + (user_id IS NOT NULL) FROM devices WHERE id = ?`,
		dev.ID,
	).Scan(&set)
	if set != 0 {
		t.Errorf("expected no location column set, got %d", set)
	}
}

func TestListDevicesByLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	RegisterDevice(ctx, f.db, f.laptopModel, "SN-1", f.warehouseID, "")
	RegisterDevice(ctx, f.db, f.laptopModel, "SN-2", f.warehouseID, "")

	loc := model.AtWarehouse(f.warehouseID)
	devices, err := ListDevices(ctx, f.db, DeviceFilter{Location: &loc})
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("expected 2 devices at warehouse, got %d", len(devices))
	}

	all, _ := ListDevices(ctx, f.db, DeviceFilter{})
	if len(all) != 3 { // two laptops and the mouse bucket
		t.Errorf("expected 3 devices, got %d", len(all))
	}
}
