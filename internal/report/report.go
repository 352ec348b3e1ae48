// Package report exports the current stock position as an XLSX workbook.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// Sheet names, in workbook order.
const (
	SheetWarehouses = "Warehouses"
	SheetFloors     = "Floors"
	SheetHoldings   = "Holdings"
	SheetInTransit  = "In transit"
	SheetUnits      = "Units"
)

// WriteStock writes a workbook with one sheet per stock pool kind, a sheet of
// bulk quantities in pending site transfers, and a sheet of every serialized
// unit with its status and location.
func WriteStock(ctx context.Context, q store.DBTX, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetWarehouses); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for _, name := range []string{SheetFloors, SheetHoldings, SheetInTransit, SheetUnits} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	pools := []struct {
		sheet  string
		kind   model.PoolKind
		header string
	}{
		{SheetWarehouses, model.PoolWarehouse, "warehouse"},
		{SheetFloors, model.PoolFloor, "floor"},
		{SheetHoldings, model.PoolUser, "user"},
	}
	for _, p := range pools {
		entries, err := store.ListStock(ctx, q, store.StockFilter{Pool: p.kind})
		if err != nil {
			return err
		}
		if err := writeStock(f, p.sheet, p.header, entries); err != nil {
			return err
		}
	}

	inTransit, err := store.ListInTransit(ctx, q)
	if err != nil {
		return err
	}
	if err := writeStock(f, SheetInTransit, "destination warehouse", inTransit); err != nil {
		return err
	}

	if err := writeUnits(ctx, q, f); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeStock(f *excelize.File, sheet, locationHeader string, entries []model.StockEntry) error {
	rows := [][]any{{locationHeader, "model", "quantity"}}
	for _, e := range entries {
		rows = append(rows, []any{e.LocationName, e.ModelName, e.Quantity})
	}
	return writeRows(f, sheet, rows)
}

func writeUnits(ctx context.Context, q store.DBTX, f *excelize.File) error {
	names, err := locationNames(ctx, q)
	if err != nil {
		return err
	}

	devices, err := store.ListDevices(ctx, q, store.DeviceFilter{})
	if err != nil {
		return err
	}

	rows := [][]any{{"serial", "type", "model", "status", "location", "note"}}
	for _, d := range devices {
		if !d.Serialized() {
			continue
		}
		rows = append(rows, []any{
			d.Serial, d.DeviceTypeName, d.ModelName, string(d.Status), names[d.Location], d.Note,
		})
	}
	return writeRows(f, SheetUnits, rows)
}

// locationNames maps every location to a readable name.
func locationNames(ctx context.Context, q store.DBTX) (map[model.Location]string, error) {
	names := map[model.Location]string{model.Nowhere(): ""}

	warehouses, err := store.ListWarehouses(ctx, q, 0)
	if err != nil {
		return nil, err
	}
	for _, w := range warehouses {
		names[model.AtWarehouse(w.ID)] = fmt.Sprintf("%s / %s", w.SiteName, w.Name)
	}

	floors, err := store.ListFloors(ctx, q, 0)
	if err != nil {
		return nil, err
	}
	for _, fl := range floors {
		names[model.AtFloor(fl.ID)] = fmt.Sprintf("%s / %s", fl.SiteName, fl.Name)
	}

	users, err := store.ListUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		names[model.HeldBy(u.ID)] = u.Username
	}
	return names, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
