package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/sredstva/internal/model"
)

// pool maps a pool kind to its table and to the table naming its locations.
type pool struct {
	table     string
	column    string
	nameTable string
	nameCol   string
}

var pools = map[model.PoolKind]pool{
	model.PoolWarehouse: {table: "warehouse_stock", column: "warehouse_id", nameTable: "warehouses", nameCol: "name"},
	model.PoolFloor:     {table: "floor_stock", column: "floor_id", nameTable: "floors", nameCol: "name"},
	model.PoolUser:      {table: "user_holdings", column: "user_id", nameTable: "users", nameCol: "username"},
}

func poolFor(kind model.PoolKind) (pool, error) {
	p, ok := pools[kind]
	if !ok {
		return pool{}, fmt.Errorf("unknown stock pool %q", kind)
	}
	return p, nil
}

// GetStock returns the quantity of a bulk device in one pool, 0 if the pool
// has no row for it.
func GetStock(ctx context.Context, q DBTX, kind model.PoolKind, deviceID, locationID int64) (int, error) {
	p, err := poolFor(kind)
	if err != nil {
		return 0, err
	}

	var qty int
	err = q.QueryRowContext(ctx,
		`SELECT quantity FROM `+p.table+` WHERE device_id = ? AND `+p.column+` = ?`,
		deviceID, locationID,
	).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("checking %s stock: %w", kind, err)
	}
	return qty, nil
}

// IncrementStock adds quantity to a pool, creating its row if absent. A pool
// never grows past model.MaxQuantity; when it would, nothing changes and
// ErrStockOverflow is returned.
func IncrementStock(ctx context.Context, q DBTX, kind model.PoolKind, deviceID, locationID int64, quantity int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	p, err := poolFor(kind)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO `+p.table+` (device_id, `+p.column+`, quantity) VALUES (?, ?, ?)
		 ON CONFLICT (device_id, `+p.column+`) DO UPDATE SET quantity = quantity + excluded.quantity
		 WHERE quantity <= ? - excluded.quantity`,
		deviceID, locationID, quantity, model.MaxQuantity,
	)
	if err != nil {
		return fmt.Errorf("adding %s stock: %w", kind, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adding %s stock: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s pool cannot hold %d more", ErrStockOverflow, kind, quantity)
	}
	return nil
}

func checkQuantity(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if quantity > model.MaxQuantity {
		return fmt.Errorf("%w: quantity %d is over %d", ErrStockOverflow, quantity, model.MaxQuantity)
	}
	return nil
}

// DecrementStock takes quantity out of a pool. The check and the update are
// one statement, so concurrent callers can never drive the pool negative;
// when the pool holds too little, nothing changes and ErrInsufficientStock
// is returned.
func DecrementStock(ctx context.Context, q DBTX, kind model.PoolKind, deviceID, locationID int64, quantity int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	p, err := poolFor(kind)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE `+p.table+` SET quantity = quantity - ?
		 WHERE device_id = ? AND `+p.column+` = ? AND quantity >= ?`,
		quantity, deviceID, locationID, quantity,
	)
	if err != nil {
		return fmt.Errorf("taking %s stock: %w", kind, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("taking %s stock: %w", kind, err)
	}
	if n == 0 {
		available, err := GetStock(ctx, q, kind, deviceID, locationID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, available, quantity)
	}
	return nil
}

// AddStock records intake of a bulk device into a warehouse or floor pool.
func AddStock(ctx context.Context, db *sql.DB, kind model.PoolKind, deviceID, locationID int64, quantity int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	if kind != model.PoolWarehouse && kind != model.PoolFloor {
		return fmt.Errorf("stock can only be added to warehouses and floors")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	d, err := GetDevice(ctx, tx, deviceID)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("device not found")
	}
	if d.Serialized() {
		return fmt.Errorf("serialized devices are registered, not stocked")
	}

	var exists bool
	if kind == model.PoolWarehouse {
		w, err := GetWarehouse(ctx, tx, locationID)
		if err != nil {
			return err
		}
		exists = w != nil
	} else {
		f, err := GetFloor(ctx, tx, locationID)
		if err != nil {
			return err
		}
		exists = f != nil
	}
	if !exists {
		return fmt.Errorf("%s not found", kind)
	}

	if err := IncrementStock(ctx, tx, kind, deviceID, locationID, quantity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stock addition: %w", err)
	}
	return nil
}

// StockFilter narrows ListStock. Zero IDs do not filter.
type StockFilter struct {
	Pool       model.PoolKind
	LocationID int64
	DeviceID   int64
}

// ListStock returns the non-empty entries of one pool kind.
func ListStock(ctx context.Context, q DBTX, f StockFilter) ([]model.StockEntry, error) {
	p, err := poolFor(f.Pool)
	if err != nil {
		return nil, err
	}

	query := `SELECT s.device_id, s.` + p.column + `, s.quantity, m.name, l.` + p.nameCol + `
	          FROM ` + p.table + ` s
	          JOIN devices d ON d.id = s.device_id
	          JOIN models m ON m.id = d.model_id
	          JOIN ` + p.nameTable + ` l ON l.id = s.` + p.column + `
	          WHERE s.quantity > 0`
	var args []any
	if f.LocationID > 0 {
		query += ` AND s.` + p.column + ` = ?`
		args = append(args, f.LocationID)
	}
	if f.DeviceID > 0 {
		query += ` AND s.device_id = ?`
		args = append(args, f.DeviceID)
	}
	query += ` ORDER BY l.` + p.nameCol + `, m.name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s stock: %w", f.Pool, err)
	}
	defer rows.Close()

	var entries []model.StockEntry
	for rows.Next() {
		e := model.StockEntry{Pool: f.Pool}
		if err := rows.Scan(&e.DeviceID, &e.LocationID, &e.Quantity, &e.ModelName, &e.LocationName); err != nil {
			return nil, fmt.Errorf("scanning stock: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
