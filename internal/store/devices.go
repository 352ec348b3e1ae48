package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/sredstva/internal/model"
)

const deviceColumns = `d.id, d.model_id, d.serial, d.status, d.warehouse_id, d.floor_id, d.user_id,
	d.note, d.last_transaction_id, d.created_at, d.updated_at, m.name, dt.name`

const deviceJoins = `FROM devices d
	JOIN models m ON m.id = d.model_id
	JOIN device_types dt ON dt.id = m.device_type_id`

func scanDevice(s rowScanner) (*model.Device, error) {
	d := &model.Device{}
	var serial, status, note sql.NullString
	var warehouseID, floorID, userID *int64
	if err := s.Scan(&d.ID, &d.ModelID, &serial, &status, &warehouseID, &floorID, &userID,
		&note, &d.LastTransactionID, &d.CreatedAt, &d.UpdatedAt, &d.ModelName, &d.DeviceTypeName); err != nil {
		return nil, err
	}
	d.Serial = serial.String
	d.Status = model.DeviceStatus(status.String)
	d.Note = note.String
	d.Location = model.LocationFromColumns(warehouseID, floorID, userID)
	return d, nil
}

func getDevice(ctx context.Context, q DBTX, where string, arg any) (*model.Device, error) {
	d, err := scanDevice(q.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` `+deviceJoins+` WHERE `+where, arg,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting device: %w", err)
	}
	return d, nil
}

// RegisterDevice records a new serialized unit, in stock at a warehouse.
func RegisterDevice(ctx context.Context, db *sql.DB, modelID int64, serial string, warehouseID int64, note string) (*model.Device, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, fmt.Errorf("serial number required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	m, err := GetModel(ctx, tx, modelID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("model not found")
	}
	if !m.HasSerial {
		return nil, fmt.Errorf("model %q is not serialized; add stock instead", m.Name)
	}

	w, err := GetWarehouse(ctx, tx, warehouseID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("warehouse not found")
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO devices (model_id, serial, status, warehouse_id, note) VALUES (?, ?, ?, ?, ?)`,
		modelID, serial, model.StatusInStock, warehouseID, note,
	)
	if err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting device id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing device: %w", err)
	}
	return GetDevice(ctx, db, id)
}

// GetDevice returns a device by ID, or nil if it does not exist.
func GetDevice(ctx context.Context, q DBTX, id int64) (*model.Device, error) {
	return getDevice(ctx, q, `d.id = ?`, id)
}

// GetDeviceBySerial returns the serialized unit with exactly this serial.
func GetDeviceBySerial(ctx context.Context, q DBTX, serial string) (*model.Device, error) {
	return getDevice(ctx, q, `d.serial = ?`, serial)
}

// GetBulkDevice returns the bulk bucket of a non-serialized model, or nil if
// the model does not exist or is serialized.
func GetBulkDevice(ctx context.Context, q DBTX, modelID int64) (*model.Device, error) {
	return getDevice(ctx, q, `d.serial IS NULL AND dt.has_serial = 0 AND d.model_id = ?`, modelID)
}

// DeviceFilter narrows ListDevices. Zero fields do not filter.
type DeviceFilter struct {
	ModelID  int64
	Status   model.DeviceStatus
	Location *model.Location
	Serial   string
}

// ListDevices returns devices matching the filter, serialized units first.
func ListDevices(ctx context.Context, q DBTX, f DeviceFilter) ([]model.Device, error) {
	query := `SELECT ` + deviceColumns + ` ` + deviceJoins + ` WHERE 1=1`
	var args []any

	if f.ModelID > 0 {
		query += ` AND d.model_id = ?`
		args = append(args, f.ModelID)
	}
	if f.Status != "" {
		query += ` AND d.status = ?`
		args = append(args, f.Status)
	}
	if f.Serial != "" {
		query += ` AND d.serial LIKE ?`
		args = append(args, "%"+f.Serial+"%")
	}
	if f.Location != nil {
		w, fl, u := f.Location.Columns()
		query += ` AND d.serial IS NOT NULL AND d.warehouse_id IS ? AND d.floor_id IS ? AND d.user_id IS ?`
		args = append(args, w, fl, u)
	}

	query += ` ORDER BY d.serial IS NULL, d.serial, m.name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

// LocateDevice returns where a device currently is.
func LocateDevice(ctx context.Context, q DBTX, id int64) (model.Location, error) {
	var warehouseID, floorID, userID *int64
	err := q.QueryRowContext(ctx,
		`SELECT warehouse_id, floor_id, user_id FROM devices WHERE id = ?`, id,
	).Scan(&warehouseID, &floorID, &userID)
	if err == sql.ErrNoRows {
		return model.Location{}, fmt.Errorf("device %d not found", id)
	}
	if err != nil {
		return model.Location{}, fmt.Errorf("locating device: %w", err)
	}
	return model.LocationFromColumns(warehouseID, floorID, userID), nil
}

// Transition describes a move of a serialized unit from an expected prior
// state to a new one.
type Transition struct {
	DeviceID      int64
	From          model.Location
	FromStatuses  []model.DeviceStatus
	To            model.Location
	ToStatus      model.DeviceStatus
	TransactionID int64
}

// TransitionDevice applies t as one conditional update. If the device is not
// at t.From with one of t.FromStatuses, nothing is written and ErrStaleDevice
// is returned.
func TransitionDevice(ctx context.Context, q DBTX, t Transition) error {
	toW, toF, toU := t.To.Columns()
	fromW, fromF, fromU := t.From.Columns()

	query := `UPDATE devices
	          SET status = ?, warehouse_id = ?, floor_id = ?, user_id = ?,
	              last_transaction_id = COALESCE(?, last_transaction_id), updated_at = CURRENT_TIMESTAMP
	          WHERE id = ? AND serial IS NOT NULL
	            AND warehouse_id IS ? AND floor_id IS ? AND user_id IS ?`
	var txID any
	if t.TransactionID > 0 {
		txID = t.TransactionID
	}
	args := []any{t.ToStatus, toW, toF, toU, txID, t.DeviceID, fromW, fromF, fromU}

	if len(t.FromStatuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(t.FromStatuses)), ",")
		query += ` AND status IN (` + placeholders + `)`
		for _, s := range t.FromStatuses {
			args = append(args, s)
		}
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("moving device %d: %w", t.DeviceID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("moving device %d: %w", t.DeviceID, err)
	}
	if n == 0 {
		return fmt.Errorf("device %d: %w", t.DeviceID, ErrStaleDevice)
	}
	return nil
}

// TouchBulkDevice points a bulk bucket at the last transaction that moved it.
func TouchBulkDevice(ctx context.Context, q DBTX, deviceID, transactionID int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE devices SET last_transaction_id = COALESCE(?, last_transaction_id), updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND serial IS NULL`,
		transactionID, deviceID,
	)
	if err != nil {
		return fmt.Errorf("updating bulk device: %w", err)
	}
	return nil
}
