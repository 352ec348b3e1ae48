package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/sredstva/internal/model"
)

// CreateDeviceType creates a device type.
func CreateDeviceType(ctx context.Context, q DBTX, name string, hasSerial bool) (*model.DeviceType, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO device_types (name, has_serial) VALUES (?, ?)`, name, hasSerial,
	)
	if err != nil {
		return nil, fmt.Errorf("creating device type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting device type id: %w", err)
	}

	return GetDeviceType(ctx, q, id)
}

// GetDeviceType returns a device type by ID.
func GetDeviceType(ctx context.Context, q DBTX, id int64) (*model.DeviceType, error) {
	dt := &model.DeviceType{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, has_serial, created_at FROM device_types WHERE id = ?`, id,
	).Scan(&dt.ID, &dt.Name, &dt.HasSerial, &dt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting device type: %w", err)
	}
	return dt, nil
}

// ListDeviceTypes returns all device types.
func ListDeviceTypes(ctx context.Context, q DBTX) ([]model.DeviceType, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, has_serial, created_at FROM device_types ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing device types: %w", err)
	}
	defer rows.Close()

	var types []model.DeviceType
	for rows.Next() {
		var dt model.DeviceType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.HasSerial, &dt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning device type: %w", err)
		}
		types = append(types, dt)
	}
	return types, rows.Err()
}

const modelColumns = `m.id, m.device_type_id, m.name, m.image_mime, m.created_at, dt.name, dt.has_serial`

func scanModel(s rowScanner) (*model.Model, error) {
	m := &model.Model{}
	var imageMime sql.NullString
	if err := s.Scan(&m.ID, &m.DeviceTypeID, &m.Name, &imageMime, &m.CreatedAt, &m.DeviceTypeName, &m.HasSerial); err != nil {
		return nil, err
	}
	m.ImageMime = imageMime.String
	return m, nil
}

// CreateModel creates a model. For device types without serial numbers the
// model's bulk bucket device is created in the same transaction, since stock
// pools are keyed by device.
func CreateModel(ctx context.Context, db *sql.DB, deviceTypeID int64, name string) (*model.Model, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	dt, err := GetDeviceType(ctx, tx, deviceTypeID)
	if err != nil {
		return nil, err
	}
	if dt == nil {
		return nil, fmt.Errorf("device type not found")
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO models (device_type_id, name) VALUES (?, ?)`, deviceTypeID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating model: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting model id: %w", err)
	}

	if !dt.HasSerial {
		if _, err := tx.ExecContext(ctx, `INSERT INTO devices (model_id) VALUES (?)`, id); err != nil {
			return nil, fmt.Errorf("creating bulk device: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing model: %w", err)
	}
	return GetModel(ctx, db, id)
}

// GetModel returns a model by ID.
func GetModel(ctx context.Context, q DBTX, id int64) (*model.Model, error) {
	m, err := scanModel(q.QueryRowContext(ctx,
		`SELECT `+modelColumns+`
		 FROM models m
		 JOIN device_types dt ON dt.id = m.device_type_id
		 WHERE m.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting model: %w", err)
	}
	return m, nil
}

// ListModels returns models, optionally filtered by device type.
func ListModels(ctx context.Context, q DBTX, deviceTypeID int64) ([]model.Model, error) {
	query := `SELECT ` + modelColumns + `
	          FROM models m
	          JOIN device_types dt ON dt.id = m.device_type_id`
	var args []any
	if deviceTypeID > 0 {
		query += ` WHERE m.device_type_id = ?`
		args = append(args, deviceTypeID)
	}
	query += ` ORDER BY dt.name, m.name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	var models []model.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning model: %w", err)
		}
		models = append(models, *m)
	}
	return models, rows.Err()
}

// SetModelImage stores a model's photo.
func SetModelImage(ctx context.Context, q DBTX, id int64, image []byte, mime string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE models SET image = ?, image_mime = ? WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting model image: %w", err)
	}
	return nil
}

// GetModelImage returns a model's photo and MIME type. Both are empty when
// the model has no photo.
func GetModelImage(ctx context.Context, q DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM models WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting model image: %w", err)
	}
	return image, mime.String, nil
}
