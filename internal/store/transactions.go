package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/sredstva/internal/model"
)

// ErrTransactionChanged is returned when a transaction header is no longer
// in the status the caller expected.
var ErrTransactionChanged = errors.New("transaction status changed")

const transactionColumns = `t.id, t.reference, t.type, t.status, t.src_warehouse_id, t.dst_warehouse_id,
	t.src_floor_id, t.dst_floor_id, t.user_id, t.target_status, t.note, t.created_by,
	t.created_at, t.updated_at`

func scanTransaction(s rowScanner) (*model.Transaction, error) {
	t := &model.Transaction{}
	var targetStatus, note sql.NullString
	if err := s.Scan(&t.ID, &t.Reference, &t.Type, &t.Status, &t.SrcWarehouseID, &t.DstWarehouseID,
		&t.SrcFloorID, &t.DstFloorID, &t.UserID, &targetStatus, &note, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.TargetStatus = model.DeviceStatus(targetStatus.String)
	t.Note = note.String
	return t, nil
}

// InsertTransaction appends a transaction header to the ledger and sets its ID.
// Lines are added with InsertDetail.
func InsertTransaction(ctx context.Context, q DBTX, t *model.Transaction) error {
	var targetStatus any
	if t.TargetStatus != "" {
		targetStatus = t.TargetStatus
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO asset_transactions
		     (reference, type, status, src_warehouse_id, dst_warehouse_id, src_floor_id, dst_floor_id,
		      user_id, target_status, note, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Reference, t.Type, t.Status, t.SrcWarehouseID, t.DstWarehouseID, t.SrcFloorID, t.DstFloorID,
		t.UserID, targetStatus, t.Note, t.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting transaction id: %w", err)
	}
	t.ID = id
	return nil
}

// InsertDetail appends one line to a transaction.
func InsertDetail(ctx context.Context, q DBTX, transactionID, deviceID int64, quantity int) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO transaction_details (transaction_id, device_id, quantity) VALUES (?, ?, ?)`,
		transactionID, deviceID, quantity,
	)
	if err != nil {
		return 0, fmt.Errorf("recording transaction line: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting transaction line id: %w", err)
	}
	return id, nil
}

// UpdateTransactionStatus moves a header from one status to another. If the
// header is not in status from, nothing changes and ErrTransactionChanged is
// returned.
func UpdateTransactionStatus(ctx context.Context, q DBTX, id int64, from, to model.TransactionStatus) error {
	result, err := q.ExecContext(ctx,
		`UPDATE asset_transactions SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updating transaction status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating transaction status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrTransactionChanged)
	}
	return nil
}

// GetTransaction returns a transaction with its lines, or nil if it does not
// exist.
func GetTransaction(ctx context.Context, q DBTX, id int64) (*model.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM asset_transactions t WHERE t.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	details, err := listDetails(ctx, q, id)
	if err != nil {
		return nil, err
	}
	t.Details = details
	return t, nil
}

func listDetails(ctx context.Context, q DBTX, transactionID int64) ([]model.TransactionDetail, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT td.id, td.transaction_id, td.device_id, td.quantity, COALESCE(d.serial, ''), m.name
		 FROM transaction_details td
		 JOIN devices d ON d.id = td.device_id
		 JOIN models m ON m.id = d.model_id
		 WHERE td.transaction_id = ?
		 ORDER BY td.id`, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transaction lines: %w", err)
	}
	defer rows.Close()

	var details []model.TransactionDetail
	for rows.Next() {
		var td model.TransactionDetail
		if err := rows.Scan(&td.ID, &td.TransactionID, &td.DeviceID, &td.Quantity, &td.Serial, &td.ModelName); err != nil {
			return nil, fmt.Errorf("scanning transaction line: %w", err)
		}
		details = append(details, td)
	}
	return details, rows.Err()
}

// TransactionFilter narrows ListTransactions. Zero fields do not filter.
type TransactionFilter struct {
	Type     model.TransactionType
	Status   model.TransactionStatus
	DeviceID int64
	UserID   int64
	Limit    int
}

// ListTransactions returns transaction headers, newest first. Lines are not
// loaded; use GetTransaction for those.
func ListTransactions(ctx context.Context, q DBTX, f TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM asset_transactions t WHERE 1=1`
	var args []any

	if f.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, f.Type)
	}
	if f.Status != "" {
		query += ` AND t.status = ?`
		args = append(args, f.Status)
	}
	if f.DeviceID > 0 {
		query += ` AND EXISTS (SELECT 1 FROM transaction_details td WHERE td.transaction_id = t.id AND td.device_id = ?)`
		args = append(args, f.DeviceID)
	}
	if f.UserID > 0 {
		query += ` AND t.user_id = ?`
		args = append(args, f.UserID)
	}

	query += ` ORDER BY t.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// LastTransactionType returns the type of the most recent ledger entry with a
// line for the device. ok is false if the device has no history.
func LastTransactionType(ctx context.Context, q DBTX, deviceID int64) (typ model.TransactionType, ok bool, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT t.type
		 FROM transaction_details td
		 JOIN asset_transactions t ON t.id = td.transaction_id
		 WHERE td.device_id = ?
		 ORDER BY t.id DESC
		 LIMIT 1`, deviceID,
	).Scan(&typ)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting last transaction: %w", err)
	}
	return typ, true, nil
}

// OutstandingQuantity returns how much of a device left in transactions of
// type out and has not yet come back in transactions of type back. Canceled
// transactions do not count.
func OutstandingQuantity(ctx context.Context, q DBTX, deviceID int64, out, back model.TransactionType) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN t.type = ? THEN td.quantity
		                          WHEN t.type = ? THEN -td.quantity END), 0)
		 FROM transaction_details td
		 JOIN asset_transactions t ON t.id = td.transaction_id
		 WHERE td.device_id = ? AND t.status != ?`,
		out, back, deviceID, model.TxStatusCanceled,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("getting outstanding %s quantity: %w", out, err)
	}
	return n, nil
}

// GetDeviceHistory returns every ledger line for a device, newest first.
func GetDeviceHistory(ctx context.Context, q DBTX, deviceID int64) ([]model.DeviceHistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT t.id, t.reference, t.type, t.status, td.quantity, t.note, t.created_by, t.created_at
		 FROM transaction_details td
		 JOIN asset_transactions t ON t.id = td.transaction_id
		 WHERE td.device_id = ?
		 ORDER BY t.id DESC`, deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting device history: %w", err)
	}
	defer rows.Close()

	var history []model.DeviceHistoryEntry
	for rows.Next() {
		var h model.DeviceHistoryEntry
		var note sql.NullString
		if err := rows.Scan(&h.TransactionID, &h.Reference, &h.Type, &h.Status, &h.Quantity, &note, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning device history: %w", err)
		}
		h.Note = note.String
		history = append(history, h)
	}
	return history, rows.Err()
}

// ListInTransit returns bulk quantities debited by pending site transfers but
// not yet credited to their destination warehouse. LocationID is the
// destination.
func ListInTransit(ctx context.Context, q DBTX) ([]model.StockEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT td.device_id, t.dst_warehouse_id, SUM(td.quantity), m.name, w.name
		 FROM transaction_details td
		 JOIN asset_transactions t ON t.id = td.transaction_id
		 JOIN devices d ON d.id = td.device_id
		 JOIN models m ON m.id = d.model_id
		 JOIN warehouses w ON w.id = t.dst_warehouse_id
		 WHERE t.type = ? AND t.status = ? AND d.serial IS NULL
		 GROUP BY td.device_id, t.dst_warehouse_id
		 ORDER BY w.name, m.name`,
		model.TxTransferSite, model.TxStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stock in transit: %w", err)
	}
	defer rows.Close()

	var entries []model.StockEntry
	for rows.Next() {
		e := model.StockEntry{Pool: model.PoolWarehouse}
		if err := rows.Scan(&e.DeviceID, &e.LocationID, &e.Quantity, &e.ModelName, &e.LocationName); err != nil {
			return nil, fmt.Errorf("scanning stock in transit: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
