package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/sredstva/internal/model"
)

// CreateSite creates a new site.
func CreateSite(ctx context.Context, q DBTX, name string) (*model.Site, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO sites (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating site: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting site id: %w", err)
	}

	return GetSite(ctx, q, id)
}

// GetSite returns a site by ID.
func GetSite(ctx context.Context, q DBTX, id int64) (*model.Site, error) {
	s := &model.Site{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM sites WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting site: %w", err)
	}
	return s, nil
}

// ListSites returns all sites ordered by name.
func ListSites(ctx context.Context, q DBTX) ([]model.Site, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, created_at FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var s model.Site
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// CreateWarehouse creates a warehouse on a site.
func CreateWarehouse(ctx context.Context, q DBTX, siteID int64, name string) (*model.Warehouse, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO warehouses (site_id, name) VALUES (?, ?)`, siteID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating warehouse: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting warehouse id: %w", err)
	}

	return GetWarehouse(ctx, q, id)
}

// GetWarehouse returns a warehouse by ID, or nil if it does not exist.
func GetWarehouse(ctx context.Context, q DBTX, id int64) (*model.Warehouse, error) {
	w := &model.Warehouse{}
	err := q.QueryRowContext(ctx,
		`SELECT w.id, w.site_id, w.name, w.created_at, s.name
		 FROM warehouses w
		 JOIN sites s ON s.id = w.site_id
		 WHERE w.id = ?`, id,
	).Scan(&w.ID, &w.SiteID, &w.Name, &w.CreatedAt, &w.SiteName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting warehouse: %w", err)
	}
	return w, nil
}

// ListWarehouses returns warehouses, optionally filtered by site.
func ListWarehouses(ctx context.Context, q DBTX, siteID int64) ([]model.Warehouse, error) {
	query := `SELECT w.id, w.site_id, w.name, w.created_at, s.name
	          FROM warehouses w
	          JOIN sites s ON s.id = w.site_id`
	var args []any
	if siteID > 0 {
		query += ` WHERE w.site_id = ?`
		args = append(args, siteID)
	}
	query += ` ORDER BY s.name, w.name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []model.Warehouse
	for rows.Next() {
		var w model.Warehouse
		if err := rows.Scan(&w.ID, &w.SiteID, &w.Name, &w.CreatedAt, &w.SiteName); err != nil {
			return nil, fmt.Errorf("scanning warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

// CreateFloor creates a floor on a site.
func CreateFloor(ctx context.Context, q DBTX, siteID int64, name string) (*model.Floor, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO floors (site_id, name) VALUES (?, ?)`, siteID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating floor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting floor id: %w", err)
	}

	return GetFloor(ctx, q, id)
}

// GetFloor returns a floor by ID, or nil if it does not exist.
func GetFloor(ctx context.Context, q DBTX, id int64) (*model.Floor, error) {
	f := &model.Floor{}
	err := q.QueryRowContext(ctx,
		`SELECT f.id, f.site_id, f.name, f.created_at, s.name
		 FROM floors f
		 JOIN sites s ON s.id = f.site_id
		 WHERE f.id = ?`, id,
	).Scan(&f.ID, &f.SiteID, &f.Name, &f.CreatedAt, &f.SiteName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting floor: %w", err)
	}
	return f, nil
}

// ListFloors returns floors, optionally filtered by site.
func ListFloors(ctx context.Context, q DBTX, siteID int64) ([]model.Floor, error) {
	query := `SELECT f.id, f.site_id, f.name, f.created_at, s.name
	          FROM floors f
	          JOIN sites s ON s.id = f.site_id`
	var args []any
	if siteID > 0 {
		query += ` WHERE f.site_id = ?`
		args = append(args, siteID)
	}
	query += ` ORDER BY s.name, f.name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing floors: %w", err)
	}
	defer rows.Close()

	var floors []model.Floor
	for rows.Next() {
		var f model.Floor
		if err := rows.Scan(&f.ID, &f.SiteID, &f.Name, &f.CreatedAt, &f.SiteName); err != nil {
			return nil, fmt.Errorf("scanning floor: %w", err)
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}
