package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/apidoc-hub/apidoc-backend/internal/apis/domain"
)

// APIRepository provides read access to modules and APIs
type APIRepository struct {
	db *sql.DB
}

// NewAPIRepository creates a new api repository
func NewAPIRepository(db *sql.DB) *APIRepository {
	return &APIRepository{db: db}
}

// FindByPublicID resolves an active API by its shareable id, joined up
// to the owning module and project.
func (r *APIRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Detail, error) {
	const q = `
SELECT a.id, a.public_id, a.module_id, a.title, a.method, a.uri, coalesce(a.remark,''),
       a.status, a.sort, a.created_at, a.updated_at,
       m.id, m.project_id, m.title, m.version, m.status, m.sort
FROM apis a
JOIN modules m ON m.id = a.module_id
WHERE a.public_id = $1 AND a.status = $2;
`
	var d domain.Detail
	err := r.db.QueryRowContext(ctx, q, publicID, domain.StatusActive).Scan(
		&d.API.ID, &d.API.PublicID, &d.API.ModuleID, &d.API.Title, &d.API.Method,
		&d.API.URI, &d.API.Remark, &d.API.Status, &d.API.Sort, &d.API.CreatedAt, &d.API.UpdatedAt,
		&d.Module.ID, &d.Module.ProjectID, &d.Module.Title, &d.Module.Version,
		&d.Module.Status, &d.Module.Sort,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	d.ProjectID = d.Module.ProjectID
	return &d, nil
}

// ListModules returns a project's active modules, most prominent first.
func (r *APIRepository) ListModules(ctx context.Context, projectID int64) ([]domain.Module, error) {
	const q = `
SELECT id, project_id, title, version, status, sort
FROM modules
WHERE project_id = $1 AND status = $2
ORDER BY sort DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, projectID, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Module, 0, 8)
	for rows.Next() {
		var m domain.Module
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Version, &m.Status, &m.Sort); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByModule returns a module's active APIs, most prominent first.
func (r *APIRepository) ListByModule(ctx context.Context, moduleID int64) ([]domain.API, error) {
	const q = `
SELECT id, public_id, module_id, title, method, uri, coalesce(remark,''), status, sort, created_at, updated_at
FROM apis
WHERE module_id = $1 AND status = $2
ORDER BY sort DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, moduleID, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.API, 0, 16)
	for rows.Next() {
		var a domain.API
		if err := rows.Scan(&a.ID, &a.PublicID, &a.ModuleID, &a.Title, &a.Method,
			&a.URI, &a.Remark, &a.Status, &a.Sort, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
