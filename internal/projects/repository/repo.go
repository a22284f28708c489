package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/apidoc-hub/apidoc-backend/internal/projects/domain"
)

// ProjectRepository provides read/write access to project records
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, public_id, title, coalesce(remark,''), visibility, status, sort, creator_id::text, created_at, updated_at`

func scanProject(row *sql.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.PublicID, &p.Title, &p.Remark, &p.Visibility,
		&p.Status, &p.Sort, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByPublicID looks up an active project by its shareable id.
func (r *ProjectRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE public_id = $1 AND status = $2;
`
	return scanProject(r.db.QueryRowContext(ctx, q, publicID, domain.StatusActive))
}

// FindByID looks up a project by primary key regardless of status.
func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1;
`
	return scanProject(r.db.QueryRowContext(ctx, q, id))
}

// Create inserts a new project owned by the given account.
func (r *ProjectRepository) Create(ctx context.Context, creatorID, title, remark string, visibility domain.Visibility) (*domain.Project, error) {
	if title == "" {
		return nil, fmt.Errorf("title required")
	}
	if creatorID == "" {
		return nil, fmt.Errorf("creator id required")
	}

	for i := 0; i < 5; i++ {
		publicID, err := domain.NewPublicID("doc")
		if err != nil {
			return nil, err
		}

		q := `
INSERT INTO projects (public_id, title, remark, visibility, status, creator_id)
VALUES ($1, $2, nullif($3,''), $4, $5, $6::uuid)
RETURNING ` + projectColumns + `;
`
		p, err := scanProject(r.db.QueryRowContext(ctx, q,
			publicID, title, remark, visibility, domain.StatusActive, creatorID))
		if err == nil {
			return p, nil
		}

		// unique violation on public_id → retry
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

// ListByCreator returns the active projects owned by an account,
// most prominent first.
func (r *ProjectRepository) ListByCreator(ctx context.Context, creatorID string) ([]domain.Project, error) {
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE creator_id = $1::uuid AND status = $2
ORDER BY sort DESC, id DESC;
`
	return r.queryProjects(ctx, q, creatorID, domain.StatusActive)
}

// SearchFilter narrows a project scan. Zero values mean "no filter".
type SearchFilter struct {
	CreatorID       string
	MemberAccountID string
	Status          int
	Visibilities    []domain.Visibility
	Title           string
}

// Search runs a filtered project scan for listing screens.
func (r *ProjectRepository) Search(ctx context.Context, f SearchFilter) ([]domain.Project, error) {
	conds := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CreatorID != "" {
		add("creator_id = $%d::uuid", f.CreatorID)
	}
	if f.Status != 0 {
		add("status = $%d", f.Status)
	}
	if len(f.Visibilities) > 0 {
		vals := make([]int64, len(f.Visibilities))
		for i, v := range f.Visibilities {
			vals[i] = int64(v)
		}
		add("visibility = any($%d)", pq.Array(vals))
	}
	if f.Title != "" {
		add("title ilike $%d", "%"+f.Title+"%")
	}
	if f.MemberAccountID != "" {
		add("id IN (SELECT project_id FROM members WHERE account_id = $%d::uuid)", f.MemberAccountID)
	}

	q := `SELECT ` + projectColumns + ` FROM projects`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id DESC;"

	return r.queryProjects(ctx, q, args...)
}

func (r *ProjectRepository) queryProjects(ctx context.Context, q string, args ...interface{}) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.PublicID, &p.Title, &p.Remark, &p.Visibility,
			&p.Status, &p.Sort, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
