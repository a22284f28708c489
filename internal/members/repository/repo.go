package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/apidoc-hub/apidoc-backend/internal/members/domain"
)

// MemberRepository provides the membership lookups behind the
// authorization engine.
type MemberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Find returns the membership record for (project, account) with its
// rule grants loaded, or (nil, nil) when no membership exists. Absence
// is not an error and never a zero-valued Member.
func (r *MemberRepository) Find(ctx context.Context, projectID int64, accountID string) (*domain.Member, error) {
	const q = `
SELECT id::text, project_id, account_id::text, created_at
FROM members
WHERE project_id = $1 AND account_id = $2::uuid;
`
	var m domain.Member
	err := r.db.QueryRowContext(ctx, q, projectID, accountID).
		Scan(&m.ID, &m.ProjectID, &m.AccountID, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rules, err := r.rulesForMember(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Rules = rules

	return &m, nil
}

// Rules returns the rule grants for (project, account); an empty set
// when no membership exists.
func (r *MemberRepository) Rules(ctx context.Context, projectID int64, accountID string) (domain.RuleSet, error) {
	const q = `
SELECT mr.resource_type, mr.action
FROM member_rules mr
JOIN members m ON m.id = mr.member_id
WHERE m.project_id = $1 AND m.account_id = $2::uuid;
`
	rows, err := r.db.QueryContext(ctx, q, projectID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := domain.NewRuleSet()
	for rows.Next() {
		var rule domain.Rule
		if err := rows.Scan(&rule.ResourceType, &rule.Action); err != nil {
			return nil, err
		}
		set.Add(rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Add joins an account to a project with no rule grants.
func (r *MemberRepository) Add(ctx context.Context, projectID int64, accountID string) (*domain.Member, error) {
	const q = `
INSERT INTO members (project_id, account_id)
VALUES ($1, $2::uuid)
RETURNING id::text, project_id, account_id::text, created_at;
`
	var m domain.Member
	err := r.db.QueryRowContext(ctx, q, projectID, accountID).
		Scan(&m.ID, &m.ProjectID, &m.AccountID, &m.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	m.Rules = domain.NewRuleSet()
	return &m, nil
}

// Grant records an explicit (resourceType, action) rule for a member.
func (r *MemberRepository) Grant(ctx context.Context, memberID string, rule domain.Rule) error {
	const q = `
INSERT INTO member_rules (member_id, resource_type, action)
VALUES ($1::uuid, $2, $3)
ON CONFLICT (member_id, resource_type, action) DO NOTHING;
`
	_, err := r.db.ExecContext(ctx, q, memberID, rule.ResourceType, rule.Action)
	if err != nil {
		return fmt.Errorf("grant rule: %w", err)
	}
	return nil
}

// Revoke removes a rule grant from a member.
func (r *MemberRepository) Revoke(ctx context.Context, memberID string, rule domain.Rule) error {
	const q = `
DELETE FROM member_rules
WHERE member_id = $1::uuid AND resource_type = $2 AND action = $3;
`
	_, err := r.db.ExecContext(ctx, q, memberID, rule.ResourceType, rule.Action)
	if err != nil {
		return fmt.Errorf("revoke rule: %w", err)
	}
	return nil
}

// Candidate is an account eligible for a project invitation.
type Candidate struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// ListNonMembers returns active accounts that are neither members of
// the project nor its creator, optionally filtered by a
// case-insensitive name/email substring. An empty query applies no
// filter.
func (r *MemberRepository) ListNonMembers(ctx context.Context, projectID int64, creatorID, query string) ([]Candidate, error) {
	q := `
SELECT a.id::text, coalesce(a.name,''), coalesce(a.email,'')
FROM accounts a
WHERE a.is_active
  AND a.id <> $2::uuid
  AND a.id NOT IN (SELECT account_id FROM members WHERE project_id = $1)
`
	args := []interface{}{projectID, creatorID}
	if query != "" {
		q += "  AND (a.name ILIKE $3 OR a.email ILIKE $3)\n"
		args = append(args, "%"+query+"%")
	}
	q += "ORDER BY a.name ASC;"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Candidate, 0, 16)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.AccountID, &c.Name, &c.Email); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MemberRepository) rulesForMember(ctx context.Context, memberID string) (domain.RuleSet, error) {
	const q = `
SELECT resource_type, action
FROM member_rules
WHERE member_id = $1::uuid;
`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := domain.NewRuleSet()
	for rows.Next() {
		var rule domain.Rule
		if err := rows.Scan(&rule.ResourceType, &rule.Action); err != nil {
			return nil, err
		}
		set.Add(rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
