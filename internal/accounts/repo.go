package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("account not found")

// Account is the resolved identity record behind an actor. Admin
// accounts bypass all project-level checks; inactive accounts are
// rejected at the identity middleware.
type Account struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Admin  bool   `json:"is_admin"`
	Active bool   `json:"is_active"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type EnsureAccount struct {
	FirebaseUID string
	Email       string
	Name        string
}

// Ensure upserts the account row for a verified firebase uid and
// returns the resolved record, including the admin and active flags
// the policy layer needs.
func (r *Repo) Ensure(ctx context.Context, a EnsureAccount) (Account, error) {
	if a.FirebaseUID == "" {
		return Account{}, fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into accounts (firebase_uid, email, name, updated_at)
values ($1, nullif($2,''), nullif($3,''), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, accounts.email),
  name = coalesce(excluded.name, accounts.name),
  updated_at = now()
returning id::text, coalesce(email,''), coalesce(name,''), is_admin, is_active;
`
	var acct Account
	err := r.db.QueryRow(ctx, q, a.FirebaseUID, a.Email, a.Name).
		Scan(&acct.ID, &acct.Email, &acct.Name, &acct.Admin, &acct.Active)
	if err != nil {
		return Account{}, fmt.Errorf("ensure account: %w", err)
	}
	return acct, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (Account, error) {
	const q = `
select id::text, coalesce(email,''), coalesce(name,''), is_admin, is_active
from accounts
where id = $1::uuid;
`
	var acct Account
	err := r.db.QueryRow(ctx, q, id).
		Scan(&acct.ID, &acct.Email, &acct.Name, &acct.Admin, &acct.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return acct, nil
}
