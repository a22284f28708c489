package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apidoc-hub/apidoc-backend/internal/members/domain"
)

func setupMemberRepo(t *testing.T) (*MemberRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewMemberRepository(db), mock
}

func TestMemberRepository_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("no membership yields nil, not an error", func(t *testing.T) {
		repo, mock := setupMemberRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id::text, project_id, account_id::text, created_at")).
			WithArgs(int64(7), "acct-1").
			WillReturnError(sql.ErrNoRows)

		m, err := repo.Find(ctx, 7, "acct-1")
		require.NoError(t, err)
		assert.Nil(t, m)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("membership loads its rule grants", func(t *testing.T) {
		repo, mock := setupMemberRepo(t)
		joined := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id::text, project_id, account_id::text, created_at")).
			WithArgs(int64(7), "acct-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "account_id", "created_at"}).
				AddRow("mem-1", int64(7), "acct-1", joined))

		mock.ExpectQuery(regexp.QuoteMeta("FROM member_rules")).
			WithArgs("mem-1").
			WillReturnRows(sqlmock.NewRows([]string{"resource_type", "action"}).
				AddRow("api", "export").
				AddRow("project", "look"))

		m, err := repo.Find(ctx, 7, "acct-1")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "mem-1", m.ID)
		assert.True(t, m.HasRule("api", "export"))
		assert.True(t, m.HasRule("project", "look"))
		assert.False(t, m.HasRule("api", "look"))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberRepository_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("no membership yields an empty set", func(t *testing.T) {
		repo, mock := setupMemberRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("JOIN members m ON m.id = mr.member_id")).
			WithArgs(int64(7), "acct-1").
			WillReturnRows(sqlmock.NewRows([]string{"resource_type", "action"}))

		rules, err := repo.Rules(ctx, 7, "acct-1")
		require.NoError(t, err)
		assert.Empty(t, rules)
		assert.False(t, rules.Has(domain.Rule{ResourceType: "api", Action: "export"}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("grants come back as a value set", func(t *testing.T) {
		repo, mock := setupMemberRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("JOIN members m ON m.id = mr.member_id")).
			WithArgs(int64(7), "acct-1").
			WillReturnRows(sqlmock.NewRows([]string{"resource_type", "action"}).
				AddRow("api", "export"))

		rules, err := repo.Rules(ctx, 7, "acct-1")
		require.NoError(t, err)
		assert.True(t, rules.Has(domain.Rule{ResourceType: "api", Action: "export"}))
		assert.False(t, rules.Has(domain.Rule{ResourceType: "api", Action: "edit"}))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberRepository_ListNonMembers(t *testing.T) {
	ctx := context.Background()

	t.Run("without a query no name filter is applied", func(t *testing.T) {
		repo, mock := setupMemberRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts a")).
			WithArgs(int64(7), "creator-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
				AddRow("acct-2", "dana", "dana@example.com"))

		list, err := repo.ListNonMembers(ctx, 7, "creator-1", "")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "acct-2", list[0].AccountID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query filters name and email case-insensitively", func(t *testing.T) {
		repo, mock := setupMemberRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("a.name ILIKE $3 OR a.email ILIKE $3")).
			WithArgs(int64(7), "creator-1", "%dan%").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
				AddRow("acct-2", "dana", "dana@example.com"))

		list, err := repo.ListNonMembers(ctx, 7, "creator-1", "dan")
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMemberRepository_Grant(t *testing.T) {
	repo, mock := setupMemberRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO member_rules")).
		WithArgs("mem-1", "api", "export").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Grant(context.Background(), "mem-1", domain.Rule{ResourceType: "api", Action: "export"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
