package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetRepoSelectQuery(t *testing.T) {
	repo := NewBudgetRepo(nil)

	sql, args, err := repo.selectQuery("2025_600000").ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT budget_key, store_code, amount FROM budgets WHERE budget_key = $1", sql)
	assert.Equal(t, []any{"2025_600000"}, args)
}

func TestBudgetRepoUpsertQuery(t *testing.T) {
	repo := NewBudgetRepo(nil)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.upsertQuery("2025_600000", "AMS", 4500, now).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO budgets (budget_key,store_code,amount,updated_at) VALUES ($1,$2,$3,$4) "+
			"ON CONFLICT (budget_key, store_code) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at",
		sql)
	assert.Equal(t, []any{"2025_600000", "AMS", float64(4500), now}, args)
}

func TestBudgetRepoKeysQuery(t *testing.T) {
	repo := NewBudgetRepo(nil)

	sql, _, err := repo.builder.
		Select("DISTINCT budget_key").
		From(budgetTable).
		OrderBy("budget_key").
		ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT DISTINCT budget_key FROM budgets ORDER BY budget_key", sql)
}
