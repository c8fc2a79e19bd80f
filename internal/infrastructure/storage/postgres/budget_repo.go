package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"ledgerscope/internal/domain/budget"
)

const budgetTable = "budgets"

var _ budget.Store = (*BudgetRepo)(nil)

// budgetRow mirrors one row of the budgets table.
type budgetRow struct {
	BudgetKey string  `db:"budget_key"`
	StoreCode string  `db:"store_code"`
	Amount    float64 `db:"amount"`
}

// BudgetRepo implements budget.Store on PostgreSQL. One row per
// (budget key, store code) pair, upserted on write.
type BudgetRepo struct {
	pool    *Pool
	builder squirrel.StatementBuilderType
}

// NewBudgetRepo creates a new budget repository.
func NewBudgetRepo(pool *Pool) *BudgetRepo {
	return &BudgetRepo{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Migrate creates the budgets table if it does not exist yet.
func (r *BudgetRepo) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS budgets (
			budget_key TEXT NOT NULL,
			store_code TEXT NOT NULL,
			amount     DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (budget_key, store_code)
		)
	`)
	if err != nil {
		return fmt.Errorf("create budgets table: %w", err)
	}
	return nil
}

func (r *BudgetRepo) selectQuery(key string) squirrel.SelectBuilder {
	return r.builder.
		Select("budget_key", "store_code", "amount").
		From(budgetTable).
		Where(squirrel.Eq{"budget_key": key})
}

func (r *BudgetRepo) upsertQuery(key, store string, amount float64, now time.Time) squirrel.InsertBuilder {
	return r.builder.
		Insert(budgetTable).
		Columns("budget_key", "store_code", "amount", "updated_at").
		Values(key, store, amount, now).
		Suffix("ON CONFLICT (budget_key, store_code) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at")
}

func (r *BudgetRepo) Get(ctx context.Context, key string) (map[string]float64, error) {
	sql, args, err := r.selectQuery(key).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []budgetRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select budget %s: %w", key, err)
	}

	amounts := make(map[string]float64, len(rows))
	for _, row := range rows {
		amounts[row.StoreCode] = row.Amount
	}
	return amounts, nil
}

func (r *BudgetRepo) Set(ctx context.Context, key, store string, amount float64) error {
	sql, args, err := r.upsertQuery(key, store, amount, time.Now()).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert budget %s/%s: %w", key, store, err)
	}
	return nil
}

// SetAll replaces the whole mapping under a key in one transaction so a
// concurrent reader never sees a half-written budget.
func (r *BudgetRepo) SetAll(ctx context.Context, key string, amounts map[string]float64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		delSQL, delArgs, err := r.builder.
			Delete(budgetTable).
			Where(squirrel.Eq{"budget_key": key}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		if _, err := tx.Exec(ctx, delSQL, delArgs...); err != nil {
			return fmt.Errorf("clear budget %s: %w", key, err)
		}

		if len(amounts) == 0 {
			return nil
		}

		q := r.builder.
			Insert(budgetTable).
			Columns("budget_key", "store_code", "amount", "updated_at")
		now := time.Now()
		for store, amount := range amounts {
			q = q.Values(key, store, amount, now)
		}

		insSQL, insArgs, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.Exec(ctx, insSQL, insArgs...); err != nil {
			return fmt.Errorf("insert budget %s: %w", key, err)
		}
		return nil
	})
}

func (r *BudgetRepo) Clear(ctx context.Context, key string) error {
	sql, args, err := r.builder.
		Delete(budgetTable).
		Where(squirrel.Eq{"budget_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear budget %s: %w", key, err)
	}
	return nil
}

func (r *BudgetRepo) Keys(ctx context.Context) ([]string, error) {
	sql, args, err := r.builder.
		Select("DISTINCT budget_key").
		From(budgetTable).
		OrderBy("budget_key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var keys []string
	if err := pgxscan.Select(ctx, r.pool, &keys, sql, args...); err != nil {
		return nil, fmt.Errorf("select budget keys: %w", err)
	}
	return keys, nil
}
