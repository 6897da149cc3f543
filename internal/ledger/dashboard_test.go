package ledger

import (
	"context"
	"testing"
	"time"

	"finance_portfolio/internal/domain"
	"finance_portfolio/internal/testutil"
	"finance_portfolio/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthBounds(t *testing.T) {
	from, to := MonthBounds(time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), to)
}

func TestDashboardAggregates(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	svc := NewService(gdb, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	day := func(month time.Month, d int) time.Time { return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC) }
	for _, in := range []TransactionInput{
		input(domain.TypeIncome, domain.CategorySalary, "3000", day(10, 1)),
		input(domain.TypeExpense, domain.CategoryFood, "300", day(10, 2)),
		input(domain.TypeExpense, domain.CategoryFood, "200", day(10, 5)),
		input(domain.TypeExpense, domain.CategoryBills, "250.50", day(10, 18)),
		input(domain.TypeExpense, domain.CategoryTransport, "100", day(9, 30)),
		input(domain.TypeExpense, domain.CategoryShopping, "999", day(10, 25)), // After today
	} {
		_, err := svc.Create(ctx, user.ID, in)
		require.NoError(t, err)
	}
	_, err := svc.UpdateBudget(ctx, user.ID, dec("1000"))
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "750.50", d.MonthlyExpenses.StringFixed(2))
	assert.Equal(t, "3000.00", d.MonthlyIncome.StringFixed(2))
	assert.Equal(t, "1849.50", d.TotalExpenses.StringFixed(2))
	assert.Equal(t, "3000.00", d.TotalIncome.StringFixed(2))
	assert.Equal(t, "1150.50", d.TotalBalance.StringFixed(2))
	assert.Equal(t, "249.50", d.BudgetRemaining.StringFixed(2))
	assert.Equal(t, "75.05", d.BudgetPercentage.StringFixed(2))
	assert.Equal(t, domain.BudgetWarning, d.BudgetStatus)
	assert.Equal(t, "October 2026", d.MonthLabel)

	require.Len(t, d.Categories, 2)
	assert.Equal(t, domain.CategoryFood, d.Categories[0].Category)
	assert.Equal(t, "Food & Dining", d.Categories[0].Label)
	assert.Equal(t, "500.00", d.Categories[0].Total.StringFixed(2))
	assert.Equal(t, "66.6", d.Categories[0].Percentage.String())
	assert.Equal(t, domain.CategoryBills, d.Categories[1].Category)

	require.Len(t, d.Recent, 5)
	assert.Equal(t, domain.CategoryShopping, d.Recent[0].Category)
}

func TestDashboardZeroBudget(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	svc := NewService(gdb, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, user.ID, input(domain.TypeExpense, domain.CategoryFood, "1200", time.Now().UTC()))
	require.NoError(t, err)
	_, err = svc.UpdateBudget(ctx, user.ID, dec("0"))
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, d.BudgetPercentage.IsZero())
	assert.Equal(t, domain.BudgetNone, d.BudgetStatus)
	assert.Equal(t, "-1200.00", d.BudgetRemaining.StringFixed(2))
}

func TestDashboardEmptyUser(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	svc := NewService(gdb, nil, nil)

	d, err := svc.Dashboard(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", d.MonthlyExpenses.StringFixed(2))
	assert.Equal(t, "0.00", d.TotalIncome.StringFixed(2))
	assert.Equal(t, domain.BudgetSafe, d.BudgetStatus)
	assert.Empty(t, d.Categories)
	assert.Empty(t, d.Recent)
}

func TestDashboardIsCachedUntilNextWrite(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	svc := NewService(gdb, rdb, nil)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, first.TotalIncome.IsZero())

	// A row written behind the service's back is hidden by the cache
	require.NoError(t, gdb.Create(&domain.Transaction{UserID: user.ID, Type: domain.TypeIncome, Category: domain.CategorySalary, Amount: dec("10"), Date: time.Now()}).Error)
	cached, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cached.TotalIncome.IsZero())

	_, err = svc.Create(ctx, user.ID, input(domain.TypeIncome, domain.CategorySalary, "5", time.Now()))
	require.NoError(t, err)
	assert.False(t, mr.Exists(utils.DashboardCacheKey(user.ID)))

	fresh, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.00", fresh.TotalIncome.StringFixed(2))
}
