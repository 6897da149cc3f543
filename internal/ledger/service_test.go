package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"finance_portfolio/internal/domain"
	"finance_portfolio/internal/testutil"
	"finance_portfolio/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu       sync.Mutex
	balances map[uint][]string
}

func (n *recordingNotifier) NotifyBalance(userID uint, balance decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.balances == nil {
		n.balances = map[uint][]string{}
	}
	n.balances[userID] = append(n.balances[userID], balance.StringFixed(2))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func input(txType, category, amount string, date time.Time) TransactionInput {
	return TransactionInput{Type: txType, Category: category, Amount: dec(amount), Description: category + " purchase", Date: date}
}

func balanceOf(t *testing.T, gdb *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()
	var p domain.UserProfile
	require.NoError(t, gdb.Where("user_id = ?", userID).First(&p).Error)
	return p.TotalBalance
}

func TestBalanceFollowsEveryWrite(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	notifier := &recordingNotifier{}
	svc := NewService(gdb, nil, notifier)
	ctx := context.Background()
	today := time.Now().UTC()

	_, err := svc.Create(ctx, user.ID, input(domain.TypeIncome, domain.CategorySalary, "1000", today))
	require.NoError(t, err)
	expense, err := svc.Create(ctx, user.ID, input(domain.TypeExpense, domain.CategoryFood, "200", today))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, gdb, user.ID).Equal(dec("800")))

	_, err = svc.Update(ctx, user.ID, expense.ID, input(domain.TypeExpense, domain.CategoryFood, "300", today))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, gdb, user.ID).Equal(dec("700")))

	require.NoError(t, svc.Delete(ctx, user.ID, expense.ID))
	assert.True(t, balanceOf(t, gdb, user.ID).Equal(dec("1000")))

	assert.Equal(t, []string{"1000.00", "800.00", "700.00", "1000.00"}, notifier.balances[user.ID])
}

func TestCreateStoresAbsoluteAmount(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	svc := NewService(gdb, nil, nil)

	tx, err := svc.Create(context.Background(), user.ID, input(domain.TypeExpense, domain.CategoryFood, "-50", time.Now()))
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), user.ID, tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("50")))
	assert.True(t, balanceOf(t, gdb, user.ID).Equal(dec("-50")))
}

func TestBalanceFollowsTypeChangesAcrossUsers(t *testing.T) {
	gdb := testutil.NewDB(t)
	alice := testutil.NewUser(t, gdb, "alice")
	bob := testutil.NewUser(t, gdb, "bob")
	notifier := &recordingNotifier{}
	svc := NewService(gdb, nil, notifier)
	ctx := context.Background()
	today := time.Now().UTC()

	pay, err := svc.Create(ctx, alice.ID, input(domain.TypeIncome, domain.CategorySalary, "500", today))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob.ID, input(domain.TypeIncome, domain.CategorySalary, "70", today))
	require.NoError(t, err)
	rent, err := svc.Create(ctx, bob.ID, input(domain.TypeExpense, domain.CategoryBills, "20", today))
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, input(domain.TypeExpense, domain.CategoryFood, "100", today))
	require.NoError(t, err)

	// Income becomes an expense: the sign of its amount flips
	_, err = svc.Update(ctx, alice.ID, pay.ID, input(domain.TypeExpense, domain.CategorySalary, "500", today))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, gdb, alice.ID).Equal(dec("-600")))
	assert.True(t, balanceOf(t, gdb, bob.ID).Equal(dec("50")))

	// And back, on the other user
	_, err = svc.Update(ctx, bob.ID, rent.ID, input(domain.TypeIncome, domain.CategoryBills, "20", today))
	require.NoError(t, err)
	assert.True(t, balanceOf(t, gdb, bob.ID).Equal(dec("90")))
	assert.True(t, balanceOf(t, gdb, alice.ID).Equal(dec("-600")))

	assert.Equal(t, []string{"500.00", "400.00", "-600.00"}, notifier.balances[alice.ID])
	assert.Equal(t, []string{"70.00", "50.00", "90.00"}, notifier.balances[bob.ID])
}

func TestGetOrCreateProfileReloadsAfterLostRace(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	require.NoError(t, gdb.Model(&domain.UserProfile{}).Where("user_id = ?", user.ID).Update("monthly_budget", 777).Error)

	// The first lookup misses as if the other writer had not committed yet
	missed := false
	require.NoError(t, gdb.Callback().Query().After("gorm:query").Register("test:stale_profile_read", func(db *gorm.DB) {
		if !missed && db.Statement.Table == "user_profiles" {
			missed = true
			db.Statement.RowsAffected = 0
			db.AddError(gorm.ErrRecordNotFound)
		}
	}))

	var profile domain.UserProfile
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var err error
		profile, err = GetOrCreateProfile(tx, user.ID)
		return err
	})
	require.NoError(t, err)
	assert.True(t, missed)
	assert.True(t, profile.MonthlyBudget.Equal(dec("777")))

	var count int64
	require.NoError(t, gdb.Model(&domain.UserProfile{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateMakesMissingProfile(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	require.NoError(t, gdb.Where("user_id = ?", user.ID).Delete(&domain.UserProfile{}).Error)
	svc := NewService(gdb, nil, nil)

	_, err := svc.Create(context.Background(), user.ID, input(domain.TypeIncome, domain.CategorySalary, "10", time.Now()))
	require.NoError(t, err)

	var p domain.UserProfile
	require.NoError(t, gdb.Where("user_id = ?", user.ID).First(&p).Error)
	assert.True(t, p.TotalBalance.Equal(dec("10")))
	assert.True(t, p.MonthlyBudget.Equal(domain.DefaultMonthlyBudget))
}

func TestDeleteWithoutProfileSkipsRecompute(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	notifier := &recordingNotifier{}
	svc := NewService(gdb, nil, notifier)
	ctx := context.Background()

	tx, err := svc.Create(ctx, user.ID, input(domain.TypeIncome, domain.CategorySalary, "10", time.Now()))
	require.NoError(t, err)
	require.NoError(t, gdb.Where("user_id = ?", user.ID).Delete(&domain.UserProfile{}).Error)

	require.NoError(t, svc.Delete(ctx, user.ID, tx.ID))

	var count int64
	require.NoError(t, gdb.Model(&domain.UserProfile{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count, "delete must not create a profile")
	assert.Len(t, notifier.balances[user.ID], 1)
}

func TestOtherUsersTransactionsAreNotFound(t *testing.T) {
	gdb := testutil.NewDB(t)
	alice := testutil.NewUser(t, gdb, "alice")
	bob := testutil.NewUser(t, gdb, "bob")
	svc := NewService(gdb, nil, nil)
	ctx := context.Background()

	tx, err := svc.Create(ctx, alice.ID, input(domain.TypeExpense, domain.CategoryFood, "20", time.Now()))
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob.ID, tx.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, bob.ID, tx.ID, input(domain.TypeExpense, domain.CategoryFood, "1", time.Now()))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bob.ID, tx.ID), ErrNotFound)

	stored, err := svc.Get(ctx, alice.ID, tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("20")))
	assert.True(t, balanceOf(t, gdb, bob.ID).IsZero())
}

func TestListFiltersAndSearch(t *testing.T) {
	gdb := testutil.NewDB(t)
	alice := testutil.NewUser(t, gdb, "alice")
	bob := testutil.NewUser(t, gdb, "bob")
	svc := NewService(gdb, nil, nil)
	ctx := context.Background()
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for _, in := range []TransactionInput{
		{Type: domain.TypeExpense, Category: domain.CategoryFood, Amount: dec("12"), Description: "Lunch", Date: day},
		{Type: domain.TypeExpense, Category: domain.CategoryTransport, Amount: dec("30"), Description: "Fast FOOD on the train", Date: day.AddDate(0, 0, 1)},
		{Type: domain.TypeExpense, Category: domain.CategoryBills, Amount: dec("90"), Description: "Power", Date: day.AddDate(0, 0, 2)},
		{Type: domain.TypeIncome, Category: domain.CategorySalary, Amount: dec("2000"), Description: "October pay", Date: day.AddDate(0, 0, 3)},
	} {
		_, err := svc.Create(ctx, alice.ID, in)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, bob.ID, TransactionInput{Type: domain.TypeExpense, Category: domain.CategoryFood, Amount: dec("5"), Description: "food", Date: day})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"October pay", "Power", "Fast FOOD on the train", "Lunch"}},
		{"type", Filter{Type: domain.TypeIncome}, []string{"October pay"}},
		{"unknown type ignored", Filter{Type: "TRANSFER"}, []string{"October pay", "Power", "Fast FOOD on the train", "Lunch"}},
		{"category", Filter{Category: domain.CategoryBills}, []string{"Power"}},
		{"search matches description or category", Filter{Search: "food"}, []string{"Fast FOOD on the train", "Lunch"}},
		{"search and type", Filter{Search: "o", Type: domain.TypeIncome}, []string{"October pay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, alice.ID, tt.filter, 1, utils.DefaultPageSize)
			require.NoError(t, err)
			var got []string
			for _, item := range page.Items {
				got = append(got, item.Description)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(len(tt.want)), page.Page.Total)
		})
	}
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	svc := NewService(gdb, nil, nil)
	ctx := context.Background()
	day := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i, in := range []TransactionInput{
		{Type: domain.TypeExpense, Category: domain.CategoryFood, Amount: dec("12"), Description: "Lunch"},
		{Type: domain.TypeExpense, Category: domain.CategoryShopping, Amount: dec("40"), Description: "50% off sale"},
		{Type: domain.TypeExpense, Category: domain.CategoryOther, Amount: dec("25"), Description: "gift_card"},
	} {
		in.Date = day.AddDate(0, 0, i)
		_, err := svc.Create(ctx, user.ID, in)
		require.NoError(t, err)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"%", []string{"50% off sale"}},
		{"0%", []string{"50% off sale"}},
		{"_", []string{"gift_card"}},
		{"t_c", []string{"gift_card"}},
		{"lunch", []string{"Lunch"}},
		{"shop", []string{"50% off sale"}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			page, err := svc.List(ctx, user.ID, Filter{Search: tt.search}, 1, utils.DefaultPageSize)
			require.NoError(t, err)
			var got []string
			for _, item := range page.Items {
				got = append(got, item.Description)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListPaginates(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	svc := NewService(gdb, nil, nil)
	ctx := context.Background()
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, user.ID, input(domain.TypeExpense, domain.CategoryOther, "1", day.AddDate(0, 0, i)))
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, user.ID, Filter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Page.TotalPages)
	assert.Equal(t, day.AddDate(0, 0, 2), page.Items[0].Date.UTC())

	last, err := svc.List(ctx, user.ID, Filter{}, 100000000000000000, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, last.Page.Number)
	require.Len(t, last.Items, 1)
	assert.Equal(t, day, last.Items[0].Date.UTC())
}

func TestUpdateBudgetInvalidatesDashboard(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.NewUser(t, gdb, "alice")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	svc := NewService(gdb, rdb, nil)
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(utils.DashboardCacheKey(user.ID)))

	profile, err := svc.UpdateBudget(ctx, user.ID, dec("1500.50"))
	require.NoError(t, err)
	assert.False(t, mr.Exists(utils.DashboardCacheKey(user.ID)))

	stored, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, stored.ID)
	assert.True(t, stored.MonthlyBudget.Equal(dec("1500.50")))
}
