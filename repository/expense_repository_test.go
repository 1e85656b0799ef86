package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensetracker/analytics"
	"expensetracker/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockRepo(t *testing.T) (*ExpenseRepository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewExpenseRepository(gormDB), mock
}

var (
	ctx     = context.Background()
	june    = analytics.MonthWindow(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 0)
	expCols = []string{"id", "user_id", "amount", "description", "category", "expense_time", "created_at"}
)

func TestExpenseRepository_Create(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	e := &models.Expense{
		UserID:      1,
		Amount:      decimal.RequireFromString("12.50"),
		Description: "Lunch",
		Category:    models.CategoryFood,
		ExpenseTime: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, e))
	assert.Equal(t, uint(7), e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_Delete(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `expenses` WHERE id = \\? AND user_id = \\?").
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(ctx, 1, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_Delete_OtherUsersRecord(t *testing.T) {
	repo, mock := setupMockRepo(t)

	// 记录属于其他用户时，带 user_id 条件的删除影响 0 行
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `expenses` WHERE id = \\? AND user_id = \\?").
		WithArgs(5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(ctx, 2, 5)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_Delete_StoreFailure(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `expenses`").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Delete(ctx, 1, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrExpenseNotFound)
	assert.ErrorContains(t, err, "connection reset")
}

func TestExpenseRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `expenses` WHERE id = \\? AND user_id = \\?").
		WithArgs(9, 1).
		WillReturnRows(sqlmock.NewRows(expCols))

	_, err := repo.FindByID(ctx, 1, 9)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_List(t *testing.T) {
	repo, mock := setupMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `expenses` WHERE user_id = \\? AND category = \\?").
		WithArgs(1, models.CategoryFood).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT \\* FROM `expenses` WHERE user_id = \\? AND category = \\? ORDER BY expense_time DESC, created_at DESC LIMIT 2 OFFSET 2").
		WithArgs(1, models.CategoryFood).
		WillReturnRows(sqlmock.NewRows(expCols).
			AddRow(1, 1, "9.90", "Coffee", models.CategoryFood, now, now))

	list, total, err := repo.List(ctx, 1, ExpenseFilter{Category: models.CategoryFood, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("9.9")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_SumAmount(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses` WHERE user_id = \\? AND \\(expense_time >= \\? AND expense_time <= \\?\\)").
		WithArgs(1, june.Start, june.End).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("123.45"))

	total, err := repo.SumAmount(ctx, 1, june)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("123.45")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_SumAmount_Error(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery("SELECT COALESCE").WillReturnError(errors.New("server has gone away"))

	_, err := repo.SumAmount(ctx, 1, june)
	assert.ErrorContains(t, err, "server has gone away")
}

func TestExpenseRepository_TotalsInWindow(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\), COUNT\\(\\*\\) FROM `expenses`").
		WithArgs(1, june.Start, june.End).
		WillReturnRows(sqlmock.NewRows([]string{"total", "count"}).AddRow("500.00", 4))

	out, err := repo.TotalsInWindow(ctx, 1, june)
	require.NoError(t, err)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, int64(4), out.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_GroupByCategory(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery("SELECT category, SUM\\(amount\\) AS total, COUNT\\(\\*\\) AS count, AVG\\(amount\\) AS average FROM `expenses` .* GROUP BY `category` ORDER BY total DESC, MIN\\(id\\) ASC").
		WithArgs(1, june.Start, june.End).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total", "count", "average"}).
			AddRow(models.CategoryFood, "30.00", 2, "15.000000").
			AddRow(models.CategoryTransport, "30.00", 1, "30.000000"))

	rows, err := repo.GroupByCategory(ctx, 1, june)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.CategoryFood, rows[0].Category)
	assert.Equal(t, int64(2), rows[0].Count)
	assert.True(t, rows[0].Average.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, models.CategoryTransport, rows[1].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_GroupByCategoryAllTime(t *testing.T) {
	repo, mock := setupMockRepo(t)
	last := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT category, SUM\\(amount\\) AS total_spent, .* MAX\\(expense_time\\) AS last_transaction FROM `expenses` WHERE user_id = \\? GROUP BY `category`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"category", "total_spent", "transaction_count", "average_amount", "max_amount", "min_amount", "last_transaction"}).
			AddRow(models.CategoryTravel, "200.00", 1, "200.000000", "200.00", "200.00", last).
			AddRow(models.CategoryFood, "45.00", 2, "22.500000", "35.00", "10.00", "2024-05-03 08:00:00"))

	rows, err := repo.GroupByCategoryAllTime(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, last, rows[0].LastTransaction)
	assert.Equal(t, int64(2), rows[1].TransactionCount)
	assert.True(t, rows[1].MaxAmount.Equal(decimal.NewFromInt(35)))
	assert.True(t, rows[1].MinAmount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 2024, rows[1].LastTransaction.Year())
	assert.Equal(t, time.May, rows[1].LastTransaction.Month())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_SumByMonth(t *testing.T) {
	repo, mock := setupMockRepo(t)
	span := analytics.Window{Start: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), End: june.End}

	mock.ExpectQuery("SELECT YEAR\\(expense_time\\) AS year, MONTH\\(expense_time\\) AS month, SUM\\(amount\\) AS total, COUNT\\(\\*\\) AS count FROM `expenses` .* GROUP BY YEAR\\(expense_time\\), MONTH\\(expense_time\\) ORDER BY year ASC, month ASC").
		WithArgs(1, span.Start, span.End).
		WillReturnRows(sqlmock.NewRows([]string{"year", "month", "total", "count"}).
			AddRow(2023, 7, "100.00", 1).
			AddRow(2024, 1, "100.00", 2))

	rows, err := repo.SumByMonth(ctx, 1, span)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.MonthTotal{Year: 2024, Month: 1, Total: rows[1].Total, Count: 2}, rows[1])
	assert.True(t, rows[1].Total.Equal(decimal.NewFromInt(100)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_GroupByDayOfWeek(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery("SELECT DAYOFWEEK\\(expense_time\\) AS day_index, SUM\\(amount\\) AS total, COUNT\\(\\*\\) AS count FROM `expenses` .* GROUP BY DAYOFWEEK\\(expense_time\\) ORDER BY day_index ASC").
		WithArgs(1, june.Start, june.End).
		WillReturnRows(sqlmock.NewRows([]string{"day_index", "total", "count"}).
			AddRow(1, "92.50", 2).
			AddRow(7, "300.00", 1))

	rows, err := repo.GroupByDayOfWeek(ctx, 1, june)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].DayIndex)
	assert.Equal(t, 7, rows[1].DayIndex)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepository_TopN(t *testing.T) {
	repo, mock := setupMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `expenses` .* ORDER BY amount DESC, expense_time DESC, id DESC LIMIT 5").
		WithArgs(1, june.Start, june.End).
		WillReturnRows(sqlmock.NewRows(expCols).
			AddRow(4, 1, "300.00", "Rent", models.CategoryBills, now, now).
			AddRow(2, 1, "80.00", "Shoes", models.CategoryShopping, now, now))

	rows, err := repo.TopN(ctx, 1, june, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(4), rows[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectOf(t *testing.T) {
	repo, _ := setupMockRepo(t)
	assert.Equal(t, mysqlDialect, dialectOf(repo.db))
}

func TestSQLTime_Scan(t *testing.T) {
	var st sqlTime
	require.NoError(t, st.Scan("2024-06-01 12:30:00"))
	assert.Equal(t, 12, st.Hour())

	require.NoError(t, st.Scan([]byte("2024-06-01 12:30:00.123456789+08:00")))
	assert.Equal(t, 123456789, st.Nanosecond())

	require.NoError(t, st.Scan(nil))
	assert.True(t, st.IsZero())

	assert.Error(t, st.Scan("yesterday"))
	assert.Error(t, st.Scan(42))
}
