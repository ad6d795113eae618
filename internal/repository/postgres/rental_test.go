package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/repository/postgres"
)

var rentalRowColumns = []string{"id", "user_id", "employee_id", "start_date", "end_date", "return_date", "status", "total_cost", "created_at", "updated_at"}

func TestRentalRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(rentalRowColumns).
			AddRow(1, 1, 2, start, start.AddDate(0, 0, 9), nil, "Active", nil, time.Now(), time.Now())
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		rental, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rental.ID)
		assert.Equal(t, domain.RentalStatusActive, rental.Status)
		assert.Nil(t, rental.ReturnDate)
		assert.Nil(t, rental.TotalCostCents)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1").
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(rentalRowColumns))

		_, err := repo.GetByID(ctx, 404)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()
	ret := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE rentals SET status = \\$1").
			WithArgs("Completed", ret, sqlmock.AnyArg(), int64(7), "Active").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, 7, domain.RentalStatusActive, domain.RentalStatusCompleted, &ret)
		assert.NoError(t, err)
	})

	t.Run("StatusChangedConcurrently", func(t *testing.T) {
		mock.ExpectExec("UPDATE rentals SET status = \\$1").
			WithArgs("Cancelled", nil, sqlmock.AnyArg(), int64(7), "Active").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, 7, domain.RentalStatusActive, domain.RentalStatusCancelled, nil)
		assert.ErrorIs(t, err, repository.ErrStatusChanged)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM \\(SELECT (.+) FROM rentals WHERE user_id = \\$1 AND status = \\$2\\) AS sub").
		WithArgs(int64(3), "Overdue").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("SELECT (.+) FROM rentals WHERE user_id = \\$1 AND status = \\$2 ORDER BY created_at DESC, id DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs(int64(3), "Overdue", int32(5), int64(10)).
		WillReturnRows(sqlmock.NewRows(rentalRowColumns).
			AddRow(21, 3, 2, start, start.AddDate(0, 0, 3), nil, "Overdue", "4500", time.Now(), time.Now()))

	rentals, total, err := repo.List(context.Background(), domain.RentalFilter{
		ClientID: 3, Status: domain.RentalStatusOverdue, Page: 3, PageSize: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, int32(11), total)
	require.Len(t, rentals, 1)
	require.NotNil(t, rentals[0].TotalCostCents)
	assert.Equal(t, int64(4500), *rentals[0].TotalCostCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_ListOverdueCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	asOf := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE status = \\$1 AND return_date IS NULL AND end_date < \\$2").
		WithArgs("Active", asOf).
		WillReturnRows(sqlmock.NewRows(rentalRowColumns).
			AddRow(1, 1, 2, start, start.AddDate(0, 0, 9), nil, "Active", nil, time.Now(), time.Now()))

	rentals, err := postgres.NewRentalRepository(db).ListOverdueCandidates(context.Background(), asOf)

	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Equal(t, int64(1), rentals[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
