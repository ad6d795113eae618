package postgres

import (
	"context"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	logger.EnterMethod("paymentRepository.Create", "rentalID", p.RentalID, "amountCents", p.AmountCents)

	query := `
		INSERT INTO payments (rental_id, amount, payment_method, payment_date)
		VALUES ($1, $2::numeric / 100, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, p.RentalID, p.AmountCents, p.Method, p.PaymentDate).Scan(&p.ID); err != nil {
		logger.ExitMethodWithError("paymentRepository.Create", err, "rentalID", p.RentalID)
		return err
	}

	logger.ExitMethod("paymentRepository.Create", "paymentID", p.ID)
	return nil
}

func (r *paymentRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	query := `
		SELECT id, rental_id, ROUND(amount * 100)::bigint, payment_method, payment_date
		FROM payments WHERE rental_id = $1 ORDER BY payment_date, id
	`
	logger.DatabaseCall("SELECT", "payments", "rentalID", rentalID)
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "rentalID", rentalID)
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.RentalID, &p.AmountCents, &p.Method, &p.PaymentDate); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	logger.DatabaseResult("SELECT", int64(len(payments)), rows.Err(), "rentalID", rentalID)
	return payments, rows.Err()
}
