package service

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type paymentService struct {
	store repository.Store
}

func NewPaymentService(store repository.Store) PaymentService {
	return &paymentService{store: store}
}

func (s *paymentService) RecordPayment(ctx context.Context, rentalID, amountCents int64, method domain.PaymentMethod) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.RecordPayment", "rentalID", rentalID, "amountCents", amountCents, "method", method)

	if amountCents <= 0 {
		return nil, domain.NewValidation("amount", "must be positive")
	}
	if !method.Valid() {
		return nil, domain.NewValidation("payment_method", "unknown payment method %q", method)
	}

	payment := &domain.Payment{RentalID: rentalID, AmountCents: amountCents, Method: method, PaymentDate: time.Now().UTC()}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		rt, err := tx.Rentals().GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if rt.Status == domain.RentalStatusCancelled {
			return domain.NewInvalidState("rental", rentalID, string(rt.Status), "accept payment for")
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		return recordAudit(ctx, tx, "payments", payment.ID, domain.AuditInsert, nil, payment)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.RecordPayment", err, "rentalID", rentalID)
		return nil, err
	}

	logger.ExitMethod("paymentService.RecordPayment", "paymentID", payment.ID)
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	if _, err := s.store.Rentals().GetByID(ctx, rentalID); err != nil {
		return nil, err
	}
	return s.store.Payments().ListByRental(ctx, rentalID)
}
