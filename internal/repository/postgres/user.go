package postgres

import (
	"context"
	"database/sql"
	"errors"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	logger.EnterMethod("userRepository.GetByID", "userID", id)

	u := &domain.User{}
	query := `SELECT id, name, email, COALESCE(phone, ''), role FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.NewNotFound("user", id)
		}
		logger.ExitMethodWithError("userRepository.GetByID", err, "userID", id)
		return nil, err
	}

	logger.ExitMethod("userRepository.GetByID", "userID", id)
	return u, nil
}

func (r *userRepository) GetPersonalData(ctx context.Context, userID int64) (*domain.UserPersonalData, error) {
	query := `
		SELECT user_id, COALESCE(country, ''), COALESCE(city, ''), COALESCE(address, ''),
		       COALESCE(postal_code, ''), birth_date, created_at, updated_at
		FROM users_personal_data WHERE user_id = $1
	`
	logger.DatabaseCall("SELECT", "users_personal_data", "userID", userID)
	pd := &domain.UserPersonalData{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&pd.UserID, &pd.Country, &pd.City, &pd.Address,
		&pd.PostalCode, &pd.BirthDate, &pd.CreatedAt, &pd.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = domain.NewNotFound("personal data", userID)
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "userID", userID)
		return nil, err
	}
	logger.DatabaseResult("SELECT", 1, nil, "userID", userID)
	return pd, nil
}
