package domain

import "time"

type UserRole string

const (
	UserRoleClient UserRole = "Client"
	UserRoleSeller UserRole = "Seller"
	UserRoleAdmin  UserRole = "Admin"
)

type User struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Role         UserRole          `json:"role"`
	PersonalData *UserPersonalData `json:"personal_data,omitempty"` // Populated when needed
}

type UserPersonalData struct {
	UserID     int64      `json:"user_id"`
	Country    string     `json:"country"`
	City       string     `json:"city"`
	Address    string     `json:"address"`
	PostalCode string     `json:"postal_code"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
