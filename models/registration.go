package models

import "time"

type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusWithdrawn  RegistrationStatus = "withdrawn"
)

type Registration struct {
	ID            int                `json:"id" db:"id"`
	CompetitionID int                `json:"competition_id" db:"competition_id"`
	UserID        int                `json:"user_id" db:"user_id"`
	Status        RegistrationStatus `json:"status" db:"status"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
}
