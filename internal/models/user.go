package models

import (
	"time"

	"github.com/jackc/pgx/v5"
)

// User represents a platform user. Mentors carry an hourly rate; the
// availability text is a free-form self-description, not structured data.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	HourlyRate   *float64   `json:"hourlyRate"`
	Availability string     `json:"availability"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// EffectiveHourlyRate returns the mentor's rate, falling back to the
// platform default when unset or non-positive.
func (u *User) EffectiveHourlyRate(platformDefault float64) float64 {
	if u.HourlyRate != nil && *u.HourlyRate > 0 {
		return *u.HourlyRate
	}
	return platformDefault
}

// ScanUser scans a single PostgreSQL row into a User struct.
// Expected columns: id, name, email, role, hourly_rate, availability,
// created_at, updated_at, deleted_at
func ScanUser(row pgx.Row) (*User, error) {
	var u User
	var availability *string

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.HourlyRate,
		&availability,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if availability != nil {
		u.Availability = *availability
	}

	return &u, nil
}
