package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string // argon2 encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
