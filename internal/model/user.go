package model

import (
	"time"
)

// User is an administrative operator. Users are created out of band
// (see scripts/hash-password.go); the login flow only reads them.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
