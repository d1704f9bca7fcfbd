package model

import (
	"time"
)

const (
	ProviderGoogle = "Google"
	ProviderGitHub = "GitHub"
)

type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Provider  string    `db:"provider" json:"provider"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
