package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Admin struct {
	ID        gocql.UUID `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"` // hash bcrypt, jamais sérialisé
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
}
