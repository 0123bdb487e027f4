package models

import (
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	ClassID      *uuid.UUID // nil until the student joins a class
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
