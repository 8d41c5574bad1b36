package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleWorker:
		return true
	default:
		return false
	}
}

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("user not found")
)

// User is the stored account. Email is the unique, case-sensitive key.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"` // stored only; hand out Actor instead
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Actor is the identity the rest of the core sees for the signed-in user.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	// bcrypt only hashes the first 72 bytes and rejects longer input
	Password string `json:"password" validate:"required,maxbytes=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=client worker"`
}

func NewFromRegisterRequest(req RegisterRequest, passwordHash string) User {
	role := req.Role

	// default role for new users
	if role == "" {
		role = RoleClient
	}

	return User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
}
