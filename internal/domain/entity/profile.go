package entity

import "time"

// Identity is a caller resolved from a bearer token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`

	// ExpiresAt is the token's exp claim; zero when unknown.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token behind the identity is past its exp.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

type Profile struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Phone             *string    `json:"phone"`
	Address           *string    `json:"address"`
	CurrentCibilScore *int       `json:"current_cibil_score"`
	CreatedAt         *time.Time `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}

// ProfileUpdate carries the user-editable columns; nil means unchanged.
type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Phone == nil && u.Address == nil
}
