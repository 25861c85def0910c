package domain

import (
	"slices"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// PasswordResetTTL is how long an emailed reset token stays usable.
const PasswordResetTTL = 10 * time.Minute

// Fields lists the service areas a member can offer.
var Fields = []string{
	"tech",
	"education",
	"music",
	"healthcare",
	"cooking",
	"babysitting",
	"home-maintenance",
}

// ValidField reports whether f is empty or one of Fields.
func ValidField(f string) bool {
	if f == "" {
		return true
	}
	return slices.Contains(Fields, f)
}

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}

// User models a member of the hour bank.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Credit       int64     `json:"credit"`
	Active       bool      `json:"-"`
	Bio          string    `json:"bio,omitempty"`
	City         string    `json:"city,omitempty"`
	Field        string    `json:"field,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetHash    string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
}

// Party returns the id/name projection shared with other users.
func (u *User) Party() Party {
	return Party{ID: u.ID, Name: u.Name}
}

// PasswordChangedAfter reports whether the password was changed after t,
// which invalidates tokens issued at t.
func (u *User) PasswordChangedAfter(t time.Time) bool {
	return u.PasswordChangedAt != nil && u.PasswordChangedAt.Truncate(time.Second).After(t)
}

// CanAffordHour reports whether the user holds enough credit to order an hour.
func (u *User) CanAffordHour() bool {
	return u.Credit >= HourPrice
}
