// internal/models/user.go
package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

type Preferences struct {
	Theme         string                  `json:"theme"`
	Notifications NotificationPreferences `json:"notifications"`
	DefaultBudget Budget                  `json:"defaultBudget"`
}

// DefaultPreferences are applied to newly registered users.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         "auto",
		Notifications: NotificationPreferences{Email: true, Push: true},
		DefaultBudget: BudgetMedium,
	}
}

type UserStats struct {
	TotalIdeasCreated int       `json:"totalIdeasCreated"`
	TotalPlansSaved   int       `json:"totalPlansSaved"`
	LastLoginAt       time.Time `json:"lastLoginAt"`
	JoinedAt          time.Time `json:"joinedAt"`
}

// User is an account holder. PasswordHash never leaves the service.
type User struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Avatar       string      `json:"avatar,omitempty" db:"avatar"`
	Role         Role        `json:"role" db:"role"`
	Preferences  Preferences `json:"preferences" db:"preferences"`
	Stats        UserStats   `json:"stats" db:"stats"`
	IsActive     bool        `json:"isActive" db:"is_active"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// ProfileUpdate holds the user-editable fields. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string      `json:"name,omitempty"`
	Avatar      *string      `json:"avatar,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Preferences != nil {
		u.Preferences = *p.Preferences
	}
}
