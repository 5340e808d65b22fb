// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents a student account in InterHub.
//
// Accounts are created either on first external-provider login (one of the
// provider ID columns is set, username stays empty until profile input) or
// through local signup (email + password hash).
type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Username    string `gorm:"size:30" json:"username"`
	Email       string `gorm:"size:255" json:"email"`
	Password    string `json:"-"`
	GoogleID    string `gorm:"size:64" json:"-"`
	OutlookID   string `gorm:"size:64" json:"-"`
	FacebookID  string `gorm:"size:64" json:"-"`
	Name        string `gorm:"size:120" json:"name"`
	Country     string `gorm:"size:80" json:"country"`
	Course      string `gorm:"size:120" json:"course"`
	PhoneNumber string `gorm:"size:32" json:"phone_number"`
	// ImageURL is the last signed read URL issued for the user's profile
	// image object. Refreshed by the profile image synchronizer.
	ImageURL            string     `gorm:"type:text" json:"image_url"`
	ImageURLRefreshedAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// HasProfile reports whether the user has completed profile input.
// Users without a username cannot use the dashboard yet.
func (u *User) HasProfile() bool {
	return u.Username != ""
}
