package models

import "time"

// User is a storefront account. The password hash never leaves the server.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" bson:"id" json:"id"`
	Username     string    `gorm:"size:255;not null;uniqueIndex" bson:"username" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" bson:"email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" bson:"password_hash" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false" bson:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `gorm:"not null" bson:"created_at" json:"created_at"`
}

// IsAdministrator reports the stored admin flag. It satisfies
// middleware.Principal.
func (u *User) IsAdministrator() bool { return u.IsAdmin }
