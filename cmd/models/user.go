package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string `gorm:"column:username;size:150;not null;uniqueIndex" json:"username"`
	FirstName    string `gorm:"column:first_name;size:150;not null" json:"first_name"`
	LastName     string `gorm:"column:last_name;size:150;not null" json:"last_name"`
	Email        string `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`

	Posts    []Post    `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
	Comments []Comment `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`

	// Follow edges where this user is the follower, and where they are
	// the followed author.
	Following []Follow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"following,omitempty"`
	Followers []Follow `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"followers,omitempty"`
}

// FullName is the display name used on profile pages.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
