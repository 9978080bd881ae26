package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:120;not null"`
	Username     string `gorm:"uniqueIndex;size:80;not null"`
	DisplayName  string `gorm:"size:120"`
	AvatarURL    string `gorm:"size:500"`
	PasswordHash string `gorm:"size:255;not null"`
}

// Name returns the name rendered next to messages: display name when set,
// login name otherwise.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
