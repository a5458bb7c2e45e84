package domain

import (
	"context"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;size:100;not null" json:"-"`
	Confirmed    bool      `gorm:"not null;default:false" json:"confirmed"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	// Create 写入后回填 ID；email 冲突返回 ErrUserExists
	Create(ctx context.Context, u *User) error
	// FindByEmail 查不到返回 ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)
	SetConfirmed(ctx context.Context, email string) error
}
