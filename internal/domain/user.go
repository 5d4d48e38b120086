package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	Name          string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Email         string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash  string `gorm:"size:191;not null" json:"-"`
	EmailVerified bool   `gorm:"not null;default:false" json:"emailVerified"`
	VerifyToken   string `gorm:"size:512" json:"-"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByVerifyToken(ctx context.Context, token string) (*User, error)
	MarkVerified(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]User, error)
	AllEmails(ctx context.Context) ([]string, error)
	SoftDelete(ctx context.Context, id string) error
}
