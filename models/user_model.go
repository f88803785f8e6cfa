package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"size:20;not null;default:'investor'" json:"role"`

	ReferralCode   *string `gorm:"size:10;unique" json:"referral_code"`
	ReferredByCode *string `gorm:"size:10" json:"referred_by_code"`

	Country  *string `gorm:"size:100" json:"country"`
	IsActive bool    `gorm:"default:true" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
