package models

import (
	"time"
)

// SiweNonce is an issued sign-in nonce awaiting consumption.
type SiweNonce struct {
	Nonce     string    `json:"nonce" gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (SiweNonce) TableName() string {
	return "siwe_nonces"
}
