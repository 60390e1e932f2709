package model

import (
	"time"
)

// DefaultActivePublicIntentCap is used when the registry does not carry a cap for a shop.
const DefaultActivePublicIntentCap = 5

// Shop is the read-only registry entry of a manufacturer.
// KeyID groups several shops under one commercial account.
type Shop struct {
	ID                    string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name                  string    `gorm:"not null" json:"name"`
	KeyID                 string    `gorm:"type:varchar(64);index" json:"key_id,omitempty"`
	ActivePublicIntentCap int       `gorm:"not null;default:5" json:"active_public_intent_cap"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Shop) TableName() string {
	return "shops"
}

// QuotaCap returns the effective cap, falling back to the platform default.
func (s *Shop) QuotaCap(platformDefault int) int {
	if s.ActivePublicIntentCap > 0 {
		return s.ActivePublicIntentCap
	}
	if platformDefault > 0 {
		return platformDefault
	}
	return DefaultActivePublicIntentCap
}

// ShopQuota is the quota ledger entry of one shop: the number of pool-origin
// assignments it currently holds in a non-terminal state.
type ShopQuota struct {
	ShopID      string    `gorm:"primaryKey;type:varchar(64)" json:"shop_id"`
	ActiveCount int       `gorm:"not null;default:0" json:"active_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ShopQuota) TableName() string {
	return "shop_quotas"
}
