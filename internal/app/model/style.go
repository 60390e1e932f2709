package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray stores a list of strings as a JSON text column.
type StringArray []string

// Value는 database/sql/driver.Valuer 인터페이스 구현
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan은 database/sql.Scanner 인터페이스 구현
func (s *StringArray) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan StringArray")
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, s)
}

// StyleMeta is the descriptive part of a style shared by listings and assignments.
type StyleMeta struct {
	Name     string `gorm:"not null" json:"name"`
	ImageURL string `json:"image_url"`
	Remark   string `gorm:"type:text" json:"remark"`
	RefLink  string `json:"ref_link,omitempty"`
}

// PublicStyleListing is a style open to every shop in the public pool.
// IntentCount is a projection of Intents kept in step inside the same
// transaction; the intent rows are authoritative.
type PublicStyleListing struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StyleMeta
	MaxIntents  int           `gorm:"not null" json:"max_intents"`
	IntentCount int           `gorm:"not null;default:0" json:"intent_count"`
	Status      ListingStatus `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Intents []ListingIntent `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"intents,omitempty"`
}

func (PublicStyleListing) TableName() string {
	return "public_style_listings"
}

func (l *PublicStyleListing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = ListingOpen
	}
	return nil
}

// Hidden reports whether the listing is full and no longer accepts new interest.
func (l *PublicStyleListing) Hidden() bool {
	return l.IntentCount >= l.MaxIntents
}

func (l *PublicStyleListing) IsOpen() bool {
	return l.Status == ListingOpen
}

// HasIntent reports whether shopID holds a slot on the listing. Intents must be loaded.
func (l *PublicStyleListing) HasIntent(shopID string) bool {
	for _, intent := range l.Intents {
		if intent.ShopID == shopID {
			return true
		}
	}
	return false
}

// IntentShopIDs returns the shops holding a slot, in the order they took it.
func (l *PublicStyleListing) IntentShopIDs() []string {
	ids := make([]string, 0, len(l.Intents))
	for _, intent := range l.Intents {
		ids = append(ids, intent.ShopID)
	}
	return ids
}

// ListingIntent records that a shop took one slot of a listing.
type ListingIntent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ListingID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_listing_intent_shop" json:"listing_id"`
	ShopID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_listing_intent_shop;index" json:"shop_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ListingIntent) TableName() string {
	return "listing_intents"
}

// PrivateStyleAssignment is a style owned by exactly one shop. Assignments
// drawn from the pool reference the listing they came from.
type PrivateStyleAssignment struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StyleMeta
	ShopID            string            `gorm:"type:varchar(64);not null;index" json:"shop_id"`
	Origin            AssignmentOrigin  `gorm:"type:varchar(20);not null" json:"origin"`
	ListingID         *string           `gorm:"type:varchar(36);index" json:"listing_id,omitempty"`
	AssignmentStatus  AssignmentStatus  `gorm:"type:varchar(20);not null;index" json:"assignment_status"`
	LockDeadline      *time.Time        `json:"lock_deadline,omitempty"`
	DevelopmentStatus DevelopmentStatus `gorm:"type:varchar(20)" json:"development_status"`
	SpuCodes          StringArray       `gorm:"type:text" json:"spu_codes"`
	AbandonReason     *string           `gorm:"type:text" json:"abandon_reason,omitempty"`
	ConfirmedAt       *time.Time        `json:"confirmed_at,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	AbandonedAt       *time.Time        `json:"abandoned_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	Shop *Shop `gorm:"foreignKey:ShopID" json:"shop,omitempty"`
}

func (PrivateStyleAssignment) TableName() string {
	return "private_style_assignments"
}

func (a *PrivateStyleAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Origin == OriginFromPool && (a.ListingID == nil || *a.ListingID == "") {
		return errors.New("pool assignment requires a listing reference")
	}
	return nil
}

// HoldsQuota reports whether the assignment currently counts against the shop's quota.
func (a *PrivateStyleAssignment) HoldsQuota() bool {
	return a.Origin == OriginFromPool && !a.AssignmentStatus.IsTerminal()
}

// HasSpu reports whether at least one SPU code has been registered.
func (a *PrivateStyleAssignment) HasSpu() bool {
	return len(a.SpuCodes) > 0
}
