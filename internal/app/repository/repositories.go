package repository

import "gorm.io/gorm"

// Repositories bundles the stores one allocation transaction touches.
type Repositories struct {
	Shops       ShopRepository
	Listings    ListingRepository
	Assignments AssignmentRepository
	Quotas      QuotaRepository
	Events      EventRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Shops:       NewShopRepository(db),
		Listings:    NewListingRepository(db),
		Assignments: NewAssignmentRepository(db),
		Quotas:      NewQuotaRepository(db),
		Events:      NewEventRepository(db),
	}
}

// WithTx returns the same set bound to tx.
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return &Repositories{
		Shops:       r.Shops.WithTx(tx),
		Listings:    r.Listings.WithTx(tx),
		Assignments: r.Assignments.WithTx(tx),
		Quotas:      r.Quotas.WithTx(tx),
		Events:      r.Events.WithTx(tx),
	}
}
