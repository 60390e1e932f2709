package service

import (
	"sort"
	"time"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
)

// DefaultAgingThreshold is the age after which an untouched listing is promoted.
const DefaultAgingThreshold = 10 * 24 * time.Hour

// SortListings orders listings for display. Listings somebody already wants
// come first, then listings older than agingThreshold, then the rest, each
// group in creation order. The input is left untouched.
func SortListings(listings []model.PublicStyleListing, now time.Time, agingThreshold time.Duration) []model.PublicStyleListing {
	if agingThreshold <= 0 {
		agingThreshold = DefaultAgingThreshold
	}

	sorted := make([]model.PublicStyleListing, len(listings))
	copy(sorted, listings)

	rank := func(l *model.PublicStyleListing) int {
		switch {
		case l.IntentCount > 0:
			return 0
		case now.Sub(l.CreatedAt) >= agingThreshold:
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(&sorted[i]), rank(&sorted[j])
		if ri != rj {
			return ri < rj
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// VisibleTo keeps the open listings a shop may still act on: those with a
// free slot, and full ones where the shop already holds a slot. Listings in
// confirmed are dropped since the shop has nothing left to do on them.
func VisibleTo(listings []model.PublicStyleListing, shopID string, confirmed ...string) []model.PublicStyleListing {
	done := make(map[string]struct{}, len(confirmed))
	for _, id := range confirmed {
		done[id] = struct{}{}
	}

	visible := make([]model.PublicStyleListing, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		if !l.IsOpen() {
			continue
		}
		if _, ok := done[l.ID]; ok {
			continue
		}
		if l.Hidden() && !l.HasIntent(shopID) {
			continue
		}
		visible = append(visible, *l)
	}
	return visible
}
