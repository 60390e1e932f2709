package service

import (
	"testing"
	"time"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func listingAt(id string, intents int, created time.Time) model.PublicStyleListing {
	l := model.PublicStyleListing{ID: id, MaxIntents: 3, IntentCount: intents, Status: model.ListingOpen, CreatedAt: created}
	for i := 0; i < intents; i++ {
		l.Intents = append(l.Intents, model.ListingIntent{ListingID: id, ShopID: id + "-shop"})
	}
	return l
}

func ids(listings []model.PublicStyleListing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestSortListings_IntentThenAgeThenCreation(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	listings := []model.PublicStyleListing{
		listingAt("A", 0, now.Add(-20*day)),
		listingAt("B", 1, now.Add(-1*day)),
		listingAt("C", 0, now.Add(-1*day)),
	}

	sorted := SortListings(listings, now, DefaultAgingThreshold)
	assert.Equal(t, []string{"B", "A", "C"}, ids(sorted))
	assert.Equal(t, []string{"A", "B", "C"}, ids(listings), "input order is not modified")
}

func TestSortListings_TieBreaks(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name     string
		listings []model.PublicStyleListing
		expected []string
	}{
		{
			name: "interest beats age",
			listings: []model.PublicStyleListing{
				listingAt("old", 0, now.Add(-30*day)),
				listingAt("wanted", 2, now),
			},
			expected: []string{"wanted", "old"},
		},
		{
			name: "exactly ten days counts as aged",
			listings: []model.PublicStyleListing{
				listingAt("young", 0, now.Add(-9*day)),
				listingAt("aged", 0, now.Add(-10*day)),
			},
			expected: []string{"aged", "young"},
		},
		{
			name: "same group keeps creation order",
			listings: []model.PublicStyleListing{
				listingAt("second", 1, now.Add(-2*day)),
				listingAt("first", 1, now.Add(-3*day)),
				listingAt("third", 1, now.Add(-1*day)),
			},
			expected: []string{"first", "second", "third"},
		},
		{
			name: "equal timestamps keep input order",
			listings: []model.PublicStyleListing{
				listingAt("x", 0, now),
				listingAt("y", 0, now),
				listingAt("z", 0, now),
			},
			expected: []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(SortListings(tt.listings, now, DefaultAgingThreshold)))
		})
	}
}

func TestSortListings_CustomThreshold(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	listings := []model.PublicStyleListing{
		listingAt("fresh", 0, now.Add(-time.Hour)),
		listingAt("day-old", 0, now.Add(-25*time.Hour)),
	}

	assert.Equal(t, []string{"day-old", "fresh"}, ids(SortListings(listings, now, 24*time.Hour)))

	interested := append([]model.PublicStyleListing{listingAt("wanted", 1, now)}, listings...)
	assert.Equal(t, []string{"wanted", "day-old", "fresh"}, ids(SortListings(interested, now, 0)),
		"a zero threshold falls back to ten days, leaving both young listings in creation order")
}

func TestVisibleTo(t *testing.T) {
	now := time.Now()
	full := listingAt("full", 3, now)
	full.Intents[0].ShopID = "holder"
	open := listingAt("open", 1, now)
	closed := listingAt("closed", 0, now)
	closed.Status = model.ListingClosed

	listings := []model.PublicStyleListing{full, open, closed}

	assert.Equal(t, []string{"open"}, ids(VisibleTo(listings, "outsider")))
	assert.Equal(t, []string{"full", "open"}, ids(VisibleTo(listings, "holder")))
	assert.Equal(t, []string{"open"}, ids(VisibleTo(listings, "holder", "full")),
		"a listing the shop already confirmed drops out")
}
