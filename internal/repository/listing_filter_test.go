package repository

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharebnb/internal/model"
)

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildFindQuery(t *testing.T) {
	tests := []struct {
		name      string
		criteria  model.ListingCriteria
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "no criteria",
			criteria:  model.ListingCriteria{},
			wantWhere: "",
			wantArgs:  []interface{}{},
		},
		{
			name:      "max price only",
			criteria:  model.ListingCriteria{MaxPrice: i64(1000)},
			wantWhere: " WHERE price < $1",
			wantArgs:  []interface{}{int64(1000)},
		},
		{
			name: "all criteria",
			criteria: model.ListingCriteria{
				MaxPrice:  i64(500),
				Longitude: f64(-122.4),
				Latitude:  f64(37.7),
				Beds:      i64(2),
				Bathrooms: i64(1),
			},
			wantWhere: " WHERE price < $1 AND longitude = $2 AND latitude = $3 AND beds = $4 AND bathrooms = $5",
			wantArgs:  []interface{}{int64(500), -122.4, 37.7, int64(2), int64(1)},
		},
		{
			name:      "sparse criteria renumber placeholders",
			criteria:  model.ListingCriteria{Latitude: f64(10), Bathrooms: i64(3)},
			wantWhere: " WHERE latitude = $1 AND bathrooms = $2",
			wantArgs:  []interface{}{10.0, int64(3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildFindQuery(tt.criteria)
			assert.Equal(t, `SELECT `+listingColumns+` FROM listings`+tt.wantWhere+` ORDER BY id`, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestMatchListing_PriceIsStrict(t *testing.T) {
	l := &model.Listing{Price: price("1000.00"), Beds: 2}

	assert.False(t, MatchListing(model.ListingCriteria{MaxPrice: i64(1000)}, l))
	assert.True(t, MatchListing(model.ListingCriteria{MaxPrice: i64(1001)}, l))
	assert.True(t, MatchListing(model.ListingCriteria{MaxPrice: i64(1000)},
		&model.Listing{Price: price("999.99")}))
}

func TestMatchListing_ExactFields(t *testing.T) {
	l := &model.Listing{Price: price("120.50"), Latitude: 37.77, Longitude: -122.41, Beds: 3, Bathrooms: 2}

	tests := []struct {
		name     string
		criteria model.ListingCriteria
		want     bool
	}{
		{"empty criteria matches", model.ListingCriteria{}, true},
		{"latitude equal", model.ListingCriteria{Latitude: f64(37.77)}, true},
		{"latitude close but not equal", model.ListingCriteria{Latitude: f64(37.7700001)}, false},
		{"longitude equal", model.ListingCriteria{Longitude: f64(-122.41)}, true},
		{"beds equal", model.ListingCriteria{Beds: i64(3)}, true},
		{"beds differ", model.ListingCriteria{Beds: i64(2)}, false},
		{"bathrooms equal", model.ListingCriteria{Bathrooms: i64(2)}, true},
		{"all match", model.ListingCriteria{MaxPrice: i64(121), Beds: i64(3), Bathrooms: i64(2)}, true},
		{"one of many fails", model.ListingCriteria{MaxPrice: i64(120), Beds: i64(3)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchListing(tt.criteria, l))
		})
	}
}

// For random listing sets and random subsets of criteria, the matched set must
// equal the AND of the individually evaluated predicates, and an absent field
// must never exclude anything.
func TestMatchListing_EqualsConjunctionOfPresentPredicates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	listings := make([]model.Listing, 200)
	for i := range listings {
		listings[i] = model.Listing{
			ID:        int64(i + 1),
			Price:     decimal.NewFromInt(int64(rng.Intn(400))).Add(decimal.New(int64(rng.Intn(100)), -2)),
			Latitude:  float64(rng.Intn(3)),
			Longitude: float64(rng.Intn(3)),
			Beds:      rng.Intn(4),
			Bathrooms: rng.Intn(3),
		}
	}

	for round := 0; round < 100; round++ {
		var c model.ListingCriteria
		if rng.Intn(2) == 0 {
			c.MaxPrice = i64(int64(rng.Intn(400)))
		}
		if rng.Intn(2) == 0 {
			c.Longitude = f64(float64(rng.Intn(3)))
		}
		if rng.Intn(2) == 0 {
			c.Latitude = f64(float64(rng.Intn(3)))
		}
		if rng.Intn(2) == 0 {
			c.Beds = i64(int64(rng.Intn(4)))
		}
		if rng.Intn(2) == 0 {
			c.Bathrooms = i64(int64(rng.Intn(3)))
		}

		for i := range listings {
			l := &listings[i]
			want := true
			if c.MaxPrice != nil && !l.Price.LessThan(decimal.NewFromInt(*c.MaxPrice)) {
				want = false
			}
			if c.Longitude != nil && l.Longitude != *c.Longitude {
				want = false
			}
			if c.Latitude != nil && l.Latitude != *c.Latitude {
				want = false
			}
			if c.Beds != nil && int64(l.Beds) != *c.Beds {
				want = false
			}
			if c.Bathrooms != nil && int64(l.Bathrooms) != *c.Bathrooms {
				want = false
			}
			require.Equal(t, want, MatchListing(c, l), "round %d listing %d criteria %+v", round, l.ID, c)
		}
	}
}
