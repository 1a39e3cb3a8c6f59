package repository

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"sharebnb/internal/model"
)

// listingPredicate is one present search criterion, usable both as a SQL
// clause and as an in-memory test so every store applies identical rules.
type listingPredicate struct {
	column string
	op     string
	arg    interface{}
	match  func(l *model.Listing) bool
}

// listingPredicates returns one predicate per present criterion. The result
// is combined with AND, so the order only affects placeholder numbering.
func listingPredicates(c model.ListingCriteria) []listingPredicate {
	var preds []listingPredicate

	if c.MaxPrice != nil {
		bound := decimal.NewFromInt(*c.MaxPrice)
		preds = append(preds, listingPredicate{
			column: "price",
			op:     "<", // strict: a listing priced exactly at the bound is excluded
			arg:    *c.MaxPrice,
			match:  func(l *model.Listing) bool { return l.Price.LessThan(bound) },
		})
	}
	if c.Longitude != nil {
		v := *c.Longitude
		preds = append(preds, listingPredicate{
			column: "longitude",
			op:     "=",
			arg:    v,
			match:  func(l *model.Listing) bool { return l.Longitude == v },
		})
	}
	if c.Latitude != nil {
		v := *c.Latitude
		preds = append(preds, listingPredicate{
			column: "latitude",
			op:     "=",
			arg:    v,
			match:  func(l *model.Listing) bool { return l.Latitude == v },
		})
	}
	if c.Beds != nil {
		v := *c.Beds
		preds = append(preds, listingPredicate{
			column: "beds",
			op:     "=",
			arg:    v,
			match:  func(l *model.Listing) bool { return int64(l.Beds) == v },
		})
	}
	if c.Bathrooms != nil {
		v := *c.Bathrooms
		preds = append(preds, listingPredicate{
			column: "bathrooms",
			op:     "=",
			arg:    v,
			match:  func(l *model.Listing) bool { return int64(l.Bathrooms) == v },
		})
	}

	return preds
}

// buildFindQuery renders the criteria as a parameterised SELECT ordered by id.
func buildFindQuery(c model.ListingCriteria) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT ` + listingColumns + ` FROM listings`)

	preds := listingPredicates(c)
	args := make([]interface{}, 0, len(preds))
	for i, p := range preds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, p.arg)
		fmt.Fprintf(&b, "%s %s $%d", p.column, p.op, len(args))
	}
	b.WriteString(" ORDER BY id")

	return b.String(), args
}

// MatchListing reports whether l satisfies every present criterion.
func MatchListing(c model.ListingCriteria, l *model.Listing) bool {
	for _, p := range listingPredicates(c) {
		if !p.match(l) {
			return false
		}
	}
	return true
}
