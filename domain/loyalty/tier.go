package loyalty

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tier names and redemption rates (coin-to-currency multipliers). These are
// the three well-known tiers; an unresolvable tier falls back to Unknown at
// the Bronze rate.
const (
	TierGold    = "Gold"
	TierSilver  = "Silver"
	TierBronze  = "Bronze"
	TierUnknown = "Unknown"
)

var tierRates = map[string]decimal.Decimal{
	TierGold:    decimal.RequireFromString("1.00"),
	TierSilver:  decimal.RequireFromString("0.70"),
	TierBronze:  decimal.RequireFromString("0.40"),
	TierUnknown: decimal.RequireFromString("0.40"),
}

// RedemptionRate returns the coin-to-currency multiplier for a tier name
func RedemptionRate(tierName string) decimal.Decimal {
	if rate, ok := tierRates[tierName]; ok {
		return rate
	}
	return tierRates[TierUnknown]
}

// TierCatalog resolves tier ids to dimension rows. The tier set is small and
// rarely changes, so the catalog is built once per run and held in memory.
type TierCatalog struct {
	byID  map[string]TierDimension
	rows  []TierDimension
	seeds bool
}

// NewTierCatalog builds a catalog from the tier detail source table. When
// the source table is empty the three well-known tiers are seeded, keyed by
// their upper-case type, so downstream joins always have a dimension to hit.
func NewTierCatalog(records []TierDetailRecord) *TierCatalog {
	c := &TierCatalog{byID: make(map[string]TierDimension, len(records))}

	if len(records) == 0 {
		for _, name := range []string{TierGold, TierSilver, TierBronze} {
			dim := TierDimension{
				TierID:         strings.ToUpper(name),
				TierName:       name,
				RedemptionRate: RedemptionRate(name),
			}
			c.byID[dim.TierID] = dim
			c.rows = append(c.rows, dim)
		}
		c.seeds = true
		return c
	}

	for _, rec := range records {
		name := tierNameFromType(rec.TierType)
		dim := TierDimension{
			TierID:         rec.TierID,
			TierName:       name,
			RedemptionRate: RedemptionRate(name),
		}
		c.byID[rec.TierID] = dim
		c.rows = append(c.rows, dim)
	}
	return c
}

// tierNameFromType maps the source's tierType (GOLD/SILVER/BRONZE) to the
// dimension's display name.
func tierNameFromType(tierType string) string {
	switch strings.ToUpper(strings.TrimSpace(tierType)) {
	case "GOLD":
		return TierGold
	case "SILVER":
		return TierSilver
	case "BRONZE":
		return TierBronze
	default:
		return TierUnknown
	}
}

// Name resolves a tier id to its display name, Unknown when unmapped
func (c *TierCatalog) Name(tierID string) string {
	if dim, ok := c.byID[tierID]; ok {
		return dim.TierName
	}
	return TierUnknown
}

// Rows returns the dimension rows in source (or seed) order
func (c *TierCatalog) Rows() []TierDimension {
	return c.rows
}

// Seeded reports whether the catalog came from the seed set rather than the
// source table
func (c *TierCatalog) Seeded() bool {
	return c.seeds
}
