package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTierCatalog_FromSource(t *testing.T) {
	// Arrange
	records := []TierDetailRecord{
		{TierID: "tier-g", TierType: "GOLD"},
		{TierID: "tier-s", TierType: "silver"},
		{TierID: "tier-x", TierType: "PLATINUM"},
	}

	// Act
	catalog := NewTierCatalog(records)

	// Assert
	assert.False(t, catalog.Seeded())
	assert.Equal(t, TierGold, catalog.Name("tier-g"))
	assert.Equal(t, TierSilver, catalog.Name("tier-s"))
	assert.Equal(t, TierUnknown, catalog.Name("tier-x"))
	assert.Equal(t, TierUnknown, catalog.Name("no-such-tier"))

	rows := catalog.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[0].RedemptionRate.String())
	assert.Equal(t, "0.7", rows[1].RedemptionRate.String())
}

func TestNewTierCatalog_SeedsWhenEmpty(t *testing.T) {
	catalog := NewTierCatalog(nil)

	assert.True(t, catalog.Seeded())
	rows := catalog.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"GOLD", "Gold", "1.00"}, rows[0].Row())
	assert.Equal(t, TierSilver, catalog.Name("SILVER"))
	assert.Equal(t, TierBronze, catalog.Name("BRONZE"))
}

func TestRedemptionRate(t *testing.T) {
	assert.Equal(t, "1", RedemptionRate(TierGold).String())
	assert.Equal(t, "0.7", RedemptionRate(TierSilver).String())
	assert.Equal(t, "0.4", RedemptionRate(TierBronze).String())

	// anything unrecognized redeems at the floor rate
	assert.Equal(t, "0.4", RedemptionRate("Platinum").String())
	assert.Equal(t, "0.4", RedemptionRate("").String())
}
