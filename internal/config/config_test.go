package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/ir"
)

func TestDefaultPriceTiersCoverPricedLengths(t *testing.T) {
	cfg := Default()
	for length := 1; length <= AccountMaxPricedLength; length++ {
		_, ok := cfg.Price.Tier(length)
		assert.True(t, ok, "tier %d must exist", length)
	}
	_, ok := cfg.Price.Tier(AccountMaxPricedLength + 1)
	assert.False(t, ok)
}

func TestDefaultScriptIDsAreDistinct(t *testing.T) {
	ids := Default().Main.TypeIDs
	all := []ir.Hash{
		ids.AccountCell, ids.BalanceCell, ids.IncomeCell, ids.AccountSaleCell,
		ids.AccountAuctionCell, ids.OfferCell, ids.ProposalCell, ids.SubAccountCell,
		ids.PointsCell, ids.OracleCell, ids.EIP712Lib,
	}
	seen := map[ir.Hash]bool{}
	for _, h := range all {
		assert.False(t, seen[h], "duplicate type id %s", h)
		seen[h] = true
	}
}

func TestSignEnabled(t *testing.T) {
	m := Default().Main
	assert.True(t, m.SignEnabled(ir.LockETH))
	assert.False(t, m.SignEnabled(ir.LockWebAuthn))
}

func TestRecordsHasKey(t *testing.T) {
	r := Default().Records
	assert.True(t, r.HasKey("profile.twitter"))
	assert.False(t, r.HasKey("profile.myspace"))
}

func TestDigestTracksChanges(t *testing.T) {
	a, err := Default().Digest()
	require.NoError(t, err)
	b, err := Default().Digest()
	require.NoError(t, err)
	assert.Equal(t, a, b, "digest must be deterministic")

	changed := Default()
	changed.Account.CommonFee++
	c, err := changed.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
