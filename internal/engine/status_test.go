package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/testutil"
	"github.com/roach88/accountcell/internal/tx"
)

func TestClassifyExpiration(t *testing.T) {
	a := config.Default().Account
	const expiredAt = 1_000_000_000
	grace := a.ExpirationGracePeriod
	auction := grace + a.ExpirationAuctionPeriod
	confirmation := auction + a.ExpirationAuctionConfirmationPeriod

	tests := []struct {
		now  uint64
		want Expiration
	}{
		{expiredAt - 1, ExpirationActive},
		{expiredAt, ExpirationActive},
		{expiredAt + 1, ExpirationGrace},
		{expiredAt + grace, ExpirationGrace},
		{expiredAt + grace + 1, ExpirationAuction},
		{expiredAt + auction, ExpirationAuction},
		{expiredAt + auction + 1, ExpirationConfirmation},
		{expiredAt + confirmation, ExpirationConfirmation},
		{expiredAt + confirmation + 1, ExpirationExpired},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyExpiration(a, expiredAt, tt.now), "now = expired_at%+d", int64(tt.now)-expiredAt)
	}
}

func TestWindowErrorCodes(t *testing.T) {
	ac := &AccountCell{Source: tx.SourceInput}
	assert.Equal(t, ErrCodeAccountCellIsNotExpired, windowError(ExpirationActive, ac).Code)
	assert.Equal(t, ErrCodeAccountCellInGracePeriod, windowError(ExpirationGrace, ac).Code)
	assert.Equal(t, ErrCodeAccountCellInAuctionPeriod, windowError(ExpirationAuction, ac).Code)
	assert.Equal(t, ErrCodeAccountCellInAuctionConfirmation, windowError(ExpirationConfirmation, ac).Code)
	assert.Equal(t, ErrCodeAccountCellHasExpired, windowError(ExpirationExpired, ac).Code)
}

func TestRequireStatus(t *testing.T) {
	cfg := config.Default()
	normal := accountCellOf(t, cfg, testutil.NewAccount("alice.bit", alice), tx.SourceInput, 0)
	selling := accountCellOf(t, cfg, testutil.NewAccount("alice.bit", alice).With(func(a *testutil.Account) {
		a.Fields.Status = ir.StatusSelling
	}), tx.SourceInput, 0)

	assert.NoError(t, requireStatus(normal, ir.StatusNormal))
	requireCode(t, ErrCodeAccountCellStatusError, requireStatus(normal, ir.StatusApprovedTransfer))
	requireCode(t, ErrCodeAccountCellStatusLocked, requireStatus(selling, ir.StatusNormal))
	requireCode(t, ErrCodeAccountCellStatusError, requireOutputStatus(selling, ir.StatusNormal))
}
