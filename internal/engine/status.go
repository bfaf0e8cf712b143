package engine

import (
	"slices"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

// Expiration is the window an account is in relative to its expired_at.
type Expiration uint8

const (
	ExpirationActive Expiration = iota
	ExpirationGrace
	ExpirationAuction
	ExpirationConfirmation
	ExpirationExpired
)

func (e Expiration) String() string {
	switch e {
	case ExpirationActive:
		return "active"
	case ExpirationGrace:
		return "grace"
	case ExpirationAuction:
		return "auction"
	case ExpirationConfirmation:
		return "confirmation"
	default:
		return "expired"
	}
}

// ClassifyExpiration places now relative to expiredAt. An account is active
// up to and including expiredAt; each later window includes its last second.
func ClassifyExpiration(a config.Account, expiredAt, now uint64) Expiration {
	if now <= expiredAt {
		return ExpirationActive
	}
	elapsed := now - expiredAt
	grace := a.ExpirationGracePeriod
	auction := grace + a.ExpirationAuctionPeriod
	confirmation := auction + a.ExpirationAuctionConfirmationPeriod
	switch {
	case elapsed <= grace:
		return ExpirationGrace
	case elapsed <= auction:
		return ExpirationAuction
	case elapsed <= confirmation:
		return ExpirationConfirmation
	default:
		return ExpirationExpired
	}
}

// windowError is the rejection for an account found in window e when the
// action needs another window.
func windowError(e Expiration, ac *AccountCell) *VerifyError {
	switch e {
	case ExpirationActive:
		return newVerifyError(ErrCodeAccountCellIsNotExpired, "%s is not expired", ac)
	case ExpirationGrace:
		return newVerifyError(ErrCodeAccountCellInGracePeriod, "%s is in its grace period", ac)
	case ExpirationAuction:
		return newVerifyError(ErrCodeAccountCellInAuctionPeriod, "%s is in its auction period", ac)
	case ExpirationConfirmation:
		return newVerifyError(ErrCodeAccountCellInAuctionConfirmation, "%s is in its auction confirmation period", ac)
	default:
		return newVerifyError(ErrCodeAccountCellHasExpired, "%s has expired", ac)
	}
}

// requireWindow classifies ac at oracle time and rejects any window not in allowed.
func (c *evalCtx) requireWindow(ac *AccountCell, allowed ...Expiration) (Expiration, error) {
	now, err := c.timestamp()
	if err != nil {
		return 0, err
	}
	e := ClassifyExpiration(c.cfg.Account, ac.Data.ExpiredAt, now)
	if !slices.Contains(allowed, e) {
		return e, windowError(e, ac).With("expired_at", ac.Data.ExpiredAt).With("now", now)
	}
	c.step("expiration window checked", "window", e.String())
	return e, nil
}

// requireStatus rejects an input record whose status is not in allowed.
func requireStatus(ac *AccountCell, allowed ...ir.AccountStatus) error {
	s := ac.Record.Status()
	if slices.Contains(allowed, s) {
		return nil
	}
	code := ErrCodeAccountCellStatusLocked
	if s == ir.StatusNormal {
		code = ErrCodeAccountCellStatusError
	}
	return newVerifyError(code, "%s is %s", ac, s).With("allowed", allowed)
}

// requireOutputStatus rejects an output record whose status is not want.
func requireOutputStatus(ac *AccountCell, want ir.AccountStatus) error {
	if s := ac.Record.Status(); s != want {
		return newVerifyError(ErrCodeAccountCellStatusError, "%s should be %s, found %s", ac, want, s)
	}
	return nil
}
