package ledger

import "github.com/fambank/fambank-api/internal/domain/settings"

// BonusPercent returns the exchange bonus tier for a coin balance. Tiers do
// not stack; the highest applicable tier wins.
func BonusPercent(balance int64, r settings.Rates) int64 {
	switch {
	case balance >= r.ExchangeTier2Balance:
		return r.ExchangeTier2Pct
	case balance >= r.ExchangeTier1Balance:
		return r.ExchangeTier1Pct
	default:
		return 0
	}
}

// Quote computes the money value in cents for exchanging coins at the current
// balance tier, and the bonus percent that was applied.
func Quote(coins, balance int64, r settings.Rates) (moneyCents int64, bonusPct int64) {
	bonusPct = BonusPercent(balance, r)
	moneyCents = coins * r.ExchangeBaseCents * (100 + bonusPct) / 100
	return moneyCents, bonusPct
}
