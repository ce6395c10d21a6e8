package ledger_test

import (
	"testing"

	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/domain/settings"
)

func TestBonusPercentTiers(t *testing.T) {
	rates := settings.Defaults()

	tests := []struct {
		name    string
		balance int64
		want    int64
	}{
		{"below first tier", 99, 0},
		{"exactly first tier", 100, 20},
		{"between tiers", 499, 20},
		{"exactly second tier", 500, 50},
		{"far above second tier", 1000, 50},
		{"zero balance", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.BonusPercent(tt.balance, rates); got != tt.want {
				t.Fatalf("BonusPercent(%d) = %d, want %d", tt.balance, got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	rates := settings.Defaults() // base 10 cents per coin

	tests := []struct {
		name      string
		coins     int64
		balance   int64
		wantCents int64
		wantPct   int64
	}{
		{"base rate", 50, 99, 500, 0},
		{"first tier bonus", 50, 100, 600, 20},
		{"second tier bonus", 50, 500, 750, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cents, pct := ledger.Quote(tt.coins, tt.balance, rates)
			if cents != tt.wantCents || pct != tt.wantPct {
				t.Fatalf("Quote(%d, %d) = (%d, %d), want (%d, %d)",
					tt.coins, tt.balance, cents, pct, tt.wantCents, tt.wantPct)
			}
		})
	}
}

func TestWalletLevel(t *testing.T) {
	tests := []struct {
		xp   int64
		want int64
	}{
		{0, 1},
		{999, 1},
		{1000, 2},
		{2500, 3},
	}

	for _, tt := range tests {
		w := ledger.Wallet{XP: tt.xp}
		if got := w.Level(); got != tt.want {
			t.Fatalf("Level() with xp=%d = %d, want %d", tt.xp, got, tt.want)
		}
	}
}
