package settings

// Keys stored in the reward_settings table. Missing keys fall back to the
// defaults below so a fresh install works without seeding.
const (
	KeyGradeCoins5       = "grade_coins_5"
	KeyGradeCoins4       = "grade_coins_4"
	KeyGradeCoins3       = "grade_coins_3"
	KeyGradeCoins2       = "grade_coins_2"
	KeyRoomDailyCoins    = "room_daily_coins"
	KeySportDailyCoins   = "sport_daily_coins"
	KeySportMinMinutes   = "sport_min_minutes"
	KeyWeekBaseCoins     = "week_base_coins"
	KeyBonusAll5         = "bonus_all5"
	KeyRoomBonusFull     = "room_bonus_full"
	KeyRoomBonusPartial  = "room_bonus_partial"
	KeySportWeekBonus    = "sport_week_bonus"
	KeyDiaryPenaltyRate  = "diary_penalty_rate"
	KeyStrongWeekCoins   = "strong_week_coins"
	KeyExchangeBaseCents = "exchange_base_cents"
	KeyExchangeTier1     = "exchange_tier1_balance"
	KeyExchangeTier2     = "exchange_tier2_balance"
	KeyExchangeTier1Pct  = "exchange_tier1_bonus_pct"
	KeyExchangeTier2Pct  = "exchange_tier2_bonus_pct"
	KeyTransferMax       = "transfer_max"
	KeyTransferApproval  = "transfer_approval_threshold"
	KeyTransferDayMax    = "transfer_day_max"
	KeyTransferMonthMax  = "transfer_month_max"
	KeyMaxLoanTermDays   = "max_loan_term_days"
	KeyCheatPenalty1     = "cheat_penalty_first"
	KeyCheatPenalty2     = "cheat_penalty_second"
	KeyCheatWindowDays   = "cheat_window_days"
	KeyFirstGoalCoins    = "first_goal_coins"
	KeyBadgeXP           = "badge_xp"
)

// Rates is the immutable rate table handed to the calculators. It is always
// passed in explicitly; no calculator reads ambient configuration.
type Rates struct {
	// Daily awards
	GradeCoins      map[int64]int64
	RoomDailyCoins  int64
	SportDailyCoins int64
	SportMinMinutes int64

	// Weekly settlement
	WeekBaseCoins    int64
	BonusAll5        int64
	RoomBonusFull    int64
	RoomBonusPartial int64
	SportWeekBonus   int64
	DiaryPenaltyRate int64
	StrongWeekCoins  int64

	// Exchange tiers
	ExchangeBaseCents    int64
	ExchangeTier1Balance int64
	ExchangeTier2Balance int64
	ExchangeTier1Pct     int64
	ExchangeTier2Pct     int64

	// Transfer limits
	TransferMax       int64
	TransferApproval  int64
	TransferDayMax    int64
	TransferMonthMax  int64
	MaxLoanTermDays   int64

	// Anti-cheat escalation
	CheatPenaltyFirst  int64
	CheatPenaltySecond int64
	CheatWindowDays    int64

	// Badges
	FirstGoalCoins int64
	BadgeXP        int64
}

// Defaults returns the documented default rate table.
func Defaults() Rates {
	return Rates{
		GradeCoins: map[int64]int64{
			5: 10,
			4: 5,
			3: 0,
			2: -5,
		},
		RoomDailyCoins:  3,
		SportDailyCoins: 5,
		SportMinMinutes: 20,

		WeekBaseCoins:    50,
		BonusAll5:        100,
		RoomBonusFull:    30,
		RoomBonusPartial: 15,
		SportWeekBonus:   25,
		DiaryPenaltyRate: 10,
		StrongWeekCoins:  150,

		ExchangeBaseCents:    10,
		ExchangeTier1Balance: 100,
		ExchangeTier2Balance: 500,
		ExchangeTier1Pct:     20,
		ExchangeTier2Pct:     50,

		TransferMax:      200,
		TransferApproval: 50,
		TransferDayMax:   300,
		TransferMonthMax: 1000,
		MaxLoanTermDays:  30,

		CheatPenaltyFirst:  10,
		CheatPenaltySecond: 50,
		CheatWindowDays:    30,

		FirstGoalCoins: 1000,
		BadgeXP:        250,
	}
}
