package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheKey = "settings:rates"
	cacheTTL = 60 * time.Second
)

// Service assembles the typed rate table from stored overrides plus defaults,
// with a short-lived Redis cache in front of Postgres.
type Service struct {
	repo  *Repository
	cache *redis.Client
}

func NewService(repo *Repository, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache}
}

// Rates returns the current rate table. Missing keys keep their defaults.
func (s *Service) Rates(ctx context.Context) (Rates, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached Rates
			if json.Unmarshal(raw, &cached) == nil && cached.GradeCoins != nil {
				return cached, nil
			}
		}
	}

	overrides, err := s.repo.LoadAll(ctx)
	if err != nil {
		return Rates{}, err
	}
	rates := merge(Defaults(), overrides)

	if s.cache != nil {
		if raw, err := json.Marshal(rates); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("settings cache write failed")
			}
		}
	}
	return rates, nil
}

// Set stores a single override and drops the cache.
func (s *Service) Set(ctx context.Context, key string, value int64) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("settings cache invalidation failed")
		}
	}
	log.Info().Str("key", key).Int64("value", value).Msg("reward setting updated")
	return nil
}

func merge(rates Rates, overrides map[string]int64) Rates {
	pick := func(key string, dst *int64) {
		if v, ok := overrides[key]; ok {
			*dst = v
		}
	}

	for grade, key := range map[int64]string{
		5: KeyGradeCoins5,
		4: KeyGradeCoins4,
		3: KeyGradeCoins3,
		2: KeyGradeCoins2,
	} {
		if v, ok := overrides[key]; ok {
			rates.GradeCoins[grade] = v
		}
	}

	pick(KeyRoomDailyCoins, &rates.RoomDailyCoins)
	pick(KeySportDailyCoins, &rates.SportDailyCoins)
	pick(KeySportMinMinutes, &rates.SportMinMinutes)
	pick(KeyWeekBaseCoins, &rates.WeekBaseCoins)
	pick(KeyBonusAll5, &rates.BonusAll5)
	pick(KeyRoomBonusFull, &rates.RoomBonusFull)
	pick(KeyRoomBonusPartial, &rates.RoomBonusPartial)
	pick(KeySportWeekBonus, &rates.SportWeekBonus)
	pick(KeyDiaryPenaltyRate, &rates.DiaryPenaltyRate)
	pick(KeyStrongWeekCoins, &rates.StrongWeekCoins)
	pick(KeyExchangeBaseCents, &rates.ExchangeBaseCents)
	pick(KeyExchangeTier1, &rates.ExchangeTier1Balance)
	pick(KeyExchangeTier2, &rates.ExchangeTier2Balance)
	pick(KeyExchangeTier1Pct, &rates.ExchangeTier1Pct)
	pick(KeyExchangeTier2Pct, &rates.ExchangeTier2Pct)
	pick(KeyTransferMax, &rates.TransferMax)
	pick(KeyTransferApproval, &rates.TransferApproval)
	pick(KeyTransferDayMax, &rates.TransferDayMax)
	pick(KeyTransferMonthMax, &rates.TransferMonthMax)
	pick(KeyMaxLoanTermDays, &rates.MaxLoanTermDays)
	pick(KeyCheatPenalty1, &rates.CheatPenaltyFirst)
	pick(KeyCheatPenalty2, &rates.CheatPenaltySecond)
	pick(KeyCheatWindowDays, &rates.CheatWindowDays)
	pick(KeyFirstGoalCoins, &rates.FirstGoalCoins)
	pick(KeyBadgeXP, &rates.BadgeXP)

	return rates
}
