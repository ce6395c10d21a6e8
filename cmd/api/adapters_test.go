package main

import (
	"github.com/fambank/fambank-api/internal/domain/activity"
	"github.com/fambank/fambank-api/internal/domain/badge"
	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/domain/streak"
	"github.com/fambank/fambank-api/internal/domain/weekly"
)

// The adapters bridge consumer-side interfaces across domains; a signature
// drift on either side must fail the build here, not in main's wiring.
var (
	_ streak.DayProvider      = (*dayFactsAdapter)(nil)
	_ weekly.DaySource        = (*weeklyDayAdapter)(nil)
	_ badge.DaySource         = (*badgeDayAdapter)(nil)
	_ badge.StreakSource      = (*badgeStreakAdapter)(nil)
	_ badge.WeekSource        = (*badgeWeekAdapter)(nil)
	_ activity.BadgeEvaluator = (*badgeEventAdapter)(nil)
	_ ledger.EventPublisher   = (*balanceEventAdapter)(nil)
)
