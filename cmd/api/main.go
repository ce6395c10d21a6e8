package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fambank/fambank-api/internal/config"
	"github.com/fambank/fambank-api/internal/domain/activity"
	"github.com/fambank/fambank-api/internal/domain/badge"
	"github.com/fambank/fambank-api/internal/domain/events"
	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/domain/potential"
	"github.com/fambank/fambank-api/internal/domain/settings"
	"github.com/fambank/fambank-api/internal/domain/streak"
	"github.com/fambank/fambank-api/internal/domain/transfer"
	"github.com/fambank/fambank-api/internal/domain/weekly"
	"github.com/fambank/fambank-api/internal/domain/withdrawal"
	"github.com/fambank/fambank-api/internal/middleware"
	"github.com/fambank/fambank-api/internal/pkg/archive"
	"github.com/fambank/fambank-api/internal/pkg/database"
	"github.com/fambank/fambank-api/internal/pkg/jwt"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting FamBank API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Repositories ----------
	settingsRepo := settings.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	streakRepo := streak.NewRepository(db)
	badgeRepo := badge.NewRepository(db)
	weeklyRepo := weekly.NewRepository(db)
	transferRepo := transfer.NewRepository(db)
	withdrawalRepo := withdrawal.NewRepository(db)

	// ---------- WebSocket hub ----------
	hub := events.NewHub(redisClient)
	go hub.Run()

	// ---------- Services ----------
	settingsSvc := settings.NewService(settingsRepo, redisClient)
	ledgerSvc := ledger.NewService(ledgerRepo, settingsSvc, &balanceEventAdapter{hub: hub})

	dayFacts := &dayFactsAdapter{days: activityRepo, settings: settingsSvc}
	streakSvc := streak.NewService(streakRepo, dayFacts)

	weeklySvc := weekly.NewService(weeklyRepo, ledgerRepo, settingsSvc,
		&weeklyDayAdapter{days: activityRepo}, streakSvc)

	badgeSvc := badge.NewService(badgeRepo, ledgerRepo, ledgerRepo, settingsSvc,
		&badgeDayAdapter{days: activityRepo},
		&badgeStreakAdapter{streaks: streakSvc},
		&badgeWeekAdapter{weeks: weeklySvc})

	activitySvc := activity.NewService(activityRepo, ledgerRepo, settingsSvc, streakSvc,
		&badgeEventAdapter{badges: badgeSvc, hub: hub})

	transferSvc := transfer.NewService(transferRepo, ledgerRepo, settingsSvc)
	withdrawalSvc := withdrawal.NewService(withdrawalRepo, ledgerRepo, ledgerRepo, settingsSvc)
	potentialSvc := potential.NewService(ledgerSvc, settingsSvc)

	// ---------- Handlers ----------
	settingsHandler := settings.NewHandler(settingsSvc)
	ledgerHandler := ledger.NewHandler(ledgerSvc)
	activityHandler := activity.NewHandler(activitySvc)
	streakHandler := streak.NewHandler(streakSvc)
	badgeHandler := badge.NewHandler(badgeSvc)
	weeklyHandler := weekly.NewHandler(weeklySvc)
	transferHandler := transfer.NewHandler(transferSvc)
	withdrawalHandler := withdrawal.NewHandler(withdrawalSvc)
	potentialHandler := potential.NewHandler(potentialSvc)
	eventsHandler := events.NewHandler(hub)

	// ---------- Scheduled jobs ----------
	var archiveClient *archive.Client
	if cfg.ArchiveEnabled {
		archiveClient, err = archive.New(archive.Config{
			AccountID:       cfg.ArchiveAccountID,
			AccessKeyID:     cfg.ArchiveAccessKeyID,
			AccessKeySecret: cfg.ArchiveAccessKeySecret,
			BucketName:      cfg.ArchiveBucketName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create archive client")
		}
	}

	scheduler := cron.New()
	scheduler.AddFunc("0 8 * * *", func() { reportOverdueLoans(transferSvc) })
	if archiveClient != nil {
		scheduler.AddFunc("30 2 1 * *", func() { exportAuditArchive(ledgerSvc, archiveClient) })
	}
	scheduler.Start()
	defer scheduler.Stop()

	// ---------- Router ----------
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	authMiddleware := middleware.Auth(jwtService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/wallets", ledgerHandler.Routes(authMiddleware))
		r.Mount("/activity", activityHandler.Routes(authMiddleware))
		r.Mount("/streaks", streakHandler.Routes(authMiddleware))
		r.Mount("/badges", badgeHandler.Routes(authMiddleware))
		r.Mount("/weeks", weeklyHandler.Routes(authMiddleware))
		r.Mount("/transfers", transferHandler.Routes(authMiddleware))
		r.Mount("/withdrawals", withdrawalHandler.Routes(authMiddleware))
		r.Mount("/potential", potentialHandler.Routes(authMiddleware))
		r.Mount("/settings", settingsHandler.Routes(authMiddleware))
		r.Mount("/events", eventsHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}

// reportOverdueLoans surfaces loans past their due date in the logs so a
// parent can follow up.
func reportOverdueLoans(svc *transfer.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loans, err := svc.ListOverdueLoans(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("overdue loan check failed")
		return
	}
	for _, loan := range loans {
		log.Warn().
			Str("transfer_id", loan.ID.String()).
			Str("borrower", loan.ToChildID.String()).
			Int64("amount", loan.Amount+loan.LoanInterest).
			Time("due", *loan.LoanDueDate).
			Msg("loan overdue")
	}
}

// exportAuditArchive uploads the previous month's audit log as one JSON
// snapshot. Skips months that were already exported.
func exportAuditArchive(svc *ledger.Service, client *archive.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := monthStart.AddDate(0, -1, 0)
	key := fmt.Sprintf("audit/%s.json", prevStart.Format("2006-01"))

	if exists, _ := client.Exists(ctx, key); exists {
		return
	}

	entries, err := svc.AuditBetween(ctx, prevStart, monthStart)
	if err != nil {
		log.Error().Err(err).Msg("audit archive export failed")
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		log.Error().Err(err).Msg("audit archive marshal failed")
		return
	}
	if err := client.Put(ctx, key, data, "application/json"); err != nil {
		log.Error().Err(err).Str("key", key).Msg("audit archive upload failed")
		return
	}
	log.Info().Str("key", key).Int("entries", len(entries)).Msg("audit archive exported")
}

// Adapter implementations to bridge interface mismatches

// dayFactsAdapter feeds per-day qualifying facts from daily activity records
// to the streak tracker.
type dayFactsAdapter struct {
	days     *activity.Repository
	settings *settings.Service
}

func (a *dayFactsAdapter) DayFacts(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]streak.DayFact, error) {
	rates, err := a.settings.Rates(ctx)
	if err != nil {
		return nil, err
	}
	records, err := a.days.Range(ctx, childID, from, to)
	if err != nil {
		return nil, err
	}

	facts := make([]streak.DayFact, 0, len(records))
	for _, rec := range records {
		facts = append(facts, streak.DayFact{
			Date:    rec.Date,
			RoomOK:  rec.RoomOK,
			StudyOK: len(rec.Grades) > 0,
			SportOK: rec.SportMinutes >= rates.SportMinMinutes,
		})
	}
	return facts, nil
}

// weeklyDayAdapter feeds the week's day records to the weekly scoring engine.
type weeklyDayAdapter struct {
	days *activity.Repository
}

func (a *weeklyDayAdapter) Days(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]weekly.DayInfo, error) {
	records, err := a.days.Range(ctx, childID, from, to)
	if err != nil {
		return nil, err
	}

	days := make([]weekly.DayInfo, 0, len(records))
	for _, rec := range records {
		days = append(days, weekly.DayInfo{
			Date:         rec.Date,
			RoomOK:       rec.RoomOK,
			Grades:       rec.Grades,
			SportMinutes: rec.SportMinutes,
			DiaryMissed:  rec.DiaryMissed,
		})
	}
	return days, nil
}

// badgeDayAdapter feeds graded days to the badge triggers.
type badgeDayAdapter struct {
	days *activity.Repository
}

func (a *badgeDayAdapter) GradedDays(ctx context.Context, childID uuid.UUID, from, to time.Time) ([]badge.GradedDay, error) {
	records, err := a.days.Range(ctx, childID, from, to)
	if err != nil {
		return nil, err
	}

	days := make([]badge.GradedDay, 0, len(records))
	for _, rec := range records {
		days = append(days, badge.GradedDay{Date: rec.Date, Grades: rec.Grades})
	}
	return days, nil
}

// badgeStreakAdapter exposes streak counters to the badge triggers.
type badgeStreakAdapter struct {
	streaks *streak.Service
}

func (a *badgeStreakAdapter) Counts(ctx context.Context, childID uuid.UUID, streakType string) (int64, int64, error) {
	s, err := a.streaks.Get(ctx, childID, streak.Type(streakType))
	if err != nil {
		return 0, 0, err
	}
	return int64(s.CurrentCount), int64(s.BestCount), nil
}

// badgeWeekAdapter exposes the latest finalized week to the badge triggers.
type badgeWeekAdapter struct {
	weeks *weekly.Service
}

func (a *badgeWeekAdapter) LatestFinalized(ctx context.Context, childID uuid.UUID) (*badge.FinalizedWeek, error) {
	rec, err := a.weeks.LatestFinalized(ctx, childID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &badge.FinalizedWeek{
		WeekStart:     rec.WeekStart,
		ManualPenalty: rec.ManualPenalty,
		Total:         rec.Total,
	}, nil
}

// badgeEventAdapter runs the badge engine for the day-save pipeline and fans
// awards out to connected clients.
type badgeEventAdapter struct {
	badges *badge.Service
	hub    *events.Hub
}

func (a *badgeEventAdapter) Evaluate(ctx context.Context, childID uuid.UUID, date time.Time) ([]string, error) {
	awarded, err := a.badges.Evaluate(ctx, childID, date)
	if err != nil {
		return nil, err
	}
	for _, key := range awarded {
		a.hub.Publish(&events.Event{
			Type:    events.EventBadgeAwarded,
			ChildID: childID,
			Data:    map[string]string{"badge_key": key},
		})
	}
	return awarded, nil
}

// balanceEventAdapter fans committed balance changes out to connected
// clients.
type balanceEventAdapter struct {
	hub *events.Hub
}

func (a *balanceEventAdapter) PublishBalanceChange(_ context.Context, entry *ledger.AuditEntry) {
	a.hub.Publish(&events.Event{
		Type:    events.EventBalanceChange,
		ChildID: entry.ChildID,
		Data:    entry,
	})
}
