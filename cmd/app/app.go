package main

import (
	"context"
	"time"

	"stream_ledger/internal/config"
	"stream_ledger/internal/db"
	"stream_ledger/internal/events"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/notify"
	"stream_ledger/internal/redisconn"
	"stream_ledger/internal/scheduler"
	"stream_ledger/internal/service"
	"stream_ledger/internal/ws"

	redis "github.com/redis/go-redis/v9"
)

// outboxMinAge keeps sweeps away from work whose create event is still in flight.
const outboxMinAge = 30 * time.Second

// app holds the process-wide collaborators. Everything is built here and
// passed down explicitly.
type app struct {
	cfg        *config.Config
	store      *ledger.Store
	redis      *redis.Client
	hub        *ws.Hub
	notifier   notify.Notifier
	dispatcher *events.Dispatcher
	scheduler  *scheduler.Scheduler

	slots      *service.SlotService
	gifts      *service.GiftService
	payouts    *service.PayoutService
	friends    *service.FriendService
	moderation *service.ModerationService
	reaper     *service.ReaperService
	settings   *service.SettingsService
	revenue    *service.RevenueService
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := redisconn.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// keep serving without redis
		logger.Warn("redis unavailable, using local fallbacks", "error", err)
		rdb = nil
	}

	a := &app{cfg: cfg, store: store, redis: rdb, hub: ws.NewHub()}
	if rdb != nil {
		a.notifier = notify.Fanout{notify.NewRedisNotifier(rdb), notify.LogNotifier{}}
	} else {
		a.notifier = notify.Fanout{a.hub, notify.LogNotifier{}}
	}

	audit := service.NewAuditService()
	a.slots = service.NewSlotService(store, audit)
	a.gifts = service.NewGiftService(store, a.notifier)
	a.payouts = service.NewPayoutService(store, audit, a.notifier)
	a.friends = service.NewFriendService(store)
	a.moderation = service.NewModerationService(store, audit, a.notifier)
	a.reaper = service.NewReaperService(store, cfg.ReaperBatchSize)
	a.settings = service.NewSettingsService(store, audit)
	a.revenue = service.NewRevenueService(store)

	a.dispatcher = events.New(cfg.EventWorkers, cfg.EventQueueSize)
	a.dispatcher.Attach(store)
	service.RegisterEventHandlers(a.dispatcher, a.gifts, a.moderation, a.reaper)

	var lease scheduler.Lease = scheduler.NewLocalLease()
	if rdb != nil {
		lease = scheduler.NewRedisLease(rdb)
	}
	a.scheduler = scheduler.New(cfg.SweepSchedule, lease, cfg.SweepLockTTL)
	a.registerSweeps()

	return a, nil
}

func (a *app) registerSweeps() {
	a.scheduler.Add("reaper", func(ctx context.Context) error {
		n, err := a.reaper.Sweep(ctx, time.Now().UTC())
		logSweep("reaper", n)
		return err
	})
	a.scheduler.Add("gift_credits", func(ctx context.Context) error {
		n, err := a.gifts.SweepUncredited(ctx, outboxMinAge)
		logSweep("gift_credits", n)
		return err
	})
	a.scheduler.Add("reports", func(ctx context.Context) error {
		n, err := a.moderation.SweepPending(ctx, outboxMinAge)
		logSweep("reports", n)
		return err
	})
	a.scheduler.Add("revenue", func(ctx context.Context) error {
		n, err := a.revenue.Aggregate(ctx)
		logSweep("revenue", n)
		return err
	})
}

func logSweep(job string, n int) {
	if n > 0 {
		logger.Info("sweep processed", "job", job, "count", n)
	}
}

func (a *app) close() {
	a.dispatcher.Stop()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.store.Close()
}
