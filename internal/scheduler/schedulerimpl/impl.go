package schedulerimpl

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/fedi-albums/internal/mediacache"
	"github.com/orgball2608/fedi-albums/internal/repositories"
	"github.com/orgball2608/fedi-albums/internal/repositories/album"
	"github.com/orgball2608/fedi-albums/internal/repositories/photo"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
	"github.com/orgball2608/fedi-albums/internal/telegram"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config     *config.Config
	Logger     logger.Logger
	AlbumRepo  album.Repository
	PhotoRepo  photo.Repository
	Transactor *repositories.Transactor
	Resolver   resolver.Client
	Telegram   telegram.Client
	MediaCache mediacache.Cache

	Clock clockwork.Clock `optional:"true"`
}

type SchedulerImpl struct {
	cfg        settings
	albumRepo  album.Repository
	photoRepo  photo.Repository
	transactor *repositories.Transactor
	resolver   resolver.Client
	telegram   telegram.Client
	media      mediacache.Cache
	logger     logger.Logger
	clock      clockwork.Clock
	rand       func() float64

	mu      sync.Mutex
	cron    gocron.Scheduler
	cancel  context.CancelFunc
	running bool

	locks albumLocks

	runs        atomic.Int64
	refreshed   atomic.Int64
	skipped     atomic.Int64
	failures    atomic.Int64
	rateLimited atomic.Int64
	lastRunAt   atomic.Int64 // unix nanos, 0 before the first tick
}

// settings is the subset of config.Config the scheduler reads.
type settings struct {
	Tick            time.Duration
	DefaultInterval time.Duration
	IntervalJitter  float64
	BaseBackoff     time.Duration
	MaxBackoff      time.Duration
	BackoffJitter   float64
	InterAlbumDelay time.Duration
	StopGrace       time.Duration
	AlbumTimeout    time.Duration
	CleanupEnabled  bool
	CleanupHour     uint
	MediaMaxAge     time.Duration
}

var _ scheduler.Client = (*SchedulerImpl)(nil)

func New(opts Opts) *SchedulerImpl {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	notifier := opts.Telegram
	if notifier == nil {
		notifier = telegram.Noop{}
	}
	media := opts.MediaCache
	if media == nil {
		media = mediacache.NewNoop()
	}

	sc := opts.Config.Scheduler
	return &SchedulerImpl{
		cfg: settings{
			Tick:            sc.Tick,
			DefaultInterval: sc.DefaultInterval,
			IntervalJitter:  sc.IntervalJitter,
			BaseBackoff:     sc.BaseBackoff,
			MaxBackoff:      sc.MaxBackoff,
			BackoffJitter:   sc.BackoffJitter,
			InterAlbumDelay: sc.InterAlbumDelay,
			StopGrace:       sc.StopGrace,
			AlbumTimeout:    sc.AlbumTimeout,
			CleanupEnabled:  sc.CleanupEnabled,
			CleanupHour:     sc.CleanupHour,
			MediaMaxAge:     sc.MediaMaxAge,
		},
		albumRepo:  opts.AlbumRepo,
		photoRepo:  opts.PhotoRepo,
		transactor: opts.Transactor,
		resolver:   opts.Resolver,
		telegram:   notifier,
		media:      media,
		logger:     opts.Logger.WithComponent("Scheduler"),
		clock:      clock,
		rand:       rand.Float64,
		locks:      albumLocks{m: make(map[string]*albumLock)},
	}
}

// Start registers the refresh job, and the cleanup job when enabled, on a
// fresh gocron scheduler. The jobs run until Stop.
func (s *SchedulerImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	cron, err := gocron.NewScheduler(
		gocron.WithClock(s.clock),
		gocron.WithStopTimeout(s.cfg.StopGrace),
		gocron.WithLogger(s.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	// The job context outlives the start hook's ctx and ends at Stop.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	_, err = cron.NewJob(
		gocron.DurationJob(s.cfg.Tick),
		gocron.NewTask(func() { s.Tick(runCtx) }),
		gocron.WithName("refresh-albums"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule album refresh: %w", err)
	}

	if s.cfg.CleanupEnabled {
		_, err = cron.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(s.cfg.CleanupHour, 0, 0))),
			gocron.NewTask(func() { s.cleanup(runCtx) }),
			gocron.WithName("remove-unreferenced-photos"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to schedule database cleanup: %w", err)
		}
	}

	cron.Start()
	s.cron, s.cancel, s.running = cron, cancel, true

	s.logger.Info("Scheduler started", "tick", s.cfg.Tick, "cleanup", s.cfg.CleanupEnabled)
	return nil
}

// Stop cancels the job context so no new album starts, then waits up to
// StopGrace for the running album. In-flight transactions are never cut.
// The state lock is released before waiting so Status stays responsive.
func (s *SchedulerImpl) Stop(_ context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cron, cancel := s.cron, s.cancel
	s.cron, s.cancel, s.running = nil, nil, false
	s.mu.Unlock()

	cancel()
	if err := cron.Shutdown(); err != nil {
		s.logger.Warn("Scheduler stopped before jobs finished", "error", err)
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *SchedulerImpl) Status() scheduler.Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	st := scheduler.Status{
		Running:     running,
		Runs:        s.runs.Load(),
		Refreshed:   s.refreshed.Load(),
		Skipped:     s.skipped.Load(),
		Errors:      s.failures.Load(),
		RateLimited: s.rateLimited.Load(),
	}
	if ns := s.lastRunAt.Load(); ns != 0 {
		t := time.Unix(0, ns).UTC()
		st.LastRunAt = &t
	}
	return st
}

// albumLocks serializes refreshes of the same album. An entry lives only
// while someone holds or waits for it.
type albumLocks struct {
	mu sync.Mutex
	m  map[string]*albumLock
}

type albumLock struct {
	sync.Mutex
	refs int
}

func (l *albumLocks) lock(id string) func() {
	l.mu.Lock()
	m, ok := l.m[id]
	if !ok {
		m = &albumLock{}
		l.m[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()

		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

// size reports how many albums currently have an entry.
func (l *albumLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
