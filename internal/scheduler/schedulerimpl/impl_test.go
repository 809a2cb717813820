package schedulerimpl

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/orgball2608/fedi-albums/internal/database/dbtest"
	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/mediacache"
	"github.com/orgball2608/fedi-albums/internal/repositories"
	"github.com/orgball2608/fedi-albums/internal/repositories/album"
	"github.com/orgball2608/fedi-albums/internal/repositories/photo"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	mock_resolver "github.com/orgball2608/fedi-albums/internal/resolver/mocks"
	"github.com/orgball2608/fedi-albums/internal/resolver/resolverimpl"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
	"github.com/orgball2608/fedi-albums/internal/timeline"
	mock_timeline "github.com/orgball2608/fedi-albums/internal/timeline/mocks"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/errors"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var start = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu     sync.Mutex
	added  map[string][]domain.Photo
	failed map[string]error
}

func (f *fakeNotifier) NotifyNewPhotos(_ context.Context, a domain.Album, photos []domain.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[a.ID] = append(f.added[a.ID], photos...)
	return nil
}

func (f *fakeNotifier) NotifyRefreshFailed(_ context.Context, a domain.Album, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[a.ID] = cause
	return nil
}

type fixture struct {
	sched    *SchedulerImpl
	albums   *album.SQL
	photos   *photo.SQL
	clock    *clockwork.FakeClock
	notifier *fakeNotifier
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Mastodon.MaxWorkers = 4
	cfg.Scheduler.Tick = time.Minute
	cfg.Scheduler.DefaultInterval = 15 * time.Minute
	cfg.Scheduler.BaseBackoff = time.Minute
	cfg.Scheduler.MaxBackoff = time.Hour
	cfg.Scheduler.StopGrace = time.Second
	cfg.Scheduler.AlbumTimeout = 10 * time.Second
	return cfg
}

func newFixture(t *testing.T, r resolver.Client, cfg *config.Config) *fixture {
	t.Helper()
	db := dbtest.New(t)
	log := logger.Nop()

	f := &fixture{
		albums:   album.NewSQL(db, log),
		photos:   photo.NewSQL(db, log),
		clock:    clockwork.NewFakeClockAt(start),
		notifier: &fakeNotifier{added: map[string][]domain.Photo{}, failed: map[string]error{}},
	}
	f.sched = New(Opts{
		Config:     cfg,
		Logger:     log,
		AlbumRepo:  f.albums,
		PhotoRepo:  f.photos,
		Transactor: repositories.NewTransactor(db, log),
		Resolver:   r,
		Telegram:   f.notifier,
		MediaCache: mediacache.NewNoop(),
		Clock:      f.clock,
	})
	return f
}

func newMockFixture(t *testing.T) (*fixture, *mock_resolver.MockClient) {
	t.Helper()
	r := mock_resolver.NewMockClient(gomock.NewController(t))
	return newFixture(t, r, testConfig()), r
}

func (f *fixture) createAlbum(t *testing.T, id string, tags ...string) domain.Album {
	t.Helper()
	if len(tags) == 0 {
		tags = []string{id}
	}
	a, err := f.albums.Create(context.Background(), domain.Album{
		ID:      id,
		Query:   domain.TagQuery{Tags: tags, Mode: domain.TagModeAll},
		Limit:   20,
		Enabled: true,
		Refresh: domain.RefreshState{Interval: 15 * time.Minute},
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) album(t *testing.T, id string) domain.Album {
	t.Helper()
	a, err := f.albums.Get(context.Background(), id)
	require.NoError(t, err)
	return a
}

func photoAt(id int, tags ...string) domain.Photo {
	return domain.Photo{
		StatusID:  fmt.Sprint(id),
		CreatedAt: start.Add(-time.Duration(100-id) * time.Minute),
		URL:       fmt.Sprintf("https://cdn.example/%d.jpg", id),
		Tags:      tags,
		FetchedAt: start,
	}
}

func assertTime(t *testing.T, want time.Time, got *time.Time) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s, got %s", want, *got)
}

func TestBackoffEscalation(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(resolver.Result{}, errors.RateLimited(0, "429 from remote")).Times(3)

	for i, want := range []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute} {
		outcome, err := f.sched.ForceRefresh(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, scheduler.OutcomeRateLimited, outcome.Kind)

		a := f.album(t, "a1")
		assert.Equal(t, i+1, a.Refresh.RetryCount)
		assertTime(t, start.Add(want), a.Refresh.BackoffUntil)
		assertTime(t, start, a.Refresh.LastCheckedAt)
		assert.Contains(t, a.Refresh.LastError, "429")
	}
	assert.Equal(t, int64(3), f.sched.Status().RateLimited)
}

func TestRetryAfterWinsWhenLonger(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(resolver.Result{}, fmt.Errorf("all 2 targets failed: %w", errors.RateLimited(10*time.Minute, "429")))

	outcome, err := f.sched.ForceRefresh(context.Background(), "a1")
	require.NoError(t, err)
	assertTime(t, start.Add(10*time.Minute), outcome.BackoffUntil)
	assertTime(t, start.Add(10*time.Minute), f.album(t, "a1").Refresh.BackoffUntil)
}

func TestDueRespectsBackoff(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()

	until := start.Add(5 * time.Minute)
	_, err := f.albums.Update(ctx, "a1", domain.AlbumPatch{Refresh: &domain.RefreshPatch{BackoffUntil: &until}})
	require.NoError(t, err)

	f.sched.Tick(ctx)
	assert.Equal(t, int64(1), f.sched.Status().Skipped)

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{}, nil)
	f.clock.Advance(5 * time.Minute)
	f.sched.Tick(ctx)

	a := f.album(t, "a1")
	assert.Nil(t, a.Refresh.BackoffUntil)
	assert.Equal(t, int64(1), f.sched.Status().Refreshed)
}

func TestDueRespectsInterval(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{}, nil).Times(2)

	f.sched.Tick(ctx)
	f.clock.Advance(14 * time.Minute)
	f.sched.Tick(ctx)
	f.clock.Advance(time.Minute)
	f.sched.Tick(ctx)

	st := f.sched.Status()
	assert.Equal(t, int64(3), st.Runs)
	assert.Equal(t, int64(2), st.Refreshed)
	assert.Equal(t, int64(1), st.Skipped)
	assertTime(t, start.Add(15*time.Minute), st.LastRunAt)
}

func TestDisabledAlbumsAreNotTicked(t *testing.T) {
	f, _ := newMockFixture(t)
	f.createAlbum(t, "a1")
	_, err := f.albums.Update(context.Background(), "a1", domain.AlbumPatch{Enabled: domain.Ptr(false)})
	require.NoError(t, err)

	f.sched.Tick(context.Background())
	assert.Equal(t, int64(0), f.sched.Status().Refreshed)
}

func TestDueUsesDefaultIntervalAndJitter(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.IntervalJitter = 0.1
	f := newFixture(t, nil, cfg)

	checked := start
	a := domain.Album{Enabled: true, Refresh: domain.RefreshState{LastCheckedAt: &checked}}

	f.sched.rand = func() float64 { return 0 } // -10%
	assert.False(t, f.sched.due(a, start.Add(13*time.Minute)))
	assert.True(t, f.sched.due(a, start.Add(13*time.Minute+30*time.Second)))

	f.sched.rand = func() float64 { return 0.999999 } // almost +10%
	assert.False(t, f.sched.due(a, start.Add(16*time.Minute)))
	assert.True(t, f.sched.due(a, start.Add(17*time.Minute)))
}

func TestTickRollsJitterOncePerAlbum(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.IntervalJitter = 0.1
	r := mock_resolver.NewMockClient(gomock.NewController(t))
	f := newFixture(t, r, cfg)
	f.createAlbum(t, "a1")
	ctx := context.Background()

	checked := start
	_, err := f.albums.Update(ctx, "a1", domain.AlbumPatch{Refresh: &domain.RefreshPatch{LastCheckedAt: &checked}})
	require.NoError(t, err)

	// the first draw makes the album due at 13m30s, a second draw would push it to ~16m30s
	rolls := []float64{0, 0.999999}
	calls := 0
	f.sched.rand = func() float64 {
		v := rolls[calls%len(rolls)]
		calls++
		return v
	}

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{}, nil)
	f.clock.Advance(14 * time.Minute)
	f.sched.Tick(ctx)

	assert.Equal(t, 1, calls)
	st := f.sched.Status()
	assert.Equal(t, int64(1), st.Refreshed)
	assert.Equal(t, int64(0), st.Skipped)
}

func TestSuccessAdvancesWatermarks(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()

	_, err := f.albums.Update(ctx, "a1", domain.AlbumPatch{Refresh: &domain.RefreshPatch{
		SinceID:    domain.Ptr("5"),
		RetryCount: domain.Ptr(2),
		LastError:  domain.Ptr("old failure"),
	}})
	require.NoError(t, err)

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), resolver.Options{Limit: 20, SinceID: "5"}).
		Return(resolver.Result{Photos: []domain.Photo{photoAt(30), photoAt(9), photoAt(12)}, Candidates: 3}, nil)

	outcome, err := f.sched.ForceRefresh(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, 3, outcome.Upserted)
	assert.Equal(t, 3, outcome.Linked)

	a := f.album(t, "a1")
	assert.Equal(t, "30", a.Refresh.SinceID)
	assert.Equal(t, "9", a.Refresh.MaxID)
	assert.Zero(t, a.Refresh.RetryCount)
	assert.Empty(t, a.Refresh.LastError)
	assertTime(t, start, a.Refresh.LastCheckedAt)

	assert.Len(t, f.notifier.added["a1"], 3)
}

func TestEmptyResultKeepsWatermark(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()
	_, err := f.albums.Update(ctx, "a1", domain.AlbumPatch{Refresh: &domain.RefreshPatch{SinceID: domain.Ptr("77")}})
	require.NoError(t, err)

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{}, nil)

	_, err = f.sched.ForceRefresh(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "77", f.album(t, "a1").Refresh.SinceID)
	assert.Empty(t, f.notifier.added)
}

func TestFailedTransition(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()
	_, err := f.albums.Update(ctx, "a1", domain.AlbumPatch{Refresh: &domain.RefreshPatch{RetryCount: domain.Ptr(2)}})
	require.NoError(t, err)

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(resolver.Result{}, errors.Upstream(nil, "remote returned 502"))

	outcome, err := f.sched.ForceRefresh(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeFailed, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, errors.ErrUpstream)

	a := f.album(t, "a1")
	assert.Equal(t, 2, a.Refresh.RetryCount)
	assert.Nil(t, a.Refresh.BackoffUntil)
	assert.Equal(t, "remote returned 502", a.Refresh.LastError)
	assertTime(t, start, a.Refresh.LastCheckedAt)
	assert.Error(t, f.notifier.failed["a1"])
	assert.Equal(t, int64(1), f.sched.Status().Errors)
}

func TestTickContinuesPastFailures(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "broken")
	f.createAlbum(t, "works")

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, q domain.Query, _ resolver.Options) (resolver.Result, error) {
			tags, _, _ := domain.QueryParts(q)
			if tags[0] == "broken" {
				return resolver.Result{}, errors.Upstream(nil, "boom")
			}
			return resolver.Result{Photos: []domain.Photo{photoAt(1, "works")}, Candidates: 1}, nil
		})

	f.sched.Tick(context.Background())

	st := f.sched.Status()
	assert.Equal(t, int64(1), st.Refreshed)
	assert.Equal(t, int64(1), st.Errors)
	assert.Equal(t, "1", f.album(t, "works").Refresh.SinceID)
	assert.Equal(t, "boom", f.album(t, "broken").Refresh.LastError)
}

func TestPartialResultKeepsSinceID(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1", "cats", "dogs")
	ctx := context.Background()

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{
		Photos:     []domain.Photo{photoAt(40, "cats", "dogs")},
		Errors:     []resolver.TargetError{{Kind: resolver.TargetTag, Target: "dogs", Err: errors.Upstream(nil, "503")}},
		Candidates: 4,
	}, nil)

	outcome, err := f.sched.ForceRefresh(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeSuccess, outcome.Kind)
	assert.True(t, outcome.Partial())
	assert.Equal(t, 1, outcome.Linked)

	a := f.album(t, "a1")
	assert.Empty(t, a.Refresh.SinceID)
	assert.Equal(t, "40", a.Refresh.MaxID)
	assert.Contains(t, a.Refresh.LastError, "tag dogs")

	_, total, err := f.photos.ListByAlbum(ctx, "a1", photo.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestPartialRateLimitBacksOff(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1", "cats", "dogs")
	ctx := context.Background()

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{
		Photos: []domain.Photo{photoAt(40, "cats", "dogs")},
		Errors: []resolver.TargetError{{Kind: resolver.TargetTag, Target: "dogs", Err: errors.RateLimited(0, "429")}},
	}, nil)

	outcome, err := f.sched.ForceRefresh(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, scheduler.OutcomeRateLimited, outcome.Kind)
	assert.Equal(t, 1, outcome.Linked)

	a := f.album(t, "a1")
	assert.Equal(t, 1, a.Refresh.RetryCount)
	assertTime(t, start.Add(time.Minute), a.Refresh.BackoffUntil)
	assert.Empty(t, a.Refresh.SinceID)
}

func TestForceRefresh(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()
	_, err := f.albums.Update(ctx, "a1", domain.AlbumPatch{Enabled: domain.Ptr(false)})
	require.NoError(t, err)

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(resolver.Result{Photos: []domain.Photo{photoAt(3, "a1")}}, nil)

	outcome, err := f.sched.ForceRefresh(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", outcome.AlbumID)
	assert.Equal(t, 1, outcome.Linked)

	_, err = f.sched.ForceRefresh(ctx, "missing")
	assert.ErrorIs(t, err, album.ErrNotFound)
}

func TestInterAlbumDelay(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.InterAlbumDelay = 30 * time.Second
	r := mock_resolver.NewMockClient(gomock.NewController(t))
	f := newFixture(t, r, cfg)
	f.createAlbum(t, "a1")
	f.createAlbum(t, "a2")

	var calls atomic.Int32
	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(context.Context, domain.Query, resolver.Options) (resolver.Result, error) {
			calls.Add(1)
			return resolver.Result{}, nil
		})

	done := make(chan struct{})
	go func() {
		f.sched.Tick(context.Background())
		close(done)
	}()

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, int32(1), calls.Load())

	f.clock.Advance(30 * time.Second)
	select {
	case <-done:
	case <-waitCtx.Done():
		t.Fatal("tick did not finish")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestTickStopsWhenCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.InterAlbumDelay = 30 * time.Second
	r := mock_resolver.NewMockClient(gomock.NewController(t))
	f := newFixture(t, r, cfg)
	f.createAlbum(t, "a1")
	f.createAlbum(t, "a2")

	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{}, nil).Times(1)

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.sched.Tick(ctx)
		close(done)
	}()

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.clock.BlockUntilContext(waitCtx, 1))
	stop()

	select {
	case <-done:
	case <-waitCtx.Done():
		t.Fatal("tick did not stop")
	}
	assert.Equal(t, int64(1), f.sched.Status().Refreshed)
}

func TestStartStopAreIdempotent(t *testing.T) {
	f, _ := newMockFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sched.Start(ctx))
	require.NoError(t, f.sched.Start(ctx))
	assert.True(t, f.sched.Status().Running)

	require.NoError(t, f.sched.Stop(ctx))
	require.NoError(t, f.sched.Stop(ctx))
	assert.False(t, f.sched.Status().Running)
}

func TestStatusDoesNotWaitForStop(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.Query, resolver.Options) (resolver.Result, error) {
			close(started)
			<-release
			return resolver.Result{}, nil
		})

	require.NoError(t, f.sched.Start(ctx))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh job did not start")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- f.sched.Stop(ctx) }()

	// Stop is now waiting on the in-flight album
	assert.Eventually(t, func() bool { return !f.sched.Status().Running }, 500*time.Millisecond, 5*time.Millisecond)

	close(release)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}
}

func TestAlbumLocksAreReleased(t *testing.T) {
	var l albumLocks
	l.m = make(map[string]*albumLock)

	unlock := l.lock("a1")
	assert.Equal(t, 1, l.size())

	acquired := make(chan func())
	go func() { acquired <- l.lock("a1") }()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	var unlock2 func()
	select {
	case unlock2 = <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second holder never acquired the lock")
	}
	assert.Equal(t, 1, l.size())

	unlock2()
	assert.Equal(t, 0, l.size())
}

func TestForceRefreshLeavesNoLockBehind(t *testing.T) {
	f, r := newMockFixture(t)
	f.createAlbum(t, "a1")
	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Return(resolver.Result{}, nil)

	_, err := f.sched.ForceRefresh(context.Background(), "a1")
	require.NoError(t, err)
	_, err = f.sched.ForceRefresh(context.Background(), "missing")
	assert.ErrorIs(t, err, album.ErrNotFound)

	assert.Equal(t, 0, f.sched.locks.size())
}

func TestItalyTravelScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	tl := mock_timeline.NewMockClient(ctrl)
	cfg := testConfig()
	res := resolverimpl.New(resolverimpl.Opts{Config: cfg, Logger: logger.Nop(), Timeline: tl})
	f := newFixture(t, res, cfg)
	f.createAlbum(t, "italy-travel", "Italy", "#travel")
	ctx := context.Background()

	// 45 unique candidates, 12 of them carry both tags
	var italy, travel []domain.Photo
	for i := 1; i <= 30; i++ {
		if i <= 12 {
			italy = append(italy, photoAt(i, "italy", "travel"))
			travel = append(travel, photoAt(i, "italy", "travel"))
		} else {
			italy = append(italy, photoAt(i, "italy"))
		}
	}
	for i := 31; i <= 45; i++ {
		travel = append(travel, photoAt(i, "travel"))
	}
	tl.EXPECT().FetchTagPage(gomock.Any(), "italy", gomock.Any()).
		Return(timeline.Page{Photos: italy, Statuses: len(italy)}, nil).Times(2)
	tl.EXPECT().FetchTagPage(gomock.Any(), "travel", gomock.Any()).
		Return(timeline.Page{Photos: travel, Statuses: len(travel)}, nil).Times(2)

	outcome, err := f.sched.ForceRefresh(ctx, "italy-travel")
	require.NoError(t, err)
	assert.Equal(t, 45, outcome.Candidates)
	assert.Equal(t, 12, outcome.Matched)
	assert.Equal(t, 12, outcome.Upserted)
	assert.Equal(t, 12, outcome.Linked)

	items, total, err := f.photos.ListByAlbum(ctx, "italy-travel", photo.Page{Limit: 40})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	for _, p := range items {
		assert.True(t, p.MatchesTags([]string{"italy", "travel"}, domain.TagModeAll))
	}
	assert.Equal(t, "12", f.album(t, "italy-travel").Refresh.SinceID)

	// a second pass over the same remote state links nothing new
	outcome, err = f.sched.ForceRefresh(ctx, "italy-travel")
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Linked)
	_, total, err = f.photos.ListByAlbum(ctx, "italy-travel", photo.Page{Limit: 40})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, f.notifier.added["italy-travel"], 12)
}
