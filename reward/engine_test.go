package reward

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the engine's now/sleep hooks so tests never really wait.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeStore struct {
	progress Progress
	getErr   error
	applyErr error

	gets    int
	applies int
	last    Grant
}

func (s *fakeStore) GetProgress(ctx context.Context, userID uint) (Progress, error) {
	s.gets++
	return s.progress, s.getErr
}

func (s *fakeStore) ApplyGrant(ctx context.Context, userID uint, g Grant) error {
	s.applies++
	if s.applyErr != nil {
		return s.applyErr
	}
	s.last = g
	s.progress = Progress{
		Level:            g.Level,
		Exp:              g.Exp,
		TotalExp:         g.TotalExp,
		DailyRewardCount: g.DailyRewardCount,
		LastRewardDate:   g.RewardDate,
	}
	return nil
}

// fakeSurface closes the handle once the fake clock has advanced closeAfter
// past open time. blocked simulates a popup blocker.
type fakeSurface struct {
	clk        *fakeClock
	closeAfter time.Duration
	blocked    bool
	neverClose bool
	opens      int
}

type fakeHandle struct {
	surface *fakeSurface
	openAt  time.Time
}

func (s *fakeSurface) Open(url string) Handle {
	s.opens++
	if s.blocked {
		return nil
	}
	return &fakeHandle{surface: s, openAt: s.clk.Now()}
}

func (h *fakeHandle) IsClosed() bool {
	if h.surface.neverClose {
		return false
	}
	return h.surface.clk.Now().Sub(h.openAt) >= h.surface.closeAfter
}

func newTestEngine(store *fakeStore, surface *fakeSurface, clk *fakeClock) *Engine {
	e := NewEngine(DefaultConfig(), store, surface)
	e.now = clk.Now
	e.sleep = clk.Sleep
	return e
}

func TestCheckEligibility_DailyCapReached(t *testing.T) {
	clk := newFakeClock()
	e := newTestEngine(&fakeStore{}, &fakeSurface{clk: clk}, clk)

	p := Progress{Level: 2, DailyRewardCount: 5, LastRewardDate: DateOf(clk.Now())}
	el := e.CheckEligibility(1, p, clk.Now())

	assert.False(t, el.Eligible)
	assert.Equal(t, ReasonDailyLimit, el.Reason)
	assert.Equal(t, 5, el.DailyCount)
}

func TestCheckEligibility_DailyCapWinsOverCooldown(t *testing.T) {
	clk := newFakeClock()
	e := newTestEngine(&fakeStore{}, &fakeSurface{clk: clk}, clk)
	e.lastGrant[1] = clk.Now().Add(-5 * time.Second) // cooldown would also block

	p := Progress{Level: 1, DailyRewardCount: 5, LastRewardDate: DateOf(clk.Now())}
	el := e.CheckEligibility(1, p, clk.Now())

	assert.Equal(t, ReasonDailyLimit, el.Reason)
}

func TestCheckEligibility_StaleCounterTreatedAsZero(t *testing.T) {
	clk := newFakeClock()
	e := newTestEngine(&fakeStore{}, &fakeSurface{clk: clk}, clk)

	yesterday := DateOf(clk.Now().AddDate(0, 0, -1))
	el := e.CheckEligibility(1, Progress{Level: 1, DailyRewardCount: 5, LastRewardDate: yesterday}, clk.Now())

	assert.True(t, el.Eligible)
	assert.Equal(t, 0, el.DailyCount)
}

func TestCheckEligibility_CooldownArithmetic(t *testing.T) {
	clk := newFakeClock()
	e := newTestEngine(&fakeStore{}, &fakeSurface{clk: clk}, clk)

	for _, elapsed := range []int{1, 12, 25, 39} {
		e.lastGrant[1] = clk.Now().Add(-time.Duration(elapsed) * time.Second)

		el := e.CheckEligibility(1, Progress{Level: 1}, clk.Now())
		assert.False(t, el.Eligible)
		assert.Equal(t, ReasonCooldown, el.Reason)
		assert.Equal(t, 40-elapsed, el.SecondsRemaining)
	}
}

func TestCheckEligibility_CooldownExpired(t *testing.T) {
	clk := newFakeClock()
	e := newTestEngine(&fakeStore{}, &fakeSurface{clk: clk}, clk)
	e.lastGrant[1] = clk.Now().Add(-40 * time.Second)

	el := e.CheckEligibility(1, Progress{Level: 1}, clk.Now())
	assert.True(t, el.Eligible)
}

func TestCheckEligibility_NoPriorGrantThisProcess(t *testing.T) {
	clk := newFakeClock()
	e := newTestEngine(&fakeStore{}, &fakeSurface{clk: clk}, clk)

	el := e.CheckEligibility(1, Progress{Level: 1}, clk.Now())
	assert.True(t, el.Eligible)
}

func TestCheckEligibility_GateIsPerUser(t *testing.T) {
	clk := newFakeClock()
	e := newTestEngine(&fakeStore{}, &fakeSurface{clk: clk}, clk)
	e.lastGrant[1] = clk.Now()

	assert.False(t, e.CheckEligibility(1, Progress{Level: 1}, clk.Now()).Eligible)
	assert.True(t, e.CheckEligibility(2, Progress{Level: 1}, clk.Now()).Eligible)
}

func TestRun_GrantWithoutLevelUp(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1, Exp: 90, TotalExp: 1000}}
	surface := &fakeSurface{clk: clk, closeAfter: 30 * time.Second}
	e := newTestEngine(store, surface, clk)

	out := e.RunRewardedAction(context.Background(), 1, store.progress)

	require.True(t, out.Success)
	assert.False(t, out.LeveledUp)
	assert.Equal(t, 1, out.NewLevel)
	assert.Equal(t, 5, out.ExpAwarded)
	assert.Equal(t, Progress{Level: 1, Exp: 95, TotalExp: 1005, DailyRewardCount: 1, LastRewardDate: DateOf(clk.Now())}, store.progress)
	assert.Equal(t, 30*time.Second, store.last.Watched)

	// a successful grant arms the cooldown
	el := e.CheckEligibility(1, store.progress, clk.Now())
	assert.Equal(t, ReasonCooldown, el.Reason)
}

func TestRun_GrantWithLevelUp(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1, Exp: 98, TotalExp: 1000}}
	surface := &fakeSurface{clk: clk, closeAfter: 25 * time.Second}
	e := newTestEngine(store, surface, clk)

	out := e.RunRewardedAction(context.Background(), 1, store.progress)

	require.True(t, out.Success)
	assert.True(t, out.LeveledUp)
	assert.Equal(t, 2, out.NewLevel)
	assert.Equal(t, 0, store.progress.Exp)
	assert.Equal(t, 2, store.progress.Level)
	assert.Equal(t, 1005, store.progress.TotalExp)
}

func TestRun_WatchedTooShort(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1, Exp: 10}}
	surface := &fakeSurface{clk: clk, closeAfter: 10 * time.Second}
	e := newTestEngine(store, surface, clk)

	out := e.RunRewardedAction(context.Background(), 1, store.progress)

	assert.False(t, out.Success)
	assert.Equal(t, ReasonWatchedTooShort, out.Reason)
	assert.Equal(t, 15, out.SecondsRemaining)
	assert.Equal(t, 0, store.applies)
	// no cooldown penalty either: an immediate retry is allowed
	assert.True(t, e.CheckEligibility(1, store.progress, clk.Now()).Eligible)
}

func TestRun_PopupBlocked(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{}
	surface := &fakeSurface{clk: clk, blocked: true}
	e := newTestEngine(store, surface, clk)

	out := e.RunRewardedAction(context.Background(), 1, Progress{Level: 1})

	assert.Equal(t, ReasonPopupBlocked, out.Reason)
	assert.Equal(t, 0, store.gets)
	assert.Equal(t, 0, store.applies)
}

func TestRun_IneligibleFailsFastWithoutOpening(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{}
	surface := &fakeSurface{clk: clk}
	e := newTestEngine(store, surface, clk)

	p := Progress{Level: 1, DailyRewardCount: 5, LastRewardDate: DateOf(clk.Now())}
	out := e.RunRewardedAction(context.Background(), 1, p)

	assert.Equal(t, ReasonDailyLimit, out.Reason)
	assert.Equal(t, 0, surface.opens)
}

func TestRun_SyncFailedLeavesGateUntouched(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1, Exp: 10}, applyErr: errors.New("write timeout")}
	surface := &fakeSurface{clk: clk, closeAfter: 30 * time.Second}
	e := newTestEngine(store, surface, clk)

	out := e.RunRewardedAction(context.Background(), 1, store.progress)

	assert.Equal(t, ReasonSyncFailed, out.Reason)
	assert.Equal(t, 1, store.applies)
	// retry is possible immediately: no phantom cooldown
	assert.True(t, e.CheckEligibility(1, store.progress, clk.Now()).Eligible)
}

func TestRun_GrantTimeReadFailure(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1}, getErr: errors.New("connection reset")}
	surface := &fakeSurface{clk: clk, closeAfter: 25 * time.Second}
	e := newTestEngine(store, surface, clk)

	out := e.RunRewardedAction(context.Background(), 1, Progress{Level: 1})

	assert.Equal(t, ReasonSyncFailed, out.Reason)
	assert.Equal(t, 0, store.applies)
}

func TestRun_AbandonedAfterMaxWait(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1}}
	surface := &fakeSurface{clk: clk, neverClose: true}
	e := newTestEngine(store, surface, clk)

	out := e.RunRewardedAction(context.Background(), 1, store.progress)

	assert.Equal(t, ReasonAbandoned, out.Reason)
	assert.Equal(t, 0, store.applies)
}

func TestRun_AbandonedOnContextCancel(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1}}
	surface := &fakeSurface{clk: clk, neverClose: true}
	e := newTestEngine(store, surface, clk)
	e.cfg.MaxWatchWait = 0 // only the context can stop the loop

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := e.RunRewardedAction(ctx, 1, store.progress)

	assert.Equal(t, ReasonAbandoned, out.Reason)
}

func TestRun_SecondConcurrentCallIsBusy(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 1}}
	surface := &fakeSurface{clk: clk, closeAfter: 30 * time.Second}
	e := newTestEngine(store, surface, clk)

	require.True(t, e.acquire(1))
	out := e.RunRewardedAction(context.Background(), 1, store.progress)
	e.release(1)

	assert.Equal(t, ReasonBusy, out.Reason)
	// other users are unaffected
	assert.True(t, e.RunRewardedAction(context.Background(), 2, store.progress).Success)
}

func TestRun_DailyCapAfterFiveGrants(t *testing.T) {
	clk := newFakeClock()
	store := &fakeStore{progress: Progress{Level: 5}}
	surface := &fakeSurface{clk: clk, closeAfter: 30 * time.Second}
	e := newTestEngine(store, surface, clk)

	for i := 0; i < 5; i++ {
		clk.Sleep(41 * time.Second) // wait out the cooldown between grants
		out := e.RunRewardedAction(context.Background(), 1, store.progress)
		require.True(t, out.Success, "grant %d", i+1)
	}
	assert.Equal(t, 5, store.progress.DailyRewardCount)

	clk.Sleep(41 * time.Second)
	out := e.RunRewardedAction(context.Background(), 1, store.progress)
	assert.Equal(t, ReasonDailyLimit, out.Reason)
}
