// Package reward implements the ad-watch reward loop: eligibility gating
// (daily cap + cooldown), the watch lifecycle against an opaque ad surface,
// and the EXP/leveling update persisted through a pluggable store.
package reward

import (
	"context"
	"sync"
	"time"
)

// Config holds the tunable constants of the reward loop.
type Config struct {
	DailyLimit   int           // successful grants allowed per calendar day
	Cooldown     time.Duration // minimum interval between two successful grants
	MinWatchTime time.Duration // minimum time the ad surface must stay open
	PollInterval time.Duration // how often the surface is polled for closure
	RewardExp    int           // EXP awarded per grant
	MaxWatchWait time.Duration // abandon the watch after this long; 0 disables
	AdURL        string        // external URL opened on the ad surface
}

// DefaultConfig returns the production constants.
func DefaultConfig() Config {
	return Config{
		DailyLimit:   5,
		Cooldown:     40 * time.Second,
		MinWatchTime: 25 * time.Second,
		PollInterval: time.Second,
		RewardExp:    5,
		MaxWatchWait: 10 * time.Minute,
	}
}

// Progress is the reward-relevant subset of a user record.
type Progress struct {
	Level            int
	Exp              int
	TotalExp         int
	DailyRewardCount int
	LastRewardDate   string // "2006-01-02", local time; counter is meaningful only for today
}

// Grant is the full field set written by one successful reward.
type Grant struct {
	Level            int
	Exp              int
	TotalExp         int
	DailyRewardCount int
	RewardDate       string
	ExpAwarded       int
	LeveledUp        bool
	Watched          time.Duration
}

// Store is the persistence contract the engine depends on. ApplyGrant must
// atomically write the user's new progress (and any audit record) or fail
// as a whole.
type Store interface {
	GetProgress(ctx context.Context, userID uint) (Progress, error)
	ApplyGrant(ctx context.Context, userID uint, g Grant) error
}

// Handle is an opened ad surface. The engine can only observe closure.
type Handle interface {
	IsClosed() bool
}

// Surface opens the external ad experience. A nil Handle means the surface
// could not be opened (e.g. the browser blocked the popup).
type Surface interface {
	Open(url string) Handle
}

// Reason classifies non-success outcomes. They are reported values, never
// errors thrown past the engine boundary.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonDailyLimit      Reason = "daily_limit_reached"
	ReasonCooldown        Reason = "cooldown"
	ReasonPopupBlocked    Reason = "popup_blocked"
	ReasonWatchedTooShort Reason = "watched_too_short"
	ReasonSyncFailed      Reason = "sync_failed"
	ReasonAbandoned       Reason = "abandoned"
	ReasonBusy            Reason = "busy"
)

// Eligibility is the result of a pre-flight check.
type Eligibility struct {
	Eligible         bool   `json:"eligible"`
	Reason           Reason `json:"reason,omitempty"`
	SecondsRemaining int    `json:"seconds_remaining,omitempty"`
	DailyCount       int    `json:"daily_count"`
}

// Outcome is the terminal result of one rewarded action.
type Outcome struct {
	Success          bool   `json:"success"`
	Reason           Reason `json:"reason,omitempty"`
	LeveledUp        bool   `json:"leveled_up"`
	NewLevel         int    `json:"new_level,omitempty"`
	ExpAwarded       int    `json:"exp_awarded,omitempty"`
	SecondsRemaining int    `json:"seconds_remaining,omitempty"`
}

// Engine gates and executes rewarded actions. The cooldown gate is kept
// in-process and keyed per user; it does not survive a restart, while the
// daily counter lives in the store and does. That asymmetry is inherited
// behavior and is preserved on purpose.
type Engine struct {
	cfg     Config
	store   Store
	surface Surface

	now   func() time.Time
	sleep func(time.Duration)

	mu        sync.Mutex
	lastGrant map[uint]time.Time
	running   map[uint]bool
}

// NewEngine creates an engine with real clock and sleep.
func NewEngine(cfg Config, store Store, surface Surface) *Engine {
	return &Engine{
		cfg:       cfg,
		store:     store,
		surface:   surface,
		now:       time.Now,
		sleep:     time.Sleep,
		lastGrant: map[uint]time.Time{},
		running:   map[uint]bool{},
	}
}

// Config returns the engine's constants.
func (e *Engine) Config() Config {
	return e.cfg
}

// CheckEligibility reports whether the user may start a rewarded action at
// `now`, given a fresh progress snapshot. The daily counter is reset lazily:
// a stored count from a previous date is treated as 0. No side effects.
func (e *Engine) CheckEligibility(userID uint, p Progress, now time.Time) Eligibility {
	count := p.DailyRewardCount
	if p.LastRewardDate != DateOf(now) {
		count = 0
	}

	if count >= e.cfg.DailyLimit {
		return Eligibility{Reason: ReasonDailyLimit, DailyCount: count}
	}

	e.mu.Lock()
	last, granted := e.lastGrant[userID]
	e.mu.Unlock()

	if granted {
		if elapsed := now.Sub(last); elapsed < e.cfg.Cooldown {
			return Eligibility{
				Reason:           ReasonCooldown,
				SecondsRemaining: ceilSeconds(e.cfg.Cooldown - elapsed),
				DailyCount:       count,
			}
		}
	}

	return Eligibility{Eligible: true, DailyCount: count}
}

// RunRewardedAction executes the full watch-and-grant flow for one user and
// blocks until it reaches a terminal outcome. The caller supplies its current
// progress snapshot; the store is only consulted at grant time. Invocations
// are serialized per user in-process; a second concurrent call fails fast as
// Busy. Failure branches leave both the stored record and the cooldown gate
// untouched, so the user can retry without waiting out a phantom cooldown.
func (e *Engine) RunRewardedAction(ctx context.Context, userID uint, snapshot Progress) Outcome {
	return e.RunRewardedActionOn(ctx, userID, snapshot, e.surface)
}

// RunRewardedActionOn is RunRewardedAction with a caller-supplied surface,
// for callers that bind a fresh surface to each invocation.
func (e *Engine) RunRewardedActionOn(ctx context.Context, userID uint, snapshot Progress, surface Surface) Outcome {
	if !e.acquire(userID) {
		return Outcome{Reason: ReasonBusy}
	}
	defer e.release(userID)

	if el := e.CheckEligibility(userID, snapshot, e.now()); !el.Eligible {
		return Outcome{Reason: el.Reason, SecondsRemaining: el.SecondsRemaining}
	}

	handle := surface.Open(e.cfg.AdURL)
	if handle == nil {
		return Outcome{Reason: ReasonPopupBlocked}
	}

	start := e.now()
	for !handle.IsClosed() {
		if e.cfg.MaxWatchWait > 0 && e.now().Sub(start) >= e.cfg.MaxWatchWait {
			return Outcome{Reason: ReasonAbandoned}
		}
		select {
		case <-ctx.Done():
			return Outcome{Reason: ReasonAbandoned}
		default:
		}
		e.sleep(e.cfg.PollInterval)
	}

	elapsed := e.now().Sub(start)
	if elapsed < e.cfg.MinWatchTime {
		return Outcome{
			Reason:           ReasonWatchedTooShort,
			SecondsRemaining: ceilSeconds(e.cfg.MinWatchTime - elapsed),
		}
	}

	// Re-read the authoritative record at grant time rather than trusting
	// the pre-watch snapshot.
	latest, err := e.store.GetProgress(ctx, userID)
	if err != nil {
		return Outcome{Reason: ReasonSyncFailed}
	}

	grant := computeGrant(latest, e.cfg.RewardExp, e.now())
	grant.Watched = elapsed
	if err := e.store.ApplyGrant(ctx, userID, grant); err != nil {
		return Outcome{Reason: ReasonSyncFailed}
	}

	e.mu.Lock()
	e.lastGrant[userID] = e.now()
	e.mu.Unlock()

	return Outcome{
		Success:    true,
		LeveledUp:  grant.LeveledUp,
		NewLevel:   grant.Level,
		ExpAwarded: grant.ExpAwarded,
	}
}

func (e *Engine) acquire(userID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[userID] {
		return false
	}
	e.running[userID] = true
	return true
}

func (e *Engine) release(userID uint) {
	e.mu.Lock()
	delete(e.running, userID)
	e.mu.Unlock()
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
