package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arkapradana/arenahub/config"
	"github.com/arkapradana/arenahub/models"
	"github.com/arkapradana/arenahub/reward"
	"github.com/arkapradana/arenahub/utils"
)

// gormProgressStore persists reward progress on the users table. A grant is
// written atomically with its audit row: the user row is locked, updated, and
// the reward log inserted inside one transaction.
type gormProgressStore struct {
	db *gorm.DB
}

func (s *gormProgressStore) GetProgress(ctx context.Context, userID uint) (reward.Progress, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return reward.Progress{}, err
	}
	return user.Progress(), nil
}

func (s *gormProgressStore) ApplyGrant(ctx context.Context, userID uint, g reward.Grant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"level":              g.Level,
			"exp":                g.Exp,
			"total_exp":          g.TotalExp,
			"daily_reward_count": g.DailyRewardCount,
			"last_reward_date":   g.RewardDate,
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		log := models.RewardLog{
			UserID:     userID,
			ExpAwarded: g.ExpAwarded,
			LeveledUp:  g.LeveledUp,
			LevelAfter: g.Level,
			WatchedMS:  g.Watched.Milliseconds(),
			RewardDate: g.RewardDate,
		}
		return tx.Create(&log).Error
	})
}

// noSurface is the engine's default surface; every request binds its own
// session surface, so the default never opens anything.
type noSurface struct{}

func (noSurface) Open(url string) reward.Handle { return nil }

// RewardController exposes the ad-watch reward loop over HTTP. The browser
// opens the ad window itself; the server runs the engine against a session
// whose closed/blocked flags mirror what the client reports.
type RewardController struct {
	db       *gorm.DB
	engine   *reward.Engine
	registry *sessionRegistry
}

// NewRewardController wires the engine to the database-backed store.
func NewRewardController(db *gorm.DB) *RewardController {
	cfg := config.Get().RewardConfig()
	return &RewardController{
		db:       db,
		engine:   reward.NewEngine(cfg, &gormProgressStore{db: db}, noSurface{}),
		registry: newSessionRegistry(5 * time.Minute),
	}
}

// StartJanitor launches the background sweep of finished watch sessions.
func (r *RewardController) StartJanitor(ctx context.Context) {
	r.registry.StartJanitor(ctx, time.Minute)
}

// Status returns the caller's level progress and whether a rewarded watch
// can start right now.
func (r *RewardController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "authentication required")
		return
	}

	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40400, "user not found")
		return
	}

	cfg := r.engine.Config()
	el := r.engine.CheckEligibility(userID, user.Progress(), time.Now())
	utils.Success(ctx, gin.H{
		"level":        user.Level,
		"exp":          user.Exp,
		"required_exp": reward.RequiredExp(user.Level),
		"total_exp":    user.TotalExp,
		"daily_count":  el.DailyCount,
		"daily_limit":  cfg.DailyLimit,
		"reward_exp":   cfg.RewardExp,
		"cooldown_s":   int(cfg.Cooldown / time.Second),
		"min_watch_s":  int(cfg.MinWatchTime / time.Second),
		"eligibility":  el,
	})
}

// StartWatch begins a rewarded ad watch. The client reports whether it
// managed to open the ad window; a blocked window fails immediately without
// creating a session.
func (r *RewardController) StartWatch(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "authentication required")
		return
	}

	var req struct {
		Opened *bool `json:"opened"`
	}
	_ = ctx.ShouldBindJSON(&req) // empty body means the window opened
	opened := req.Opened == nil || *req.Opened

	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40400, "user not found")
		return
	}
	snapshot := user.Progress()

	if !opened {
		outcome := r.engine.RunRewardedActionOn(ctx.Request.Context(), userID, snapshot, &sessionSurface{opened: false})
		r.respondOutcome(ctx, outcome)
		return
	}

	if el := r.engine.CheckEligibility(userID, snapshot, time.Now()); !el.Eligible {
		r.respondOutcome(ctx, reward.Outcome{Reason: el.Reason, SecondsRemaining: el.SecondsRemaining})
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sess, created := r.registry.create(userID, cancel)
	if !created {
		cancel()
		utils.Error(ctx, http.StatusConflict, 40935, "a rewarded watch is already in progress")
		return
	}

	go func() {
		defer cancel()
		outcome := r.engine.RunRewardedActionOn(runCtx, userID, snapshot, &sessionSurface{session: sess, opened: true})
		// A late popup-block report cancels the run; surface the real reason.
		if sess.blocked.Load() && outcome.Reason == reward.ReasonAbandoned {
			outcome = reward.Outcome{Reason: reward.ReasonPopupBlocked}
		}
		sess.finish(outcome)
	}()

	cfg := r.engine.Config()
	utils.Success(ctx, gin.H{
		"session_id":       sess.ID,
		"ad_url":           cfg.AdURL,
		"min_watch_s":      int(cfg.MinWatchTime / time.Second),
		"poll_interval_ms": cfg.PollInterval.Milliseconds(),
	})
}

// CloseWatch reports that the client closed the ad window and waits for the
// engine's verdict.
func (r *RewardController) CloseWatch(ctx *gin.Context) {
	sess, ok := r.sessionFromRequest(ctx)
	if !ok {
		return
	}
	sess.closed.Store(true)
	r.awaitOutcome(ctx, sess)
}

// ReportBlocked reports that the ad window failed to open after the session
// started (late popup blocking).
func (r *RewardController) ReportBlocked(ctx *gin.Context) {
	sess, ok := r.sessionFromRequest(ctx)
	if !ok {
		return
	}
	sess.blocked.Store(true)
	sess.cancel()
	r.awaitOutcome(ctx, sess)
}

// CancelWatch abandons an in-flight session, e.g. when the user navigates
// away mid-watch.
func (r *RewardController) CancelWatch(ctx *gin.Context) {
	sess, ok := r.sessionFromRequest(ctx)
	if !ok {
		return
	}
	sess.cancel()
	r.awaitOutcome(ctx, sess)
}

// WatchResult returns the session's outcome, or a pending marker while the
// watch is still running. Lets a reconnecting client recover its verdict.
func (r *RewardController) WatchResult(ctx *gin.Context) {
	sess, ok := r.sessionFromRequest(ctx)
	if !ok {
		return
	}
	if outcome, final := sess.result(); final {
		r.respondOutcome(ctx, outcome)
		return
	}
	utils.Success(ctx, gin.H{"pending": true})
}

// History lists the caller's recent reward grants.
func (r *RewardController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "authentication required")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	r.db.Model(&models.RewardLog{}).Where("user_id = ?", userID).Count(&total)

	var logs []models.RewardLog
	if err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to load reward history")
		return
	}

	utils.Success(ctx, gin.H{
		"items":     logs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (r *RewardController) sessionFromRequest(ctx *gin.Context) (*watchSession, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "authentication required")
		return nil, false
	}
	sess, found := r.registry.get(ctx.Param("id"), userID)
	if !found {
		utils.Error(ctx, http.StatusNotFound, 40430, "watch session not found")
		return nil, false
	}
	return sess, true
}

// awaitOutcome blocks briefly for the engine to settle; the poll loop needs
// up to one interval to notice the flag flip.
func (r *RewardController) awaitOutcome(ctx *gin.Context, sess *watchSession) {
	wait := 3*r.engine.Config().PollInterval + 2*time.Second
	select {
	case <-sess.done:
		outcome, _ := sess.result()
		r.respondOutcome(ctx, outcome)
	case <-time.After(wait):
		utils.Respond(ctx, http.StatusAccepted, 0, "still processing", gin.H{"pending": true})
	case <-ctx.Request.Context().Done():
	}
}

func (r *RewardController) respondOutcome(ctx *gin.Context, o reward.Outcome) {
	cfg := r.engine.Config()

	if o.Success {
		msg := fmt.Sprintf("you earned %d EXP", o.ExpAwarded)
		if o.LeveledUp {
			msg = fmt.Sprintf("level up! you reached level %d", o.NewLevel)
		}
		utils.Respond(ctx, http.StatusOK, 0, msg, o)
		return
	}

	switch o.Reason {
	case reward.ReasonDailyLimit:
		utils.Respond(ctx, http.StatusBadRequest, 40030,
			fmt.Sprintf("daily reward limit reached (%d/%d), come back tomorrow", cfg.DailyLimit, cfg.DailyLimit), o)
	case reward.ReasonCooldown:
		utils.Respond(ctx, http.StatusTooManyRequests, 40031,
			fmt.Sprintf("please wait %d more seconds before the next reward", o.SecondsRemaining), o)
	case reward.ReasonPopupBlocked:
		utils.Respond(ctx, http.StatusBadRequest, 40032,
			"the ad window was blocked; allow popups for this site and try again", o)
	case reward.ReasonWatchedTooShort:
		utils.Respond(ctx, http.StatusBadRequest, 40033,
			fmt.Sprintf("ad closed too early; keep it open %d more seconds to earn the reward", o.SecondsRemaining), o)
	case reward.ReasonAbandoned:
		utils.Respond(ctx, http.StatusBadRequest, 40034, "ad watch abandoned", o)
	case reward.ReasonBusy:
		utils.Respond(ctx, http.StatusConflict, 40935, "a rewarded watch is already in progress", o)
	case reward.ReasonSyncFailed:
		utils.Respond(ctx, http.StatusInternalServerError, 50030,
			"failed to save your reward; check your connection and try again", o)
	default:
		utils.Respond(ctx, http.StatusInternalServerError, 50031, "unexpected reward outcome", o)
	}
}
