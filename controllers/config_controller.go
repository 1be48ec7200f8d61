package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arkapradana/arenahub/config"
	"github.com/arkapradana/arenahub/utils"
)

// ConfigController serves dynamic, environment-driven UI configuration.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetNotice returns the announcement banner content.
func (c *ConfigController) GetNotice(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"title": cfg.NoticeTitle,
		"html":  cfg.NoticeHTML,
	})
}

// GetCommunity returns the community contact links shown in the footer.
func (c *ConfigController) GetCommunity(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"whatsapp_url":  cfg.CommunityWhatsAppURL,
		"instagram_url": cfg.CommunityInstagramURL,
		"youtube_url":   cfg.CommunityYouTubeURL,
		"support_email": cfg.SupportEmail,
	})
}

// GetRewardConfig exposes the reward constants the client UI renders:
// the ad URL, limits and timings.
func (c *ConfigController) GetRewardConfig(ctx *gin.Context) {
	rc := config.Get().RewardConfig()
	utils.Success(ctx, gin.H{
		"ad_url":           rc.AdURL,
		"daily_limit":      rc.DailyLimit,
		"cooldown_s":       int(rc.Cooldown / time.Second),
		"min_watch_s":      int(rc.MinWatchTime / time.Second),
		"poll_interval_ms": rc.PollInterval.Milliseconds(),
		"reward_exp":       rc.RewardExp,
	})
}
