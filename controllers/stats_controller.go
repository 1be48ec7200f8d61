package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arkapradana/arenahub/models"
	"github.com/arkapradana/arenahub/reward"
	"github.com/arkapradana/arenahub/utils"
)

// StatsController provides aggregate community statistics.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns headline counters for the landing page.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var roomCount int64
	var teamCount int64
	var dailyActive int64
	var grantsToday int64

	// Fall back to 0 per counter instead of failing the whole endpoint.
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := s.db.Model(&models.Room{}).Count(&roomCount).Error; err != nil {
		roomCount = 0
	}
	if err := s.db.Model(&models.Registration{}).
		Where("status = ?", models.RegistrationApproved).
		Count(&teamCount).Error; err != nil {
		teamCount = 0
	}

	// Daily active (PV-based): sum of today's page views across all paths.
	// String date equality avoids timezone/type mismatches with DATE columns.
	today := reward.DateOf(time.Now())
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyActive).Error; err != nil {
		dailyActive = 0
	}

	if err := s.db.Model(&models.RewardLog{}).
		Where("reward_date = ?", today).
		Count(&grantsToday).Error; err != nil {
		grantsToday = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":         userCount,
		"room_count":         roomCount,
		"team_count":         teamCount,
		"daily_active_count": dailyActive,
		"rewards_today":      grantsToday,
	})
}

// GetRoomStats returns PV and registration counts for one room.
func (s *StatsController) GetRoomStats(ctx *gin.Context) {
	id := ctx.Param("id")

	var pv int64
	paths := []string{"/api/v1/rooms/" + id, "/rooms/" + id}
	if err := s.db.Model(&models.PageView{}).
		Where("path IN ?", paths).
		Select("COALESCE(SUM(count),0)").
		Scan(&pv).Error; err != nil {
		pv = 0
	}

	var pending int64
	var approved int64
	s.db.Model(&models.Registration{}).
		Where("room_id = ? AND status = ?", id, models.RegistrationPending).
		Count(&pending)
	s.db.Model(&models.Registration{}).
		Where("room_id = ? AND status = ?", id, models.RegistrationApproved).
		Count(&approved)

	utils.Success(ctx, gin.H{
		"pv":       pv,
		"pending":  pending,
		"approved": approved,
	})
}
