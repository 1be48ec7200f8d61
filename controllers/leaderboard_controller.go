package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arkapradana/arenahub/leaderboard"
	"github.com/arkapradana/arenahub/models"
	"github.com/arkapradana/arenahub/utils"
)

// LeaderboardController serves the ranked point table per room and the admin
// edit surface behind it.
type LeaderboardController struct {
	db *gorm.DB
}

// NewLeaderboardController creates a new LeaderboardController instance.
func NewLeaderboardController(db *gorm.DB) *LeaderboardController {
	return &LeaderboardController{db: db}
}

// Table returns a room's ranked point table. Insertion order of the stored
// entries decides ties, so the ranking is stable across edits elsewhere in
// the table.
func (l *LeaderboardController) Table(ctx *gin.Context) {
	roomID := strings.TrimSpace(ctx.Param("id"))

	cacheKey := "cache:leaderboard:room:" + roomID
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var room models.Room
	if err := l.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "room not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load room")
		return
	}

	var entries []models.PointEntry
	if err := l.db.Where("room_id = ?", room.ID).Order("id ASC").Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load point table")
		return
	}

	payload := gin.H{
		"room_id": room.ID,
		"title":   room.Title,
		"table":   leaderboard.Rank(entries),
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Message: "success", Data: payload}, 5*time.Minute)
	utils.Success(ctx, payload)
}

// ListEntries returns a room's raw point entries, including those hidden
// from the public table (admin only).
func (l *LeaderboardController) ListEntries(ctx *gin.Context) {
	var entries []models.PointEntry
	if err := l.db.Where("room_id = ?", ctx.Param("id")).Order("id ASC").Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load point table")
		return
	}
	utils.Success(ctx, gin.H{"items": entries})
}

// CreateEntry adds a team's row to a room's point table (admin only).
// The total is derived on save; a client-sent total is ignored.
func (l *LeaderboardController) CreateEntry(ctx *gin.Context) {
	var req pointEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid request payload")
		return
	}

	var room models.Room
	if err := l.db.First(&room, req.RoomID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "room not found")
		return
	}

	teamName := utils.SanitizeText(strings.TrimSpace(req.TeamName))
	if teamName == "" {
		utils.Error(ctx, http.StatusBadRequest, 40046, "team name cannot be empty")
		return
	}

	entry := models.PointEntry{
		RoomID:        room.ID,
		TeamName:      teamName,
		MatchesPlayed: req.MatchesPlayed,
		RankPoints:    req.RankPoints,
		KillPoints:    req.KillPoints,
	}
	if err := l.db.Create(&entry).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create entry")
		return
	}

	utils.InvalidateByPrefix("cache:leaderboard:room:" + strconv.Itoa(int(room.ID)))
	utils.Success(ctx, gin.H{"entry": entry})
}

// UpdateEntry edits a row's points; the total recomputes on save (admin only).
func (l *LeaderboardController) UpdateEntry(ctx *gin.Context) {
	var entry models.PointEntry
	if err := l.db.First(&entry, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40422, "entry not found")
		return
	}

	var req pointEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid request payload")
		return
	}

	if name := utils.SanitizeText(strings.TrimSpace(req.TeamName)); name != "" {
		entry.TeamName = name
	}
	entry.MatchesPlayed = req.MatchesPlayed
	entry.RankPoints = req.RankPoints
	entry.KillPoints = req.KillPoints

	if err := l.db.Save(&entry).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to update entry")
		return
	}

	utils.InvalidateByPrefix("cache:leaderboard:room:" + strconv.Itoa(int(entry.RoomID)))
	utils.Success(ctx, gin.H{"entry": entry})
}

// DeleteEntry removes a row from the table (admin only).
func (l *LeaderboardController) DeleteEntry(ctx *gin.Context) {
	var entry models.PointEntry
	if err := l.db.First(&entry, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40422, "entry not found")
		return
	}

	if err := l.db.Delete(&entry).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to delete entry")
		return
	}

	utils.InvalidateByPrefix("cache:leaderboard:room:" + strconv.Itoa(int(entry.RoomID)))
	utils.Success(ctx, gin.H{"message": "entry deleted"})
}

type pointEntryRequest struct {
	RoomID        uint   `json:"room_id"`
	TeamName      string `json:"team_name"`
	MatchesPlayed int    `json:"matches_played"`
	RankPoints    int    `json:"rank_points"`
	KillPoints    int    `json:"kill_points"`
}
