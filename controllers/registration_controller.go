package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arkapradana/arenahub/models"
	"github.com/arkapradana/arenahub/utils"
)

// RegistrationController handles team entries into tournament rooms and the
// admin review queue. Payment is checked out of band; an admin flips the
// status once the transfer is confirmed.
type RegistrationController struct {
	db *gorm.DB
}

// NewRegistrationController creates a new RegistrationController instance.
func NewRegistrationController(db *gorm.DB) *RegistrationController {
	return &RegistrationController{db: db}
}

// Create registers a team for a room. One entry per user per room.
func (rc *RegistrationController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req struct {
		RoomID      uint     `json:"room_id" binding:"required"`
		TeamName    string   `json:"team_name" binding:"required,min=1"`
		CaptainName string   `json:"captain_name"`
		WhatsApp    string   `json:"whatsapp"`
		Players     []string `json:"players"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	teamName := utils.SanitizeText(strings.TrimSpace(req.TeamName))
	if teamName == "" {
		utils.Error(ctx, http.StatusBadRequest, 40026, "team name cannot be empty")
		return
	}

	var room models.Room
	if err := rc.db.First(&room, req.RoomID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "room not found")
		return
	}
	if room.Status != "open" {
		utils.Error(ctx, http.StatusBadRequest, 40027, "registration for this room is closed")
		return
	}

	var existing int64
	rc.db.Model(&models.Registration{}).
		Where("room_id = ? AND user_id = ?", room.ID, userID).
		Count(&existing)
	if existing > 0 {
		utils.Error(ctx, http.StatusConflict, 40920, "you already registered a team for this room")
		return
	}

	if room.Slots > 0 {
		var taken int64
		rc.db.Model(&models.Registration{}).
			Where("room_id = ? AND status <> ?", room.ID, models.RegistrationRejected).
			Count(&taken)
		if int(taken) >= room.Slots {
			utils.Error(ctx, http.StatusConflict, 40921, "this room is full")
			return
		}
	}

	players := make([]string, 0, len(req.Players))
	for _, p := range req.Players {
		if p = utils.SanitizeText(strings.TrimSpace(p)); p != "" {
			players = append(players, p)
		}
	}
	playersJSON, err := json.Marshal(players)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to encode roster")
		return
	}

	reg := models.Registration{
		RoomID:      room.ID,
		UserID:      userID,
		TeamName:    teamName,
		CaptainName: utils.SanitizeText(strings.TrimSpace(req.CaptainName)),
		WhatsApp:    strings.TrimSpace(req.WhatsApp),
		Players:     string(playersJSON),
		Status:      models.RegistrationPending,
	}
	if err := rc.db.Create(&reg).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to register team")
		return
	}

	utils.InvalidateByPrefix("cache:rooms:detail:")
	utils.Success(ctx, gin.H{"registration": reg})
}

// ListMine returns the caller's registrations with their rooms.
func (rc *RegistrationController) ListMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var regs []models.Registration
	if err := rc.db.Preload("Room").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&regs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to list registrations")
		return
	}

	utils.Success(ctx, gin.H{"items": regs})
}

// List returns paginated registrations for review, optionally filtered by
// room and status (admin only).
func (rc *RegistrationController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	status := strings.TrimSpace(ctx.Query("status"))
	roomID := strings.TrimSpace(ctx.Query("room_id"))

	query := rc.db.Model(&models.Registration{}).Preload("User").Preload("Room")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if roomID != "" {
		query = query.Where("room_id = ?", roomID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to count registrations")
		return
	}

	var regs []models.Registration
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&regs).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to list registrations")
		return
	}

	utils.Success(ctx, gin.H{
		"items": regs,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// Review approves or rejects a registration (admin only).
func (rc *RegistrationController) Review(ctx *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40028, "invalid request payload")
		return
	}
	if req.Status != models.RegistrationApproved && req.Status != models.RegistrationRejected {
		utils.Error(ctx, http.StatusBadRequest, 40029, "status must be approved or rejected")
		return
	}

	var reg models.Registration
	if err := rc.db.First(&reg, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40421, "registration not found")
		return
	}

	reg.Status = req.Status
	reg.ReviewNote = utils.SanitizeText(strings.TrimSpace(req.Note))
	if err := rc.db.Save(&reg).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to update registration")
		return
	}

	utils.InvalidateByPrefix("cache:rooms:detail:")
	utils.Success(ctx, gin.H{"registration": reg})
}
