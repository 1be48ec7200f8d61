package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arkapradana/arenahub/middleware"
	"github.com/arkapradana/arenahub/models"
	"github.com/arkapradana/arenahub/utils"
)

// RoomController manages tournament rooms: public browsing plus the admin
// back office. Room credentials (code and server id) are never part of the
// public payload; approved registrants fetch them through a dedicated
// endpoint.
type RoomController struct {
	db *gorm.DB
}

// NewRoomController creates a new RoomController instance.
func NewRoomController(db *gorm.DB) *RoomController {
	return &RoomController{db: db}
}

// ListRooms returns paginated rooms, optionally filtered by game and status.
func (r *RoomController) ListRooms(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	game := strings.TrimSpace(ctx.Query("game"))
	status := strings.TrimSpace(ctx.Query("status"))

	cacheKey := fmt.Sprintf("cache:rooms:list:game=%s:status=%s:page=%d:size=%d", game, status, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var rooms []models.Room
	var total int64

	query := r.db.Model(&models.Room{}).Order("start_at DESC")
	if game != "" {
		query = query.Where("game = ?", game)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count rooms")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&rooms).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list rooms")
		return
	}

	payload := gin.H{
		"items": rooms,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Message: "success", Data: payload}, 5*time.Minute)
	utils.Success(ctx, payload)
}

// GetRoom returns a single room with its registration count.
func (r *RoomController) GetRoom(ctx *gin.Context) {
	roomID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:rooms:detail:" + roomID); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var room models.Room
	if err := r.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "room not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load room")
		return
	}

	var registered int64
	r.db.Model(&models.Registration{}).
		Where("room_id = ? AND status <> ?", room.ID, models.RegistrationRejected).
		Count(&registered)

	payload := gin.H{
		"room":       room,
		"registered": registered,
		"slots_left": max(room.Slots-int(registered), 0),
	}
	utils.CacheSetJSON("cache:rooms:detail:"+roomID, utils.JSONResponse{Message: "success", Data: payload}, 5*time.Minute)
	utils.Success(ctx, payload)
}

// GetRoomCredentials reveals the room code and server id, but only to an
// approved registrant of the room (or an admin).
func (r *RoomController) GetRoomCredentials(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var room models.Room
	if err := r.db.First(&room, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "room not found")
		return
	}

	if !isAdmin(ctx) {
		var count int64
		r.db.Model(&models.Registration{}).
			Where("room_id = ? AND user_id = ? AND status = ?", room.ID, userID, models.RegistrationApproved).
			Count(&count)
		if count == 0 {
			utils.Error(ctx, http.StatusForbidden, 40320, "room credentials are only shared with approved teams")
			return
		}
	}

	utils.Success(ctx, gin.H{
		"room_code": room.RoomCode,
		"server_id": room.ServerID,
	})
}

// CreateRoom creates a tournament room (admin only).
func (r *RoomController) CreateRoom(ctx *gin.Context) {
	var req roomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	room, ok := req.toRoom(ctx)
	if !ok {
		return
	}

	if err := r.db.Create(&room).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to create room")
		return
	}

	utils.InvalidateByPrefix("cache:rooms:")
	utils.Success(ctx, gin.H{"room": room})
}

// UpdateRoom updates room fields (admin only).
func (r *RoomController) UpdateRoom(ctx *gin.Context) {
	var room models.Room
	if err := r.db.First(&room, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "room not found")
		return
	}

	var req roomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	updated, ok := req.toRoom(ctx)
	if !ok {
		return
	}
	updated.ID = room.ID
	updated.CreatedAt = room.CreatedAt

	if err := r.db.Save(&updated).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update room")
		return
	}

	utils.InvalidateByPrefix("cache:rooms:")
	utils.Success(ctx, gin.H{"room": updated})
}

// DeleteRoom removes a room and, via FK cascade, its registrations (admin only).
func (r *RoomController) DeleteRoom(ctx *gin.Context) {
	var room models.Room
	if err := r.db.First(&room, ctx.Param("id")).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "room not found")
		return
	}

	if err := r.db.Delete(&room).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to delete room")
		return
	}

	utils.InvalidateByPrefix("cache:rooms:")
	utils.InvalidateByPrefix("cache:leaderboard:room:" + strconv.Itoa(int(room.ID)))
	utils.Success(ctx, gin.H{"message": "room deleted"})
}

type roomRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Game        string `json:"game" binding:"required"`
	MatchType   string `json:"match_type"`
	MapName     string `json:"map_name"`
	Description string `json:"description"`
	EntryFee    int    `json:"entry_fee"`
	PrizePool   int    `json:"prize_pool"`
	Slots       int    `json:"slots"`
	StartAt     string `json:"start_at"` // RFC 3339
	Status      string `json:"status"`
	RoomCode    string `json:"room_code"`
	ServerID    string `json:"server_id"`
}

func (req roomRequest) toRoom(ctx *gin.Context) (models.Room, bool) {
	title := utils.SanitizeText(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return models.Room{}, false
	}

	status := req.Status
	if status == "" {
		status = "open"
	}
	switch status {
	case "open", "ongoing", "finished", "closed":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid room status")
		return models.Room{}, false
	}

	var startAt time.Time
	if strings.TrimSpace(req.StartAt) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartAt))
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40023, "start_at must be RFC 3339")
			return models.Room{}, false
		}
		startAt = parsed
	}

	return models.Room{
		Title:       title,
		Game:        strings.TrimSpace(req.Game),
		MatchType:   strings.TrimSpace(req.MatchType),
		MapName:     strings.TrimSpace(req.MapName),
		Description: utils.Sanitize(req.Description),
		EntryFee:    req.EntryFee,
		PrizePool:   req.PrizePool,
		Slots:       req.Slots,
		StartAt:     startAt,
		Status:      status,
		RoomCode:    strings.TrimSpace(req.RoomCode),
		ServerID:    strings.TrimSpace(req.ServerID),
	}, true
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	if uname == "" {
		return false
	}
	return middleware.IsAdminUsername(uname)
}
