package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
)

type BeatHandler struct {
	DB *sqlx.DB
}

func NewBeatHandler(db *sqlx.DB) *BeatHandler {
	return &BeatHandler{DB: db}
}

// ListBeats is the public catalog with the filters the assistant and the
// catalog page share: genre, mood, bpm range, musical key.
func (h *BeatHandler) ListBeats(c *gin.Context) {
	query := `SELECT * FROM beats WHERE is_public = true`
	args := []interface{}{}

	if genre := c.Query("genre"); genre != "" {
		args = append(args, genre)
		query += ` AND genre = $` + strconv.Itoa(len(args))
	}
	if mood := c.Query("mood"); mood != "" {
		args = append(args, mood)
		query += ` AND mood = $` + strconv.Itoa(len(args))
	}
	if key := c.Query("key"); key != "" {
		args = append(args, key)
		query += ` AND musical_key = $` + strconv.Itoa(len(args))
	}
	if bpmMin := c.Query("bpm_min"); bpmMin != "" {
		if v, err := strconv.Atoi(bpmMin); err == nil {
			args = append(args, v)
			query += ` AND bpm >= $` + strconv.Itoa(len(args))
		}
	}
	if bpmMax := c.Query("bpm_max"); bpmMax != "" {
		if v, err := strconv.Atoi(bpmMax); err == nil {
			args = append(args, v)
			query += ` AND bpm <= $` + strconv.Itoa(len(args))
		}
	}

	query += ` ORDER BY created_at DESC LIMIT 60`

	var beats []models.Beat
	if err := h.DB.Select(&beats, query, args...); err != nil {
		log.Println("Failed to list beats:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch beats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"beats": beats})
}

func (h *BeatHandler) GetBeat(c *gin.Context) {
	var beat models.Beat
	err := h.DB.Get(&beat, `SELECT * FROM beats WHERE id = $1 AND is_public = true`, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Beat not found"})
		return
	}

	c.JSON(http.StatusOK, beat)
}

// RegisterPlay bumps the play counter. Fired by the mini-player when a
// beat sample actually starts.
func (h *BeatHandler) RegisterPlay(c *gin.Context) {
	res, err := h.DB.Exec(`UPDATE beats SET play_count = play_count + 1 WHERE id = $1 AND is_public = true`, c.Param("id"))
	if err != nil {
		log.Println("Failed to increment play count:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Beat not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListMyBeats returns the producer's own catalog, private ones included.
func (h *BeatHandler) ListMyBeats(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var beats []models.Beat
	err := h.DB.Select(&beats, `SELECT * FROM beats WHERE producer_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		log.Println("Failed to list own beats:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch beats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"beats": beats})
}

type UpdateBeatRequest struct {
	Title               *string `json:"title"`
	Genre               *string `json:"genre"`
	Mood                *string `json:"mood"`
	BPM                 *int    `json:"bpm"`
	MusicalKey          *string `json:"musical_key"`
	PriceBasicCents     *int64  `json:"price_basic_cents"`
	PriceProCents       *int64  `json:"price_pro_cents"`
	PriceUnlimitedCents *int64  `json:"price_unlimited_cents"`
	PriceExclusiveCents *int64  `json:"price_exclusive_cents"`
	IsPublic            *bool   `json:"is_public"`
}

// UpdateMyBeat edits metadata, prices, or the public/private flag. The
// WHERE clause carries the owner check.
func (h *BeatHandler) UpdateMyBeat(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req UpdateBeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	query := `UPDATE beats SET
	            title                 = COALESCE($3, title),
	            genre                 = COALESCE($4, genre),
	            mood                  = COALESCE($5, mood),
	            bpm                   = COALESCE($6, bpm),
	            musical_key           = COALESCE($7, musical_key),
	            price_basic_cents     = COALESCE($8, price_basic_cents),
	            price_pro_cents       = COALESCE($9, price_pro_cents),
	            price_unlimited_cents = COALESCE($10, price_unlimited_cents),
	            price_exclusive_cents = COALESCE($11, price_exclusive_cents),
	            is_public             = COALESCE($12, is_public),
	            updated_at            = now()
	          WHERE id = $1 AND producer_id = $2`

	res, err := h.DB.Exec(query, c.Param("id"), userID,
		req.Title, req.Genre, req.Mood, req.BPM, req.MusicalKey,
		req.PriceBasicCents, req.PriceProCents, req.PriceUnlimitedCents,
		req.PriceExclusiveCents, req.IsPublic)
	if err != nil {
		log.Println("Failed to update beat:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Beat not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Beat updated."})
}
