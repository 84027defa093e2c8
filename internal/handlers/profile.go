package handlers

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"tianguis-beats/internal/fulfillment"
	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
)

type ProfileHandler struct {
	DB     *sqlx.DB
	Signer fulfillment.Signer
}

func NewProfileHandler(db *sqlx.DB, signer fulfillment.Signer) *ProfileHandler {
	return &ProfileHandler{DB: db, Signer: signer}
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error: user not in context"})
		return
	}

	var profile models.Profile
	err := h.DB.Get(&profile, `SELECT * FROM profiles WHERE id = $1`, userID)
	if err != nil {
		log.Println("Failed to get profile:", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":   profile,
		"email":     profile.Email,
		"photo_url": h.photoURL(profile),
	})
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AccentColor *string `json:"accent_color"`
	PhotoPath   *string `json:"photo_path"`
}

// UpdateMyProfile applies the customize-form fields. Only fields present
// in the request are touched.
func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	query := `UPDATE profiles SET
	            display_name = COALESCE($2, display_name),
	            bio          = COALESCE($3, bio),
	            accent_color = COALESCE($4, accent_color),
	            photo_path   = COALESCE($5, photo_path),
	            updated_at   = now()
	          WHERE id = $1`
	_, err := h.DB.Exec(query, userID, req.DisplayName, req.Bio, req.AccentColor, req.PhotoPath)
	if err != nil {
		log.Println("Failed to update profile:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated."})
}

// GetProducer is the public producer page: profile plus public beats.
func (h *ProfileHandler) GetProducer(c *gin.Context) {
	username := c.Param("username")

	var profile models.Profile
	err := h.DB.Get(&profile, `SELECT * FROM profiles WHERE username = $1`, username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Producer not found"})
		return
	}

	var beats []models.Beat
	err = h.DB.Select(&beats,
		`SELECT * FROM beats WHERE producer_id = $1 AND is_public = true ORDER BY created_at DESC`,
		profile.ID)
	if err != nil {
		log.Println("Failed to list producer beats:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":   profile,
		"photo_url": h.photoURL(profile),
		"beats":     beats,
	})
}

// ListArtists is the artist directory, verified producers first.
func (h *ProfileHandler) ListArtists(c *gin.Context) {
	var artists []models.Profile
	query := `SELECT * FROM profiles
	          ORDER BY is_verified DESC, is_founder DESC, created_at ASC
	          LIMIT 100`
	if err := h.DB.Select(&artists, query); err != nil {
		log.Println("Failed to list artists:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"artists": artists})
}

type studioSummary struct {
	TotalPlays       int64 `db:"total_plays" json:"total_plays"`
	TotalSales       int64 `db:"total_sales" json:"total_sales"`
	TotalEarnedCents int64 `db:"total_earned_cents" json:"total_earned_cents"`
	PublicBeats      int64 `db:"public_beats" json:"public_beats"`
}

// StudioSummary powers the studio dashboard header cards.
func (h *ProfileHandler) StudioSummary(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var summary studioSummary
	query := `SELECT
	            COALESCE((SELECT SUM(play_count) FROM beats WHERE producer_id = $1), 0) AS total_plays,
	            COALESCE((SELECT COUNT(*) FROM sales WHERE seller_id = $1), 0)          AS total_sales,
	            COALESCE((SELECT SUM(amount_cents) FROM sales WHERE seller_id = $1), 0) AS total_earned_cents,
	            COALESCE((SELECT COUNT(*) FROM beats WHERE producer_id = $1 AND is_public = true), 0) AS public_beats`
	if err := h.DB.Get(&summary, query, userID); err != nil {
		log.Println("Failed to compute studio summary:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RequireAdmin renders access-denied unless the profile's admin flag is
// set. This mirrors the original's boolean-flag gate: real enforcement
// lives in the database's row-level security.
func (h *ProfileHandler) RequireAdmin(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	var isAdmin bool
	err := h.DB.Get(&isAdmin, `SELECT is_admin FROM profiles WHERE id = $1`, userID)
	if err != nil || !isAdmin {
		if err != nil && err != sql.ErrNoRows {
			log.Println("Failed to check admin flag:", err)
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	c.Next()
}

func (h *ProfileHandler) photoURL(profile models.Profile) string {
	if !profile.PhotoPath.Valid || profile.PhotoPath.String == "" {
		return ""
	}
	resp, err := h.Signer.CreateSignedUrl(fulfillment.BucketPhotos, profile.PhotoPath.String, fulfillment.DefaultExpirySeconds)
	if err != nil {
		log.Println("Failed to sign profile photo:", err)
		return ""
	}
	return resp.SignedURL
}
