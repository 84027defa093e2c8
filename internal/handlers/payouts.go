package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
)

// MaturationWindow is how long a settled sale stays 'pending' before the
// seller can withdraw it.
const MaturationWindow = 14 * 24 * time.Hour

type PayoutHandler struct {
	DB *sqlx.DB
}

func NewPayoutHandler(db *sqlx.DB) *PayoutHandler {
	return &PayoutHandler{DB: db}
}

type balance struct {
	TotalCents     int64 `db:"total_cents" json:"total_cents"`
	PendingCents   int64 `db:"pending_cents" json:"pending_cents"`
	WithdrawnCents int64 `db:"withdrawn_cents" json:"withdrawn_cents"`
	AvailableCents int64 `json:"available_cents"`
}

func sellerBalance(q sqlx.Queryer, sellerID string, now time.Time) (balance, error) {
	cutoff := now.Add(-MaturationWindow)

	var b balance
	query := `SELECT
	            COALESCE((SELECT SUM(amount_cents) FROM sales WHERE seller_id = $1), 0)                       AS total_cents,
	            COALESCE((SELECT SUM(amount_cents) FROM sales WHERE seller_id = $1 AND settled_at > $2), 0)   AS pending_cents,
	            COALESCE((SELECT SUM(amount_cents) FROM payouts WHERE seller_id = $1 AND status <> 'rejected'), 0) AS withdrawn_cents`
	if err := sqlx.Get(q, &b, query, sellerID, cutoff); err != nil {
		return b, err
	}

	b.AvailableCents = b.TotalCents - b.PendingCents - b.WithdrawnCents
	if b.AvailableCents < 0 {
		b.AvailableCents = 0
	}
	return b, nil
}

// GetBalance shows the seller's earnings split into pending (inside the
// 14-day maturation window) and available.
func (h *PayoutHandler) GetBalance(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	b, err := sellerBalance(h.DB, userID, time.Now())
	if err != nil {
		log.Println("Failed to compute balance:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, b)
}

type PayoutRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Clabe       string `json:"clabe" binding:"required,len=18"`
}

// RequestPayout creates a retiro against the matured balance. Requests
// above the available balance are rejected outright.
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Check and insert inside one transaction, serialized per seller by a
	// row lock on the profile. Two concurrent retiros cannot both pass the
	// balance check.
	tx, err := h.DB.Beginx()
	if err != nil {
		log.Println("Failed to begin payout transaction:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	defer tx.Rollback()

	var sellerID string
	if err := tx.Get(&sellerID, `SELECT id FROM profiles WHERE id = $1 FOR UPDATE`, userID); err != nil {
		log.Println("Failed to lock seller profile:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	b, err := sellerBalance(tx, userID, time.Now())
	if err != nil {
		log.Println("Failed to compute balance for payout:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	if req.AmountCents > b.AvailableCents {
		c.JSON(http.StatusConflict, gin.H{"error": "Saldo disponible insuficiente."})
		return
	}

	id := uuid.NewString()
	_, err = tx.Exec(`INSERT INTO payouts (id, seller_id, amount_cents, clabe, status)
	                  VALUES ($1, $2, $3, $4, 'requested')`,
		id, userID, req.AmountCents, req.Clabe)
	if err != nil {
		log.Println("Failed to insert payout:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	if err := tx.Commit(); err != nil {
		log.Println("Failed to commit payout:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *PayoutHandler) ListMyPayouts(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var payouts []models.Payout
	err := h.DB.Select(&payouts, `SELECT * FROM payouts WHERE seller_id = $1 ORDER BY requested_at DESC`, userID)
	if err != nil {
		log.Println("Failed to list payouts:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch payouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// ListAllPayouts is the back-office view of every withdrawal request.
func (h *PayoutHandler) ListAllPayouts(c *gin.Context) {
	var payouts []models.Payout
	query := `SELECT * FROM payouts ORDER BY requested_at DESC LIMIT 200`
	if status := c.Query("status"); status != "" {
		query = `SELECT * FROM payouts WHERE status = $1 ORDER BY requested_at DESC LIMIT 200`
		if err := h.DB.Select(&payouts, query, status); err != nil {
			log.Println("Failed to list payouts:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch payouts"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"payouts": payouts})
		return
	}

	if err := h.DB.Select(&payouts, query); err != nil {
		log.Println("Failed to list payouts:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch payouts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

type ResolvePayoutRequest struct {
	Status string `json:"status" binding:"required,oneof=paid rejected"`
}

// ResolvePayout marks a requested payout paid or rejected after the bank
// transfer is handled out of band.
func (h *PayoutHandler) ResolvePayout(c *gin.Context) {
	var req ResolvePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	query := `UPDATE payouts SET status = $1, paid_at = CASE WHEN $1 = 'paid' THEN now() ELSE paid_at END
	          WHERE id = $2 AND status = 'requested'`
	res, err := h.DB.Exec(query, req.Status, c.Param("id"))
	if err != nil {
		log.Println("Failed to resolve payout:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payout not found or already resolved"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payout updated."})
}
