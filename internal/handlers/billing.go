package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
)

// Subscription plans sellable through the billing portal, MXN cents per month.
var planPrices = map[string]int64{
	"pro":     19900,
	"premium": 39900,
}

// BillingHandler manages the subscription side of a profile: the payment
// customer id, plan checkout, and plan status.
type BillingHandler struct {
	DB         *sqlx.DB
	SnapClient snap.Client
	SuccessURL string
}

func NewBillingHandler(db *sqlx.DB, serverKey, successURL string) *BillingHandler {
	var s snap.Client
	s.New(serverKey, midtrans.Sandbox)

	return &BillingHandler{DB: db, SnapClient: s, SuccessURL: successURL}
}

type PortalRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// CreatePortalSession finds or creates the payment customer for the
// signed-in profile (keyed by email) and returns a payment link for the
// requested plan.
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req PortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	price, ok := planPrices[req.Plan]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	var profile models.Profile
	if err := h.DB.Get(&profile, `SELECT * FROM profiles WHERE id = $1`, userID); err != nil {
		log.Println("Failed to load profile for billing:", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	customerID := profile.PaymentCustomerID.String
	if !profile.PaymentCustomerID.Valid || customerID == "" {
		customerID = "cus_" + uuid.NewString()
		_, err := h.DB.Exec(`UPDATE profiles SET payment_customer_id = $1, updated_at = now() WHERE id = $2`,
			customerID, userID)
		if err != nil {
			log.Println("Failed to store payment customer id:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
			return
		}
	}

	gatewayOrderID := "TB-SUB-" + strconv.FormatInt(time.Now().Unix(), 10) + "-" + uuid.NewString()[:8]
	planProductID := "plan-" + req.Plan

	// The plan rides the same order pipeline as everything else so the
	// webhook upgrade logic has a row to settle.
	tx, err := h.DB.Beginx()
	if err != nil {
		log.Println("Failed to begin transaction:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	defer tx.Rollback()

	orderID := uuid.NewString()
	_, err = tx.Exec(`INSERT INTO orders (id, buyer_id, buyer_email, status, total_cents, gateway_order_id)
	                  VALUES ($1, $2, $3, 'pending', $4, $5)`,
		orderID, userID, profile.Email, price, gatewayOrderID)
	if err == nil {
		_, err = tx.Exec(`INSERT INTO order_items (id, order_id, product_id, product_type, seller_id, title, unit_cents)
		                  VALUES ($1, $2, $3, 'plan', '', $4, $5)`,
			uuid.NewString(), orderID, planProductID, "Plan "+req.Plan, price)
	}
	if err != nil {
		log.Println("Failed to insert plan order:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if err := tx.Commit(); err != nil {
		log.Println("Failed to commit plan order:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  gatewayOrderID,
			GrossAmt: price,
		},
		CustomerDetail: &midtrans.CustomerDetails{Email: profile.Email},
		Callbacks:      &snap.Callbacks{Finish: h.SuccessURL},
	}

	snapResp, snapErr := h.SnapClient.CreateTransaction(snapReq)
	if snapResp == nil {
		log.Println("Failed to create plan transaction (nil response):", snapErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment gateway error."})
		return
	}
	if snapErr != nil {
		log.Printf("Midtrans returned a valid response but also a non-nil error: %v", snapErr)
	}

	c.JSON(http.StatusOK, gin.H{
		"customer_id":  customerID,
		"redirect_url": snapResp.RedirectURL,
		"order_id":     orderID,
	})
}

// GetSubscription reports the profile's current tier.
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var tier string
	if err := h.DB.Get(&tier, `SELECT subscription_tier FROM profiles WHERE id = $1`, userID); err != nil {
		log.Println("Failed to get subscription tier:", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription_tier": tier})
}
