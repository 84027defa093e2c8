package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"tianguis-beats/internal/cart"
	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
	"tianguis-beats/internal/orderid"
)

// TransactionChecker is the slice of the Midtrans Core API used to
// re-verify webhook notifications. coreapi.Client satisfies it.
type TransactionChecker interface {
	CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

type CheckoutHandler struct {
	DB         *sqlx.DB
	Store      *cart.Store
	SnapClient snap.Client
	CoreClient TransactionChecker
	SuccessURL string
	CancelURL  string
}

func NewCheckoutHandler(db *sqlx.DB, store *cart.Store, serverKey, successURL, cancelURL string) *CheckoutHandler {
	var s snap.Client
	s.New(serverKey, midtrans.Sandbox)

	var c coreapi.Client
	c.New(serverKey, midtrans.Sandbox)

	return &CheckoutHandler{
		DB:         db,
		Store:      store,
		SnapClient: s,
		CoreClient: c,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}
}

type CreateSessionRequest struct {
	BuyerEmail string `json:"buyer_email" binding:"required,email"`
}

// CreateSession turns the device cart into a pending order and a Midtrans
// Snap payment link. Settlement is always MXN cents, whatever display
// currency the client showed.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	token := c.GetHeader(CartTokenHeader)
	current, err := h.Store.Load(c.Request.Context(), token)
	if err != nil {
		log.Println("Failed to load cart for checkout:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if token == "" || len(current.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty."})
		return
	}

	// The cart rules hold at checkout too, not just at add time.
	userID, _ := middleware.UserID(c)
	if userID != "" {
		for _, item := range current.Items {
			if item.ProducerID == userID {
				c.JSON(http.StatusConflict, gin.H{"error": "No puedes comprar tu propio producto."})
				return
			}
		}
	}

	gatewayOrderID := "TB-" + strconv.FormatInt(time.Now().Unix(), 10) + "-" + uuid.NewString()[:8]

	// Persist the pending order and its items before touching the gateway.
	tx, err := h.DB.Beginx()
	if err != nil {
		log.Println("Failed to begin transaction:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	defer tx.Rollback()

	orderID := uuid.NewString()
	var buyerID interface{}
	if userID != "" {
		buyerID = userID
	}

	_, err = tx.Exec(`INSERT INTO orders (id, buyer_id, buyer_email, status, total_cents, gateway_order_id)
	                  VALUES ($1, $2, $3, 'pending', $4, $5)`,
		orderID, buyerID, req.BuyerEmail, current.TotalCents(), gatewayOrderID)
	if err != nil {
		log.Println("Failed to insert order:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	for _, item := range current.Items {
		var license interface{}
		if item.LicenseType != "" {
			license = item.LicenseType
		}
		_, err = tx.Exec(`INSERT INTO order_items (id, order_id, product_id, product_type, seller_id, license_type, title, unit_cents)
		                  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.NewString(), orderID, item.ID, item.Type, item.ProducerID, license, item.Title, item.PriceCents)
		if err != nil {
			log.Println("Failed to insert order item:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Println("Failed to commit order:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	// Build the Snap request: one gateway line per cart item, qty 1.
	items := make([]midtrans.ItemDetails, 0, len(current.Items))
	for _, item := range current.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    item.ID,
			Price: item.PriceCents,
			Qty:   1,
			Name:  truncateName(item.Title),
		})
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  gatewayOrderID,
			GrossAmt: current.TotalCents(),
		},
		Items: &items,
		CustomerDetail: &midtrans.CustomerDetails{
			Email: req.BuyerEmail,
		},
		Callbacks: &snap.Callbacks{Finish: h.SuccessURL},
	}

	snapResp, snapErr := h.SnapClient.CreateTransaction(snapReq)
	if snapResp == nil {
		log.Println("Failed to create Midtrans transaction (nil response):", snapErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment gateway error."})
		return
	}
	if snapErr != nil {
		log.Printf("Midtrans returned a valid response but also a non-nil error: %v", snapErr)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Payment link created.",
		"redirect_url": snapResp.RedirectURL,
		"cancel_url":   h.CancelURL,
		"order_id":     orderID,
	})
}

// HandlePaymentNotification is the gateway webhook. The notification is
// never trusted directly: the transaction is re-verified with the Core API
// before the order settles.
func (h *CheckoutHandler) HandlePaymentNotification(c *gin.Context) {
	var notification coreapi.TransactionStatusResponse
	if err := c.ShouldBindJSON(&notification); err != nil {
		log.Println("Failed to bind Midtrans notification:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification format"})
		return
	}

	apiResp, apiErr := h.CoreClient.CheckTransaction(notification.OrderID)
	if apiResp == nil {
		log.Println("Failed to verify transaction (nil response) with Midtrans Core API:", apiErr)
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found or API error"})
		return
	}
	if apiErr != nil {
		log.Printf("Midtrans Core API returned a valid response but also a non-nil error: %v", apiErr)
	}

	if apiResp.TransactionStatus != "settlement" && apiResp.TransactionStatus != "capture" {
		log.Println("Received non-settled transaction status:", apiResp.TransactionStatus)
		c.JSON(http.StatusOK, gin.H{"status": "ok (not settled)"})
		return
	}

	var order models.Order
	err := h.DB.Get(&order, `SELECT * FROM orders WHERE gateway_order_id = $1`, apiResp.OrderID)
	if err != nil {
		log.Println("Failed to find order by gateway_order_id:", apiResp.OrderID)
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if order.Status == "settled" {
		log.Println("Duplicate webhook, already settled:", apiResp.TransactionID)
		c.JSON(http.StatusOK, gin.H{"status": "ok (duplicate)"})
		return
	}

	var items []models.OrderItem
	if err := h.DB.Select(&items, `SELECT * FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		log.Println("Failed to load order items:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	productTypes := make([]string, 0, len(items))
	for _, item := range items {
		productTypes = append(productTypes, item.ProductType)
	}
	friendlyID := orderid.Generate(productTypes, apiResp.TransactionID, time.Now())

	tx, err := h.DB.Beginx()
	if err != nil {
		log.Println("Failed to begin settlement transaction:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE orders SET status = 'settled', gateway_tx_id = $1, friendly_id = $2, updated_at = now()
	                  WHERE id = $3`, apiResp.TransactionID, friendlyID, order.ID)
	if err != nil {
		log.Println("Failed to settle order:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	now := time.Now()
	for _, item := range items {
		if item.ProductType == cart.TypePlan {
			// A plan purchase upgrades the buyer instead of crediting a seller.
			if order.BuyerID.Valid {
				tier := strings.TrimPrefix(item.ProductID, "plan-")
				if _, err := tx.Exec(`UPDATE profiles SET subscription_tier = $1, updated_at = now() WHERE id = $2`,
					tier, order.BuyerID.String); err != nil {
					log.Println("Failed to upgrade subscription tier:", err)
				}
			}
			continue
		}

		_, err = tx.Exec(`INSERT INTO sales (id, order_id, seller_id, buyer_id, product_id, product_type, license_type, amount_cents, settled_at)
		                  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.NewString(), order.ID, item.SellerID, order.BuyerID, item.ProductID,
			item.ProductType, item.LicenseType, item.UnitCents, now)
		if err != nil {
			log.Println("Failed to insert sale:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		if item.ProductType == cart.TypeBeat || item.ProductType == cart.TypeLicense {
			if _, err := tx.Exec(`UPDATE beats SET sale_count = sale_count + 1 WHERE id = $1`, item.ProductID); err != nil {
				log.Println("Failed to bump sale count:", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		log.Println("Failed to commit settlement:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	log.Printf("SUCCESS: Settled order %s (%s) with %d items", order.ID, friendlyID, len(items))

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Midtrans caps item names at 50 characters. Cut on a rune boundary so a
// Spanish title never ships a broken multi-byte sequence.
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) > 50 {
		return string(runes[:50])
	}
	return name
}
