package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tianguis-beats/internal/cart"
	"tianguis-beats/internal/middleware"
)

// CartTokenHeader carries the opaque device token that scopes a cart.
// The client stores it locally; a missing token gets a fresh one.
const CartTokenHeader = "X-Cart-Token"

type CartHandler struct {
	Store *cart.Store
}

func NewCartHandler(store *cart.Store) *CartHandler {
	return &CartHandler{Store: store}
}

func (h *CartHandler) token(c *gin.Context) string {
	token := c.GetHeader(CartTokenHeader)
	if token == "" {
		token = uuid.NewString()
	}
	c.Header(CartTokenHeader, token)
	return token
}

func (h *CartHandler) GetCart(c *gin.Context) {
	token := h.token(c)

	current, err := h.Store.Load(c.Request.Context(), token)
	if err != nil {
		log.Println("Failed to load cart:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": current, "total_cents": current.TotalCents(), "cart_token": token})
}

func (h *CartHandler) AddItem(c *gin.Context) {
	token := h.token(c)

	var item cart.Item
	if err := c.ShouldBindJSON(&item); err != nil || item.ID == "" || item.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item"})
		return
	}

	current, err := h.Store.Load(c.Request.Context(), token)
	if err != nil {
		log.Println("Failed to load cart:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	userID, _ := middleware.UserID(c)
	if err := current.AddItem(item, userID); err != nil {
		// Business-rule rejections come back as user-facing notices.
		c.JSON(http.StatusConflict, gin.H{"error": noticeFor(err), "cart": current})
		return
	}

	if err := h.Store.Save(c.Request.Context(), token, current); err != nil {
		log.Println("Failed to save cart:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": current, "total_cents": current.TotalCents(), "cart_token": token})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	token := h.token(c)

	current, err := h.Store.Load(c.Request.Context(), token)
	if err != nil {
		log.Println("Failed to load cart:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	current.RemoveItem(c.Param("id"))

	if err := h.Store.Save(c.Request.Context(), token, current); err != nil {
		log.Println("Failed to save cart:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": current, "total_cents": current.TotalCents(), "cart_token": token})
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	token := h.token(c)

	if err := h.Store.Delete(c.Request.Context(), token); err != nil {
		log.Println("Failed to clear cart:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": &cart.Cart{}, "total_cents": 0, "cart_token": token})
}

func noticeFor(err error) string {
	switch err {
	case cart.ErrDuplicateItem:
		return "Este producto ya está en tu carrito."
	case cart.ErrOwnItem:
		return "No puedes comprar tu propio producto."
	case cart.ErrPlanInCart:
		return "Solo puedes tener un plan en el carrito."
	default:
		return "No se pudo agregar el producto."
	}
}
