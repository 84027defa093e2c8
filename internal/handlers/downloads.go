package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"tianguis-beats/internal/cart"
	"tianguis-beats/internal/fulfillment"
	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
)

// DownloadHandler turns a settled order into time-limited download links,
// per license tier.
type DownloadHandler struct {
	DB        *sqlx.DB
	Generator *fulfillment.Generator
}

func NewDownloadHandler(db *sqlx.DB, gen *fulfillment.Generator) *DownloadHandler {
	return &DownloadHandler{DB: db, Generator: gen}
}

type itemDownloads struct {
	Title string             `json:"title"`
	Links []fulfillment.Link `json:"links"`
}

// GetOrderDownloads resolves every deliverable in one of the buyer's
// settled orders. Assets that are missing or fail to sign simply do not
// appear in the list.
func (h *DownloadHandler) GetOrderDownloads(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var order models.Order
	err := h.DB.Get(&order, `SELECT * FROM orders WHERE id = $1 AND buyer_id = $2`, c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.Status != "settled" {
		c.JSON(http.StatusConflict, gin.H{"error": "Order is not paid yet"})
		return
	}

	var items []models.OrderItem
	if err := h.DB.Select(&items, `SELECT * FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		log.Println("Failed to load order items:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	downloads := make([]itemDownloads, 0, len(items))
	for _, item := range items {
		switch item.ProductType {
		case cart.TypeBeat, cart.TypeLicense:
			var beat models.Beat
			if err := h.DB.Get(&beat, `SELECT * FROM beats WHERE id = $1`, item.ProductID); err != nil {
				log.Println("Purchased beat no longer exists:", item.ProductID)
				continue
			}
			links := h.Generator.BeatLinks(fulfillment.BeatAssets{
				MP3Path:   beat.MP3Path.String,
				WAVPath:   beat.WAVPath.String,
				StemsPath: beat.StemsPath.String,
			}, item.LicenseType.String)
			downloads = append(downloads, itemDownloads{Title: item.Title, Links: links})

		case cart.TypeSoundKit:
			var kit models.SoundKit
			if err := h.DB.Get(&kit, `SELECT * FROM sound_kits WHERE id = $1`, item.ProductID); err != nil {
				log.Println("Purchased sound kit no longer exists:", item.ProductID)
				continue
			}
			entry := itemDownloads{Title: item.Title}
			if link := h.Generator.KitLink(kit.ArchivePath.String); link != nil {
				entry.Links = []fulfillment.Link{*link}
			}
			downloads = append(downloads, entry)

		default:
			// Services and plans have no files to deliver.
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":    order.ID,
		"friendly_id": order.FriendlyID.String,
		"downloads":   downloads,
	})
}

// ListMyOrders is the buyer's purchase history.
func (h *DownloadHandler) ListMyOrders(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var orders []models.Order
	err := h.DB.Select(&orders, `SELECT * FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		log.Println("Failed to list orders:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
