package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"tianguis-beats/internal/models"
)

type CatalogHandler struct {
	DB *sqlx.DB
}

func NewCatalogHandler(db *sqlx.DB) *CatalogHandler {
	return &CatalogHandler{DB: db}
}

func (h *CatalogHandler) ListSoundKits(c *gin.Context) {
	var kits []models.SoundKit
	err := h.DB.Select(&kits, `SELECT * FROM sound_kits WHERE is_public = true ORDER BY created_at DESC LIMIT 60`)
	if err != nil {
		log.Println("Failed to list sound kits:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch sound kits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sound_kits": kits})
}

func (h *CatalogHandler) GetSoundKit(c *gin.Context) {
	var kit models.SoundKit
	err := h.DB.Get(&kit, `SELECT * FROM sound_kits WHERE id = $1 AND is_public = true`, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sound kit not found"})
		return
	}

	c.JSON(http.StatusOK, kit)
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	var services []models.Service
	err := h.DB.Select(&services, `SELECT * FROM services WHERE is_active = true ORDER BY created_at DESC LIMIT 60`)
	if err != nil {
		log.Println("Failed to list services:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch services"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}
