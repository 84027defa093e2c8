package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
)

type PlaylistHandler struct {
	DB *sqlx.DB
}

func NewPlaylistHandler(db *sqlx.DB) *PlaylistHandler {
	return &PlaylistHandler{DB: db}
}

type CreatePlaylistRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *PlaylistHandler) CreatePlaylist(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Playlist name is required"})
		return
	}

	id := uuid.NewString()
	_, err := h.DB.Exec(`INSERT INTO playlists (id, owner_id, name) VALUES ($1, $2, $3)`,
		id, userID, strings.TrimSpace(req.Name))
	if err != nil {
		log.Println("Failed to create playlist:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *PlaylistHandler) ListMyPlaylists(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var playlists []models.Playlist
	err := h.DB.Select(&playlists, `SELECT * FROM playlists WHERE owner_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		log.Println("Failed to list playlists:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch playlists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"playlists": playlists})
}

// GetPlaylist returns the playlist with its beats in order.
func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var playlist models.Playlist
	err := h.DB.Get(&playlist, `SELECT * FROM playlists WHERE id = $1 AND owner_id = $2`, c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	var beats []models.Beat
	query := `SELECT b.* FROM playlist_items pi
	          JOIN beats b ON b.id = pi.beat_id
	          WHERE pi.playlist_id = $1 ORDER BY pi.position ASC`
	if err := h.DB.Select(&beats, query, playlist.ID); err != nil {
		log.Println("Failed to load playlist beats:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"playlist": playlist, "beats": beats})
}

type AddPlaylistItemRequest struct {
	BeatID string `json:"beat_id" binding:"required"`
}

func (h *PlaylistHandler) AddItem(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req AddPlaylistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Owner check and next position in one statement.
	query := `INSERT INTO playlist_items (id, playlist_id, beat_id, position)
	          SELECT $1, p.id, $3, COALESCE((SELECT MAX(position) + 1 FROM playlist_items WHERE playlist_id = p.id), 0)
	          FROM playlists p WHERE p.id = $2 AND p.owner_id = $4`
	res, err := h.DB.Exec(query, uuid.NewString(), c.Param("id"), req.BeatID, userID)
	if err != nil {
		log.Println("Failed to add playlist item:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Beat added."})
}

func (h *PlaylistHandler) RemoveItem(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	query := `DELETE FROM playlist_items pi USING playlists p
	          WHERE pi.playlist_id = p.id AND p.owner_id = $1
	            AND pi.playlist_id = $2 AND pi.beat_id = $3`
	_, err := h.DB.Exec(query, userID, c.Param("id"), c.Param("beatId"))
	if err != nil {
		log.Println("Failed to remove playlist item:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Beat removed."})
}

func (h *PlaylistHandler) DeletePlaylist(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	res, err := h.DB.Exec(`DELETE FROM playlists WHERE id = $1 AND owner_id = $2`, c.Param("id"), userID)
	if err != nil {
		log.Println("Failed to delete playlist:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist deleted."})
}
