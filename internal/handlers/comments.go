package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"

	"tianguis-beats/internal/middleware"
	"tianguis-beats/internal/models"
	ws "tianguis-beats/internal/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type CommentHandler struct {
	DB  *sqlx.DB
	Hub *ws.Hub
}

func NewCommentHandler(db *sqlx.DB, hub *ws.Hub) *CommentHandler {
	return &CommentHandler{DB: db, Hub: hub}
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	var comments []models.Comment
	query := `SELECT c.id, c.beat_id, c.author_id, p.display_name AS author_name, c.body, c.created_at
	          FROM comments c JOIN profiles p ON p.id = c.author_id
	          WHERE c.beat_id = $1 ORDER BY c.created_at ASC LIMIT 200`
	if err := h.DB.Select(&comments, query, c.Param("id")); err != nil {
		log.Println("Failed to list comments:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type PostCommentRequest struct {
	Body string `json:"body" binding:"required,max=500"`
}

// PostComment persists the comment and pushes it to everyone watching the
// beat. The hub's duplicate-id guard means a retried insert can never show
// twice in the UI.
func (h *CommentHandler) PostComment(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	beatID := c.Param("id")

	var req PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var authorName string
	if err := h.DB.Get(&authorName, `SELECT display_name FROM profiles WHERE id = $1`, userID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	commentID := uuid.NewString()
	now := time.Now()
	_, err := h.DB.Exec(`INSERT INTO comments (id, beat_id, author_id, body, created_at)
	                     VALUES ($1, $2, $3, $4, $5)`,
		commentID, beatID, userID, req.Body, now)
	if err != nil {
		log.Println("Failed to insert comment:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	h.Hub.Broadcast <- ws.CommentEvent{
		BeatID:     beatID,
		CommentID:  commentID,
		AuthorID:   userID,
		AuthorName: authorName,
		Body:       req.Body,
		CreatedAt:  now.Format(time.RFC3339),
	}

	c.JSON(http.StatusCreated, gin.H{"id": commentID})
}

// ServeWs subscribes a client to a beat's comment stream.
func (h *CommentHandler) ServeWs(c *gin.Context) {
	beatID := c.Param("id")

	var exists bool
	if err := h.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM beats WHERE id = $1 AND is_public = true)`, beatID); err != nil || !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Beat not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Failed to upgrade connection:", err)
		return
	}

	client := &ws.Client{
		Hub:    h.Hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		BeatID: beatID,
	}

	client.Hub.Register <- client

	go h.writePump(client)
	go h.readPump(client)
}

func (h *CommentHandler) writePump(client *ws.Client) {
	defer func() {
		client.Conn.Close()
	}()

	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *CommentHandler) readPump(client *ws.Client) {
	defer func() {
		client.Hub.Unregister <- client
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("readPump error: %v", err)
			}
			break
		}
	}
}
