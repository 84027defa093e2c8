package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"tianguis-beats/internal/llm"
)

const (
	chatRateLimitPerMinute = 20
	chatCatalogCacheKey    = "chat:catalog"
	chatCatalogCacheTTL    = 5 * time.Minute
)

// ChatHandler is the marketplace assistant: it forwards the conversation
// to the LLM vendor with a canned system prompt and a small slice of the
// public catalog.
type ChatHandler struct {
	DB    *sqlx.DB
	LLM   *llm.Client
	Redis *redis.Client
}

func NewChatHandler(db *sqlx.DB, llmClient *llm.Client, rdb *redis.Client) *ChatHandler {
	return &ChatHandler{DB: db, LLM: llmClient, Redis: rdb}
}

type ChatRequest struct {
	Messages []llm.Message `json:"messages" binding:"required,min=1"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Cheap per-IP rate limit so the chat widget cannot drain the LLM quota.
	rlKey := "chat:rl:" + c.ClientIP()
	count, err := h.Redis.Incr(ctx, rlKey).Result()
	if err == nil && count == 1 {
		h.Redis.Expire(ctx, rlKey, time.Minute)
	}
	if err == nil && count > chatRateLimitPerMinute {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Demasiados mensajes, espera un momento."})
		return
	}

	messages := append([]llm.Message{{Role: "system", Content: llm.SystemPrompt(h.catalogContext(c))}}, req.Messages...)

	reply, err := h.LLM.Chat(ctx, messages)
	if err != nil {
		log.Println("LLM chat failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "El asistente no está disponible ahora."})
		return
	}

	text, filters := llm.ExtractFilters(reply)
	c.JSON(http.StatusOK, gin.H{"reply": text, "filters": filters})
}

// catalogContext returns up to five public beats for the system prompt,
// cached in Redis so every chat turn does not hit the database.
func (h *ChatHandler) catalogContext(c *gin.Context) []llm.CatalogBeat {
	ctx := c.Request.Context()

	if data, err := h.Redis.Get(ctx, chatCatalogCacheKey).Bytes(); err == nil {
		var beats []llm.CatalogBeat
		if json.Unmarshal(data, &beats) == nil {
			return beats
		}
	}

	var beats []llm.CatalogBeat
	query := `SELECT title, genre, bpm, price_basic_cents FROM beats
	          WHERE is_public = true ORDER BY play_count DESC LIMIT 5`
	if err := h.DB.Select(&beats, query); err != nil {
		// The assistant still works without catalog context.
		log.Println("Failed to load catalog context:", err)
		return nil
	}

	if data, err := json.Marshal(beats); err == nil {
		h.Redis.Set(ctx, chatCatalogCacheKey, data, chatCatalogCacheTTL)
	}
	return beats
}
