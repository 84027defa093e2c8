package handlers

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/supabase-community/gotrue-go"
	gotrue_types "github.com/supabase-community/gotrue-go/types"

	"tianguis-beats/internal/models"
)

// AuthHandler delegates credentials to Supabase GoTrue and keeps the
// profile row in sync with the auth user.
type AuthHandler struct {
	DB   *sqlx.DB
	Auth gotrue.Client
}

func NewAuthHandler(db *sqlx.DB, auth gotrue.Client) *AuthHandler {
	return &AuthHandler{DB: db, Auth: auth}
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Username    string `json:"username" binding:"required,min=3"`
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Create the auth user in GoTrue. Passwords never touch our tables.
	_, err := h.Auth.Signup(gotrue_types.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		log.Println("GoTrue signup failed:", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Email may already be in use."})
		return
	}

	// Sign in right away so we get the user id and a session to return.
	session, err := h.Auth.SignInWithEmailPassword(req.Email, req.Password)
	if err != nil {
		log.Println("GoTrue sign-in after signup failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	userID := session.User.ID.String()

	query := `INSERT INTO profiles (id, email, username, display_name, subscription_tier)
	          VALUES ($1, $2, $3, $4, 'free')`
	_, err = h.DB.Exec(query, userID, req.Email, req.Username, req.DisplayName)
	if err != nil {
		log.Println("Failed to insert profile:", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Email or username may already be in use."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "User created successfully.",
		"user_id":      userID,
		"username":     req.Username,
		"access_token": session.AccessToken,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session, err := h.Auth.SignInWithEmailPassword(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password."})
		return
	}

	// Re-fetch the profile row on every login so the client gets current
	// tier and flags.
	var profile models.Profile
	err = h.DB.Get(&profile, `SELECT * FROM profiles WHERE id = $1`, session.User.ID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			log.Println("Auth user without profile row:", session.User.ID)
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		log.Println("Database error on login:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful.",
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"profile":       profile,
	})
}
