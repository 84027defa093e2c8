package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the Supabase access token and puts the auth
// user's UUID into the context as "userID".
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseBearer(c, jwtSecret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalAuthMiddleware sets "userID" when a valid token is present but
// lets anonymous requests through. Cart endpoints use this: the
// no-self-purchase rule only applies to signed-in shoppers.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := parseBearer(c, jwtSecret); ok {
			c.Set("userID", userID)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, jwtSecret string) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		log.Println("Token parsing error:", err)
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", false
	}

	// Supabase puts the auth user UUID in 'sub'.
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		log.Println("Invalid 'sub' claim in token")
		return "", false
	}
	return sub, true
}

// UserID reads the id set by AuthMiddleware. The bool is false on routes
// that only use OptionalAuthMiddleware and got an anonymous request.
func UserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
