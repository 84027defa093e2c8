package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func profileRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "username", "display_name", "bio", "photo_path",
		"accent_color", "subscription_tier", "is_verified", "is_founder",
		"is_admin", "payment_customer_id", "created_at", "updated_at",
	}).AddRow(
		"prod-1", "luna@example.com", "lunabeats", "Luna", "Cumbia desde CDMX", nil,
		"#e91e63", "pro", true, false,
		false, nil, time.Now(), time.Now(),
	)
}

func TestListArtists_HidesEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM profiles").WillReturnRows(profileRows())

	r := gin.New()
	r.GET("/api/artists", NewProfileHandler(db, nil).ListArtists)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/artists", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "lunabeats") {
		t.Errorf("artist missing from directory: %s", w.Body.String())
	}
	// The directory is public; addresses stay private.
	if strings.Contains(w.Body.String(), "luna@example.com") {
		t.Errorf("email leaked into public directory: %s", w.Body.String())
	}
}
