package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func beatRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "producer_id", "title", "genre", "mood", "bpm", "musical_key",
		"price_basic_cents", "price_pro_cents", "price_unlimited_cents", "price_exclusive_cents",
		"cover_path", "mp3_path", "wav_path", "stems_path",
		"play_count", "sale_count", "is_public", "created_at", "updated_at",
	}).AddRow(
		"beat-1", "prod-1", "Cumbia 92", "cumbia", "fiesta", 92, "Am",
		49900, 89900, 149900, 499900,
		"covers/b1.jpg", "b1.mp3", "b1.wav", nil,
		10, 2, true, time.Now(), time.Now(),
	)
}

func TestListBeats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("NoFilters", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM beats WHERE is_public = true ORDER BY created_at DESC`)).
			WillReturnRows(beatRows())

		r := gin.New()
		r.GET("/api/beats", NewBeatHandler(db).ListBeats)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/beats", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("GenreAndBPMRange", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`AND genre = $1 AND bpm >= $2 AND bpm <= $3`)).
			WithArgs("corridos", 120, 145).
			WillReturnRows(beatRows())

		r := gin.New()
		r.GET("/api/beats", NewBeatHandler(db).ListBeats)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/beats?genre=corridos&bpm_min=120&bpm_max=145", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestRegisterPlay(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Increments", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE beats SET play_count = play_count + 1`)).
			WithArgs("beat-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		r := gin.New()
		r.POST("/api/beats/:id/play", NewBeatHandler(db).RegisterPlay)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/beats/beat-1/play", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("UnknownBeat", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE beats SET play_count = play_count + 1`)).
			WithArgs("nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		r := gin.New()
		r.POST("/api/beats/:id/play", NewBeatHandler(db).RegisterPlay)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/beats/nope/play", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}
