package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestVoteRateLimited(t *testing.T) {
	db := setupTestDB(t)

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })

	limiter := ratelimit.New(rdb, 3, time.Hour)
	notifier := &fakeNotifier{}

	r := gin.New()
	featureHandler := NewFeatureHandler(db, limiter, notifier)
	r.POST("/api/features/:id/vote", featureHandler.Vote)

	feature := models.Feature{ID: "feat-1", TitleEN: "F", TitleVI: "F"}
	if err := db.Create(&feature).Error; err != nil {
		t.Fatal(err)
	}

	vote := func(voteType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/features/feat-1/vote",
			jsonBody(t, map[string]string{"voteType": voteType}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "1.1.1.1")
		req.Header.Set("User-Agent", "ua")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// quota 3: up, off, up all consume attempts
	for i, vt := range []string{"up", "up", "down"} {
		if w := vote(vt); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	w := vote("up")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past quota, got %d", w.Code)
	}
	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["error"] == "" {
		t.Error("expected an error message in the 429 body")
	}

	// the denied attempt mutated nothing: the last applied vote still stands
	var v models.Vote
	if err := db.First(&v, "feature_id = ?", "feat-1").Error; err != nil {
		t.Fatalf("load vote: %v", err)
	}
	if v.VoteType != models.VoteDown {
		t.Errorf("expected last applied vote down, got %q", v.VoteType)
	}
}
