package handler

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/google/uuid"
)

func voteHeaders(ip, ua string) map[string]string {
	return map[string]string{
		"X-Forwarded-For": ip,
		"User-Agent":      ua,
	}
}

func castVote(t *testing.T, env *testEnv, featureID, voteType, ip, ua string) (*models.Tally, int) {
	t.Helper()
	w := env.do(t, "POST", "/api/features/"+featureID+"/vote",
		map[string]string{"voteType": voteType}, reqOpts{headers: voteHeaders(ip, ua)})
	if w.Code != http.StatusOK {
		return nil, w.Code
	}
	var tally models.Tally
	decodeJSON(t, w, &tally)
	return &tally, w.Code
}

func TestVoteToggleAndSwitch(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Dark mode", "Chế độ tối")

	steps := []struct {
		name     string
		voter    string
		voteType string
		wantUp   int64
		wantDown int64
	}{
		{"first up vote counts", "1.1.1.1", "up", 1, 0},
		{"same vote again toggles off", "1.1.1.1", "up", 0, 0},
		{"another voter votes down", "2.2.2.2", "down", 0, 1},
		{"first voter votes down too", "1.1.1.1", "down", 0, 2},
		{"first voter switches to up", "1.1.1.1", "up", 1, 1},
	}

	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			tally, code := castVote(t, env, feature.ID, tt.voteType, tt.voter, "test-agent")
			if code != http.StatusOK {
				t.Fatalf("expected 200, got %d", code)
			}
			if tally.VotesUp != tt.wantUp || tally.VotesDown != tt.wantDown {
				t.Errorf("expected tally {%d,%d}, got {%d,%d}",
					tt.wantUp, tt.wantDown, tally.VotesUp, tally.VotesDown)
			}
		})
	}

	// at most one row per (feature, fingerprint) at all times
	var count int64
	env.DB.Model(&models.Vote{}).Where("feature_id = ?", feature.ID).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 vote rows, got %d", count)
	}
}

func TestVoteValidation(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Export", "Xuất dữ liệu")

	tests := []struct {
		name       string
		featureID  string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{"invalid vote type", feature.ID, map[string]string{"voteType": "sideways"}, http.StatusBadRequest, "Invalid vote type"},
		{"empty vote type", feature.ID, map[string]string{}, http.StatusBadRequest, "Invalid vote type"},
		{"malformed body", feature.ID, "not-json", http.StatusBadRequest, "Invalid vote type"},
		{"unknown feature", "nope", map[string]string{"voteType": "up"}, http.StatusNotFound, "Feature not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/features/"+tt.featureID+"/vote", tt.body,
				reqOpts{headers: voteHeaders("3.3.3.3", "test-agent")})
			requireStatus(t, w, tt.wantStatus)

			var resp map[string]string
			decodeJSON(t, w, &resp)
			if resp["error"] != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, resp["error"])
			}
		})
	}
}

func TestVoteDistinctFingerprints(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Search", "Tìm kiếm")

	// same IP, different user agents are distinct voters
	if _, code := castVote(t, env, feature.ID, "up", "9.9.9.9", "agent-a"); code != http.StatusOK {
		t.Fatalf("vote failed: %d", code)
	}
	tally, code := castVote(t, env, feature.ID, "up", "9.9.9.9", "agent-b")
	if code != http.StatusOK {
		t.Fatalf("vote failed: %d", code)
	}
	if tally.VotesUp != 2 {
		t.Errorf("expected 2 up votes, got %d", tally.VotesUp)
	}
}

func TestConcurrentDistinctVoters(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Webhooks", "Webhook")

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			castVote(t, env, feature.ID, "up", fmt.Sprintf("10.0.0.%d", i+1), "test-agent")
		}(i)
	}
	wg.Wait()

	var count int64
	env.DB.Model(&models.Vote{}).Where("feature_id = ?", feature.ID).Count(&count)
	if count != n {
		t.Errorf("expected %d vote rows, got %d", n, count)
	}
}

func TestConcurrentSameFingerprintFirstVote(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "API keys", "Khóa API")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			castVote(t, env, feature.ID, "up", "8.8.8.8", "same-agent")
		}()
	}
	wg.Wait()

	// the unique index guarantees at most one row survives the race
	var count int64
	env.DB.Model(&models.Vote{}).
		Where("feature_id = ?", feature.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 vote row, got %d", count)
	}
}

func TestListFeaturesOrderedByNet(t *testing.T) {
	env := setupTestEnv(t)
	low := env.createFeature(t, "Low", "Thấp")
	high := env.createFeature(t, "High", "Cao")

	castVote(t, env, high.ID, "up", "1.1.1.1", "a")
	castVote(t, env, high.ID, "up", "2.2.2.2", "a")
	castVote(t, env, low.ID, "down", "1.1.1.1", "a")

	w := env.do(t, "GET", "/api/features", nil, reqOpts{})
	requireStatus(t, w, http.StatusOK)

	var features []featureResponse
	decodeJSON(t, w, &features)
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
	if features[0].ID != high.ID {
		t.Errorf("expected feature with highest net votes first")
	}
	if features[0].VotesUp != 2 || features[0].VotesDown != 0 {
		t.Errorf("unexpected tally for first feature: {%d,%d}", features[0].VotesUp, features[0].VotesDown)
	}
	if features[1].VotesUp != 0 || features[1].VotesDown != 1 {
		t.Errorf("unexpected tally for second feature: {%d,%d}", features[1].VotesUp, features[1].VotesDown)
	}
}

func TestMilestoneNotification(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Milestone feature", "Tính năng")

	// seed 99 up votes, the hundredth triggers the first milestone
	for i := 0; i < 99; i++ {
		vote := models.Vote{
			ID:          uuid.NewString(),
			FeatureID:   feature.ID,
			Fingerprint: fmt.Sprintf("fp-%d", i),
			VoteType:    models.VoteUp,
		}
		if err := env.DB.Create(&vote).Error; err != nil {
			t.Fatalf("seed vote %d: %v", i, err)
		}
	}

	if _, code := castVote(t, env, feature.ID, "up", "7.7.7.7", "test-agent"); code != http.StatusOK {
		t.Fatalf("vote failed: %d", code)
	}

	msgs := env.Notifier.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0], "100") {
		t.Errorf("expected milestone message to mention 100, got %q", msgs[0])
	}

	// crossing without landing on a milestone stays quiet
	if _, code := castVote(t, env, feature.ID, "up", "7.7.7.8", "test-agent"); code != http.StatusOK {
		t.Fatalf("vote failed: %d", code)
	}
	if got := len(env.Notifier.messages()); got != 1 {
		t.Errorf("expected no new notification at 101 net votes, got %d total", got)
	}
}
