package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/metrics"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/notify"
	"github.com/TinyActive/Feature-Voting-Tool/internal/ratelimit"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Net-vote thresholds that trigger a chat notification. The check is exact
// equality after each mutation, so a feature bouncing across a threshold
// re-notifies; the channel is best-effort.
var milestones = []int64{100, 500, 1000}

// FeatureHandler serves the public feature list and the vote protocol.
type FeatureHandler struct {
	DB       *gorm.DB
	Limiter  *ratelimit.Limiter
	Notifier notify.Notifier
}

func NewFeatureHandler(db *gorm.DB, limiter *ratelimit.Limiter, notifier notify.Notifier) *FeatureHandler {
	return &FeatureHandler{DB: db, Limiter: limiter, Notifier: notifier}
}

// featureRow is the aggregate row shape shared by listing, voting and stats.
type featureRow struct {
	ID        string
	TitleEN   string
	TitleVI   string
	DescEN    string
	DescVI    string
	VotesUp   int64
	VotesDown int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type featureResponse struct {
	ID          string               `json:"id"`
	Title       models.LocalizedText `json:"title"`
	Description models.LocalizedText `json:"description"`
	VotesUp     int64                `json:"votesUp"`
	VotesDown   int64                `json:"votesDown"`
	CreatedAt   int64                `json:"createdAt"`
	UpdatedAt   int64                `json:"updatedAt"`
}

func (r featureRow) toResponse() featureResponse {
	return featureResponse{
		ID:          r.ID,
		Title:       models.LocalizedText{EN: r.TitleEN, VI: r.TitleVI},
		Description: models.LocalizedText{EN: r.DescEN, VI: r.DescVI},
		VotesUp:     r.VotesUp,
		VotesDown:   r.VotesDown,
		CreatedAt:   r.CreatedAt.UnixMilli(),
		UpdatedAt:   r.UpdatedAt.UnixMilli(),
	}
}

const featureSelect = `
SELECT
  f.id,
  f.title_en,
  f.title_vi,
  f.desc_en,
  f.desc_vi,
  f.created_at,
  f.updated_at,
  COALESCE(SUM(CASE WHEN v.vote_type = 'up' THEN 1 ELSE 0 END), 0) AS votes_up,
  COALESCE(SUM(CASE WHEN v.vote_type = 'down' THEN 1 ELSE 0 END), 0) AS votes_down
FROM features f
LEFT JOIN votes v ON f.id = v.feature_id
`

// listFeatureRows returns all features with derived tallies, best first.
func listFeatureRows(db *gorm.DB) ([]featureRow, error) {
	var rows []featureRow
	err := db.Raw(featureSelect + `
GROUP BY f.id
ORDER BY (votes_up - votes_down) DESC, f.created_at DESC
`).Scan(&rows).Error
	return rows, err
}

// getFeatureRow returns one feature with derived tallies.
func getFeatureRow(db *gorm.DB, id string) (*featureRow, error) {
	var rows []featureRow
	err := db.Raw(featureSelect+`
WHERE f.id = ?
GROUP BY f.id
`, id).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// tallyVotes recomputes the aggregate counts for one feature.
func tallyVotes(db *gorm.DB, featureID string) (models.Tally, error) {
	var tally models.Tally
	err := db.Raw(`
SELECT
  COALESCE(SUM(CASE WHEN vote_type = 'up' THEN 1 ELSE 0 END), 0) AS votes_up,
  COALESCE(SUM(CASE WHEN vote_type = 'down' THEN 1 ELSE 0 END), 0) AS votes_down
FROM votes WHERE feature_id = ?
`, featureID).Scan(&tally).Error
	return tally, err
}

// List handles GET /api/features
func (h *FeatureHandler) List(c *gin.Context) {
	rows, err := listFeatureRows(h.DB)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load features")
		return
	}

	out := make([]featureResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toResponse())
	}
	util.JSON(c, http.StatusOK, out)
}

type voteRequest struct {
	VoteType string `json:"voteType"`
}

// Vote handles POST /api/features/:id/vote
//
// One transaction covers the read-decide-write sequence and the tally, so a
// transport timeout mid-request leaves no partial state. The composite unique
// index on (feature_id, fingerprint) closes the remaining race: when two
// first-time votes from one fingerprint land together, the loser's insert
// trips the index and is treated as already applied.
func (h *FeatureHandler) Vote(c *gin.Context) {
	featureID := c.Param("id")

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidVoteType(req.VoteType) {
		util.Error(c, http.StatusBadRequest, "Invalid vote type")
		return
	}

	fingerprint := util.Fingerprint(c)

	var feature models.Feature
	if err := h.DB.First(&feature, "id = ?", featureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Feature not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to process vote")
		}
		return
	}

	allowed, _ := h.Limiter.CheckAndConsume(c.Request.Context(), fingerprint)
	if !allowed {
		metrics.RateLimitedTotal.Inc()
		util.Error(c, http.StatusTooManyRequests, "Too many votes, please try again later")
		return
	}

	var tally models.Tally
	outcome := ""
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		findErr := tx.Where("feature_id = ? AND fingerprint = ?", featureID, fingerprint).
			First(&existing).Error

		switch {
		case findErr == nil && existing.VoteType == req.VoteType:
			// toggle-off: the same button twice retracts the vote
			outcome = "toggled_off"
			if err := tx.Delete(&models.Vote{}, "feature_id = ? AND fingerprint = ?", featureID, fingerprint).Error; err != nil {
				return err
			}
		case findErr == nil:
			// switch: the other button flips the vote in place
			outcome = "switched"
			if err := tx.Model(&models.Vote{}).
				Where("feature_id = ? AND fingerprint = ?", featureID, fingerprint).
				Updates(map[string]interface{}{"vote_type": req.VoteType, "created_at": time.Now()}).Error; err != nil {
				return err
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			outcome = "created"
			vote := models.Vote{
				ID:          uuid.NewString(),
				FeatureID:   featureID,
				Fingerprint: fingerprint,
				VoteType:    req.VoteType,
			}
			if err := tx.Create(&vote).Error; err != nil {
				if !isVoteUniqueViolation(err) {
					return err
				}
				// concurrent duplicate: the other request's row stands
				outcome = "duplicate"
			}
		default:
			return findErr
		}

		var err error
		tally, err = tallyVotes(tx, featureID)
		return err
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to process vote")
		return
	}

	metrics.VotesTotal.WithLabelValues(outcome).Inc()

	net := tally.Net()
	for _, m := range milestones {
		if net == m {
			h.Notifier.Notify(fmt.Sprintf("🎉 Feature %q has reached %d net votes!", feature.TitleEN, net))
			break
		}
	}

	util.JSON(c, http.StatusOK, tally)
}

func isVoteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: votes.feature_id")
}
