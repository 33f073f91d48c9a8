package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
)

type commentListResponse struct {
	Comments []commentResponse `json:"comments"`
}

func postComment(t *testing.T, env *testEnv, featureID, bearer, content string) string {
	t.Helper()
	w := env.do(t, "POST", "/api/features/"+featureID+"/comments",
		map[string]interface{}{"content": content}, reqOpts{bearer: bearer})
	requireStatus(t, w, http.StatusCreated)
	var resp struct {
		ID string `json:"id"`
	}
	decodeJSON(t, w, &resp)
	return resp.ID
}

func TestCommentLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Comments", "Bình luận")
	user := env.createUser(t, "author@example.com", models.RoleUser)
	bearer := env.bearerFor(t, user)

	id := postComment(t, env, feature.ID, bearer, "First!")

	// visible in the public listing
	w := env.do(t, "GET", "/api/features/"+feature.ID+"/comments", nil, reqOpts{})
	requireStatus(t, w, http.StatusOK)
	var list commentListResponse
	decodeJSON(t, w, &list)
	if len(list.Comments) != 1 || list.Comments[0].Content != "First!" {
		t.Fatalf("unexpected listing: %+v", list.Comments)
	}

	// author can edit
	w = env.do(t, "PUT", "/api/comments/"+id, map[string]string{"content": "Edited"}, reqOpts{bearer: bearer})
	requireStatus(t, w, http.StatusOK)

	// author can delete
	w = env.do(t, "DELETE", "/api/comments/"+id, nil, reqOpts{bearer: bearer})
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, "GET", "/api/features/"+feature.ID+"/comments", nil, reqOpts{})
	decodeJSON(t, w, &list)
	if len(list.Comments) != 0 {
		t.Errorf("expected empty listing after delete, got %d", len(list.Comments))
	}
}

func TestCommentAuthorization(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Comments", "Bình luận")
	author := env.createUser(t, "author@example.com", models.RoleUser)
	stranger := env.createUser(t, "stranger@example.com", models.RoleUser)
	authorBearer := env.bearerFor(t, author)
	strangerBearer := env.bearerFor(t, stranger)

	id := postComment(t, env, feature.ID, authorBearer, "Mine")

	// anonymous cannot create
	w := env.do(t, "POST", "/api/features/"+feature.ID+"/comments",
		map[string]string{"content": "Anon"}, reqOpts{})
	requireStatus(t, w, http.StatusUnauthorized)

	// another user cannot edit or delete
	w = env.do(t, "PUT", "/api/comments/"+id, map[string]string{"content": "Hijack"}, reqOpts{bearer: strangerBearer})
	requireStatus(t, w, http.StatusForbidden)
	w = env.do(t, "DELETE", "/api/comments/"+id, nil, reqOpts{bearer: strangerBearer})
	requireStatus(t, w, http.StatusForbidden)
}

func TestCommentValidation(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Comments", "Bình luận")
	user := env.createUser(t, "author@example.com", models.RoleUser)
	bearer := env.bearerFor(t, user)

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("x", 2001)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/features/"+feature.ID+"/comments",
				map[string]string{"content": tt.content}, reqOpts{bearer: bearer})
			requireStatus(t, w, http.StatusBadRequest)
		})
	}

	t.Run("unknown feature", func(t *testing.T) {
		w := env.do(t, "POST", "/api/features/nope/comments",
			map[string]string{"content": "Hi"}, reqOpts{bearer: bearer})
		requireStatus(t, w, http.StatusNotFound)
	})
}

func TestCommentThreading(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Comments", "Bình luận")
	other := env.createFeature(t, "Other", "Khác")
	user := env.createUser(t, "author@example.com", models.RoleUser)
	bearer := env.bearerFor(t, user)

	parentID := postComment(t, env, feature.ID, bearer, "Parent")

	// a reply under the same feature works
	w := env.do(t, "POST", "/api/features/"+feature.ID+"/comments",
		map[string]interface{}{"content": "Reply", "parentId": parentID}, reqOpts{bearer: bearer})
	requireStatus(t, w, http.StatusCreated)

	// a parent from a different feature is rejected
	w = env.do(t, "POST", "/api/features/"+other.ID+"/comments",
		map[string]interface{}{"content": "Cross", "parentId": parentID}, reqOpts{bearer: bearer})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestHiddenCommentsExcludedFromPublicListing(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Comments", "Bình luận")
	user := env.createUser(t, "author@example.com", models.RoleUser)
	moderator := env.createUser(t, "mod@example.com", models.RoleModerator)
	bearer := env.bearerFor(t, user)
	modBearer := env.bearerFor(t, moderator)

	id := postComment(t, env, feature.ID, bearer, "Spam")

	w := env.do(t, "PUT", "/api/admin/comments/"+id+"/status",
		map[string]string{"status": "hidden"}, reqOpts{bearer: modBearer})
	requireStatus(t, w, http.StatusOK)

	var list commentListResponse
	decodeJSON(t, env.do(t, "GET", "/api/features/"+feature.ID+"/comments", nil, reqOpts{}), &list)
	if len(list.Comments) != 0 {
		t.Errorf("hidden comment leaked into public listing")
	}

	// restore and it reappears
	w = env.do(t, "PUT", "/api/admin/comments/"+id+"/status",
		map[string]string{"status": "active"}, reqOpts{bearer: modBearer})
	requireStatus(t, w, http.StatusOK)
	decodeJSON(t, env.do(t, "GET", "/api/features/"+feature.ID+"/comments", nil, reqOpts{}), &list)
	if len(list.Comments) != 1 {
		t.Errorf("expected restored comment in public listing")
	}
}

func TestModerationRequiresRole(t *testing.T) {
	env := setupTestEnv(t)
	feature := env.createFeature(t, "Comments", "Bình luận")
	user := env.createUser(t, "author@example.com", models.RoleUser)
	bearer := env.bearerFor(t, user)
	id := postComment(t, env, feature.ID, bearer, "Hello")

	// plain users cannot reach moderation routes
	w := env.do(t, "PUT", "/api/admin/comments/"+id+"/status",
		map[string]string{"status": "hidden"}, reqOpts{bearer: bearer})
	requireStatus(t, w, http.StatusForbidden)

	// invalid status value
	moderator := env.createUser(t, "mod@example.com", models.RoleModerator)
	modBearer := env.bearerFor(t, moderator)
	w = env.do(t, "PUT", "/api/admin/comments/"+id+"/status",
		map[string]string{"status": "vanished"}, reqOpts{bearer: modBearer})
	requireStatus(t, w, http.StatusBadRequest)

	// moderators can delete outright
	w = env.do(t, "DELETE", "/api/admin/comments/"+id, nil, reqOpts{bearer: modBearer})
	requireStatus(t, w, http.StatusOK)
	var count int64
	env.DB.Model(&models.Comment{}).Where("id = ?", id).Count(&count)
	if count != 0 {
		t.Errorf("expected comment row deleted")
	}
}
