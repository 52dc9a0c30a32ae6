package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfsync/internal/entities"
	"github.com/mrlokans/shelfsync/internal/realtime"
)

func setupRealtimeRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	store, err := realtime.NewStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	books := &fakeSyncer{books: map[string]entities.Book{"OL1W": catalogBook("OL1W", 4.0)}}
	favorites := NewFavoritesController(store, books)
	comments := NewCommentsController(store)

	router := gin.New()
	router.GET("/api/users/:uid/favorites", favorites.List)
	router.POST("/api/users/:uid/favorites/:bookId", favorites.Toggle)
	router.DELETE("/api/users/:uid/favorites/:bookId", favorites.Remove)
	router.GET("/api/books/:id/comments", comments.List)
	router.POST("/api/books/:id/comments", comments.Create)
	router.PUT("/api/books/:id/comments/:cid", comments.Update)
	router.DELETE("/api/books/:id/comments/:cid", comments.Delete)
	return router
}

func serveJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestFavoritesController(t *testing.T) {
	router := setupRealtimeRouter(t)

	w := serve(router, "POST", "/api/users/user-1/favorites/OL1W")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["favorite"])

	w = serve(router, "GET", "/api/users/user-1/favorites")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Favorites []entities.Favorite `json:"favorites"`
		Total     int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "OL1W", list.Favorites[0].BookID)
	assert.Equal(t, "Title OL1W", list.Favorites[0].Title)

	w = serve(router, "DELETE", "/api/users/user-1/favorites/OL1W")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, "DELETE", "/api/users/user-1/favorites/OL1W")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, "POST", "/api/users/user-1/favorites/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentsController(t *testing.T) {
	router := setupRealtimeRouter(t)

	t.Run("create and list", func(t *testing.T) {
		w := serveJSON(router, "POST", "/api/books/OL1W/comments", CommentRequest{
			UserID: "user-1", UserName: "  ", Text: "A sweeping desert epic.", Rating: 5,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		created := decode[entities.Comment](t, w)
		assert.Equal(t, "Anonymous", created.UserName)
		assert.NotEmpty(t, created.ID)

		w = serve(router, "GET", "/api/books/OL1W/comments")
		require.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Comments []entities.Comment `json:"comments"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list.Comments, 1)
		assert.Equal(t, created.ID, list.Comments[0].ID)
	})

	t.Run("invalid review reports field errors", func(t *testing.T) {
		w := serveJSON(router, "POST", "/api/books/OL1W/comments", CommentRequest{UserID: "user-1", Text: "short", Rating: 9})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Code    string                   `json:"code"`
			Details realtime.ValidationError `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_review", resp.Code)
		assert.NotEmpty(t, resp.Details.TextError)
		assert.NotEmpty(t, resp.Details.RatingError)
	})

	t.Run("missing user id", func(t *testing.T) {
		w := serveJSON(router, "POST", "/api/books/OL1W/comments", CommentRequest{Text: "Long enough review", Rating: 3})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("only the author may update or delete", func(t *testing.T) {
		w := serveJSON(router, "POST", "/api/books/OL1W/comments", CommentRequest{UserID: "author", Text: "First impressions here", Rating: 4})
		require.Equal(t, http.StatusCreated, w.Code)
		id := decode[entities.Comment](t, w).ID

		w = serveJSON(router, "PUT", "/api/books/OL1W/comments/"+id, CommentRequest{UserID: "intruder", Text: "Rewritten by someone else", Rating: 1})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = serveJSON(router, "PUT", "/api/books/OL1W/comments/"+id, CommentRequest{UserID: "author", Text: "Second thoughts, even better", Rating: 5})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 5, decode[entities.Comment](t, w).Rating)

		w = serve(router, "DELETE", "/api/books/OL1W/comments/"+id)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = serve(router, "DELETE", "/api/books/OL1W/comments/"+id+"?user_id=intruder")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = serve(router, "DELETE", "/api/books/OL1W/comments/"+id+"?user_id=author")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = serve(router, "DELETE", "/api/books/OL1W/comments/"+id+"?user_id=author")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
