package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/shelfsync/internal/realtime"
)

// FavoritesController handles per-user favorites.
type FavoritesController struct {
	store FavoritesStore
	books BookGetter
}

// NewFavoritesController creates a new FavoritesController.
func NewFavoritesController(store FavoritesStore, books BookGetter) *FavoritesController {
	return &FavoritesController{store: store, books: books}
}

// List handles GET /api/users/:uid/favorites
func (fc *FavoritesController) List(c *gin.Context) {
	favorites, err := fc.store.Favorites(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondInternalError(c, err, "load favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "total": len(favorites)})
}

// Toggle handles POST /api/users/:uid/favorites/:bookId
// Adds the book when it is not a favorite yet and removes it otherwise.
func (fc *FavoritesController) Toggle(c *gin.Context) {
	ctx := c.Request.Context()
	book, err := fc.books.Book(ctx, c.Param("bookId"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "load book")
		return
	}

	favorite, err := fc.store.ToggleFavorite(ctx, c.Param("uid"), *book)
	if err != nil {
		respondInternalError(c, err, "toggle favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": book.ID, "favorite": favorite})
}

// Remove handles DELETE /api/users/:uid/favorites/:bookId
func (fc *FavoritesController) Remove(c *gin.Context) {
	ctx := c.Request.Context()
	userID, bookID := c.Param("uid"), c.Param("bookId")

	removed, err := fc.store.RemoveFavorite(ctx, userID, bookID)
	if err != nil {
		respondInternalError(c, err, "remove favorite")
		return
	}
	if !removed {
		respondNotFound(c, "favorite")
		return
	}
	c.Status(http.StatusNoContent)
}

// CommentRequest is the body of comment create and update calls.
type CommentRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	UserName string `json:"user_name"`
	Text     string `json:"text"`
	Rating   int    `json:"rating"`
}

// CommentsController handles book reviews.
type CommentsController struct {
	store CommentsStore
}

// NewCommentsController creates a new CommentsController.
func NewCommentsController(store CommentsStore) *CommentsController {
	return &CommentsController{store: store}
}

// List handles GET /api/books/:id/comments
func (cc *CommentsController) List(c *gin.Context) {
	comments, err := cc.store.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondInternalError(c, err, "load comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "total": len(comments)})
}

// Create handles POST /api/books/:id/comments
func (cc *CommentsController) Create(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	comment, err := cc.store.AddComment(c.Request.Context(), c.Param("id"), req.UserID, req.UserName, req.Text, req.Rating)
	if err != nil {
		respondCommentError(c, err)
		return
	}
	respondCreated(c, comment)
}

// Update handles PUT /api/books/:id/comments/:cid
func (cc *CommentsController) Update(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	comment, err := cc.store.UpdateComment(c.Request.Context(), c.Param("id"), c.Param("cid"), req.UserID, req.Text, req.Rating)
	if err != nil {
		respondCommentError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /api/books/:id/comments/:cid?user_id=
func (cc *CommentsController) Delete(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		respondBadRequest(c, "user_id is required")
		return
	}

	if err := cc.store.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("cid"), userID); err != nil {
		respondCommentError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondCommentError(c *gin.Context, err error) {
	var verr *realtime.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid review", Code: "invalid_review", Details: verr})
	case errors.Is(err, realtime.ErrNotOwner):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, realtime.ErrNotFound):
		respondNotFound(c, "comment")
	default:
		respondInternalError(c, err, "comment")
	}
}
