package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"blog-api/middlewares"
	"blog-api/models"
	"blog-api/validation"

	"github.com/gorilla/mux"
)

// PostRepository is everything the blog handlers need from storage.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	GetOwned(ctx context.Context, id, authorID int64) (*models.Post, error)
	Save(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, post *models.Post) error
}

// Unauthenticated mutations answer 200 with this body rather than 401.
var errNotAuthenticated = map[string]string{"Error": "You must be authenticated"}

var deleted = map[string]bool{"Blog post successfully deleted": true}

type PostHandler struct {
	Posts PostRepository
	Log   *slog.Logger
}

func (h *PostHandler) SetupPostRoutes(r *mux.Router) {
	blogRouter := r.PathPrefix("/blog").Subrouter()
	blogRouter.HandleFunc("/new_blog_post", h.CreatePost).Methods(http.MethodPost)
	blogRouter.HandleFunc("/blog_posts", h.ListPosts).Methods(http.MethodGet)
	blogRouter.HandleFunc("/blog_post/{id:[0-9]+}", h.GetPost).Methods(http.MethodGet)
	blogRouter.HandleFunc("/blog_post/{id:[0-9]+}", h.UpdatePost).Methods(http.MethodPut)
	blogRouter.HandleFunc("/blog_post/{id:[0-9]+}", h.DeletePost).Methods(http.MethodDelete)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodePostIn(w, r)
	if !ok {
		return
	}

	user, ok := middlewares.CurrentUserFrom(r.Context())
	if !ok {
		middlewares.RespondJSON(w, errNotAuthenticated, http.StatusOK)
		return
	}

	post := &models.Post{AuthorID: user.ID}
	in.ApplyTo(post)
	if err := h.Posts.Create(r.Context(), post); err != nil {
		middlewares.HttpError(w, h.Log, "Failed to create post", http.StatusInternalServerError, err)
		return
	}

	h.Log.Info("post created", "post_id", post.ID, "author", post.AuthorID)
	middlewares.RespondJSON(w, models.NewPostOut(post), http.StatusOK)
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Posts.List(r.Context())
	if err != nil {
		middlewares.HttpError(w, h.Log, "Failed to fetch posts", http.StatusInternalServerError, err)
		return
	}

	middlewares.RespondJSON(w, models.NewPostOutList(posts), http.StatusOK)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.Posts.Get(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, err)
		return
	}

	middlewares.RespondJSON(w, models.NewPostOut(post), http.StatusOK)
}

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	in, ok := h.decodePostIn(w, r)
	if !ok {
		return
	}

	user, ok := middlewares.CurrentUserFrom(r.Context())
	if !ok {
		middlewares.RespondJSON(w, errNotAuthenticated, http.StatusOK)
		return
	}

	post, err := h.Posts.GetOwned(r.Context(), id, user.ID)
	if err != nil {
		h.lookupFailed(w, err)
		return
	}

	in.ApplyTo(post)
	if err := h.Posts.Save(r.Context(), post); err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			middlewares.NotFound(w)
			return
		}
		middlewares.HttpError(w, h.Log, "Failed to update post", http.StatusInternalServerError, err)
		return
	}

	middlewares.RespondJSON(w, models.NewPostOut(post), http.StatusOK)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	user, ok := middlewares.CurrentUserFrom(r.Context())
	if !ok {
		middlewares.RespondJSON(w, errNotAuthenticated, http.StatusOK)
		return
	}

	post, err := h.Posts.GetOwned(r.Context(), id, user.ID)
	if err != nil {
		h.lookupFailed(w, err)
		return
	}

	if err := h.Posts.Delete(r.Context(), post); err != nil {
		if errors.Is(err, models.ErrPostNotFound) {
			middlewares.NotFound(w)
			return
		}
		middlewares.HttpError(w, h.Log, "Failed to delete post", http.StatusInternalServerError, err)
		return
	}

	h.Log.Info("post deleted", "post_id", post.ID, "author", post.AuthorID)
	middlewares.RespondJSON(w, deleted, http.StatusOK)
}

func (h *PostHandler) decodePostIn(w http.ResponseWriter, r *http.Request) (models.PostIn, bool) {
	var payload models.PostPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		middlewares.HttpError(w, h.Log, "Invalid JSON payload", http.StatusUnprocessableEntity, err)
		return models.PostIn{}, false
	}
	if err := validation.ValidatePostPayload(payload); err != nil {
		middlewares.HttpError(w, h.Log, err.Error(), http.StatusUnprocessableEntity, err)
		return models.PostIn{}, false
	}
	return payload.PostIn(), true
}

func (h *PostHandler) lookupFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrPostNotFound) {
		middlewares.NotFound(w)
		return
	}
	middlewares.HttpError(w, h.Log, "Failed to fetch post", http.StatusInternalServerError, err)
}

// postID parses the {id} route variable. The route pattern already
// restricts it to digits, so only overflow can fail here.
func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		middlewares.NotFound(w)
		return 0, false
	}
	return id, true
}
