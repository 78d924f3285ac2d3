package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quill-blog-server/internal/domain"
	"quill-blog-server/internal/middleware"
	"quill-blog-server/internal/service"
	"quill-blog-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type PostHandler struct {
	postService *service.PostService
	validator   *validator.Validate
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
		validator:   validator.New(),
	}
}

// pagination reads page/limit query params with the listing defaults.
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func (h *PostHandler) writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, service.ErrNotPostAuthor):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	post, err := h.postService.Create(middleware.GetUserID(r), &req)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	response.Message(w, http.StatusCreated, "Post created successfully", post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	list, err := h.postService.List(page, limit)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	response.Success(w, list)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]

	post, err := h.postService.GetByID(postID)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	response.Success(w, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]

	var req domain.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Update(middleware.GetUserID(r), postID, &req)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	response.Message(w, http.StatusOK, "Post updated successfully", post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]

	if err := h.postService.Delete(middleware.GetUserID(r), postID); err != nil {
		h.writePostError(w, err)
		return
	}

	response.Message(w, http.StatusOK, "Post deleted successfully", nil)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["id"]

	var req domain.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "Comment text is required")
		return
	}

	post, err := h.postService.AddComment(middleware.GetUserID(r), postID, &req)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	response.Message(w, http.StatusCreated, "Comment added successfully", post)
}

func (h *PostHandler) ListByTag(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	page, limit := pagination(r)

	list, err := h.postService.ListByTag(tag, page, limit)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	response.Success(w, list)
}

func (h *PostHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	page, limit := pagination(r)

	list, err := h.postService.ListByUser(userID, page, limit)
	if err != nil {
		h.writePostError(w, err)
		return
	}

	response.Success(w, list)
}
