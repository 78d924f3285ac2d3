package domain

import "time"

type Comment struct {
	Text        string    `json:"text"`
	CommenterID string    `json:"commenter_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"img_url"`
	Tags        []string  `json:"tags"`
	AuthorID    string    `json:"author_id"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	ImageURL    string   `json:"img_url" validate:"required"`
	Tags        []string `json:"tags"`
}

// UpdatePostRequest uses pointers so the handler can tell "field omitted"
// apart from "field explicitly set to empty". Nil leaves the stored value
// untouched; an empty string or empty slice is a valid overwrite.
type UpdatePostRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"img_url"`
	Tags        *[]string `json:"tags"`
}

type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

type CommentResponse struct {
	Text      string         `json:"text"`
	Commenter *CommenterInfo `json:"commenter"`
	CreatedAt time.Time      `json:"created_at"`
}

// PostResponse is the joined form: author and commenter references resolved
// to their public fields.
type PostResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ImageURL    string            `json:"img_url"`
	Tags        []string          `json:"tags"`
	Author      *AuthorInfo       `json:"author"`
	Comments    []CommentResponse `json:"comments"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type PostListResponse struct {
	Posts       []*PostResponse `json:"posts"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
	TotalPosts  int             `json:"totalPosts"`
}
