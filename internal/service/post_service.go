package service

import (
	"errors"
	"fmt"
	"time"

	"quill-blog-server/internal/domain"
	"quill-blog-server/internal/events"
	"quill-blog-server/internal/repository"

	"github.com/google/uuid"
)

const defaultPageLimit = 10

// FeedPublisher pushes post events to live subscribers. A nil publisher
// disables the feed; delivery failures never fail the originating request.
type FeedPublisher interface {
	Publish(eventType events.EventType, payload interface{})
}

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	feed     FeedPublisher
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, feed FeedPublisher) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		feed:     feed,
	}
}

func (s *PostService) Create(authorID string, req *domain.CreatePostRequest) (*domain.PostResponse, error) {
	now := time.Now()

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	post := &domain.Post{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Tags:        tags,
		AuthorID:    authorID,
		Comments:    []domain.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}

	resp, err := s.join(post)
	if err != nil {
		return nil, err
	}

	if s.feed != nil {
		s.feed.Publish(events.TypePostCreated, resp)
	}

	return resp, nil
}

func (s *PostService) List(page, limit int) (*domain.PostListResponse, error) {
	return s.list(repository.PostFilter{}, page, limit)
}

func (s *PostService) ListByTag(tag string, page, limit int) (*domain.PostListResponse, error) {
	return s.list(repository.PostFilter{Tag: tag}, page, limit)
}

func (s *PostService) ListByUser(authorID string, page, limit int) (*domain.PostListResponse, error) {
	return s.list(repository.PostFilter{AuthorID: authorID}, page, limit)
}

func (s *PostService) list(filter repository.PostFilter, page, limit int) (*domain.PostListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	skip := (page - 1) * limit

	posts, err := s.postRepo.List(filter, skip, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.postRepo.Count(filter)
	if err != nil {
		return nil, err
	}

	responses := make([]*domain.PostResponse, 0, len(posts))
	for _, post := range posts {
		resp, err := s.join(post)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return &domain.PostListResponse{
		Posts:       responses,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		TotalPosts:  total,
	}, nil
}

func (s *PostService) GetByID(postID string) (*domain.PostResponse, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	return s.join(post)
}

// Update applies only the fields the request explicitly carries. Only the
// author may update a post.
func (s *PostService) Update(userID, postID string, req *domain.UpdatePostRequest) (*domain.PostResponse, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.AuthorID != userID {
		return nil, ErrNotPostAuthor
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Description != nil {
		post.Description = *req.Description
	}
	if req.ImageURL != nil {
		post.ImageURL = *req.ImageURL
	}
	if req.Tags != nil {
		post.Tags = *req.Tags
	}
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(post); err != nil {
		return nil, err
	}

	resp, err := s.join(post)
	if err != nil {
		return nil, err
	}

	if s.feed != nil {
		s.feed.Publish(events.TypePostUpdated, resp)
	}

	return resp, nil
}

func (s *PostService) Delete(userID, postID string) error {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}

	if post.AuthorID != userID {
		return ErrNotPostAuthor
	}

	if err := s.postRepo.Delete(postID); err != nil {
		return err
	}

	if s.feed != nil {
		s.feed.Publish(events.TypePostDeleted, &events.PostDeletedPayload{PostID: postID})
	}

	return nil
}

// AddComment appends to the post's comment list. Any authenticated user may
// comment; there is no ownership check here.
func (s *PostService) AddComment(userID, postID string, req *domain.AddCommentRequest) (*domain.PostResponse, error) {
	if _, err := s.postRepo.FindByID(postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := domain.Comment{
		Text:        req.Text,
		CommenterID: userID,
		CreatedAt:   time.Now(),
	}

	if err := s.postRepo.AppendComment(postID, comment); err != nil {
		return nil, err
	}

	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, err
	}

	resp, err := s.join(post)
	if err != nil {
		return nil, err
	}

	if s.feed != nil {
		s.feed.Publish(events.TypeCommentAdded, resp)
	}

	return resp, nil
}

// join resolves the author and commenter references to their public fields.
// A dangling reference (deleted user) yields a nil author/commenter rather
// than an error; user deletion does not cascade into posts.
func (s *PostService) join(post *domain.Post) (*domain.PostResponse, error) {
	cache := make(map[string]*domain.User)

	lookup := func(id string) (*domain.User, error) {
		if user, ok := cache[id]; ok {
			return user, nil
		}
		user, err := s.userRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				cache[id] = nil
				return nil, nil
			}
			return nil, fmt.Errorf("failed to resolve user %s: %w", id, err)
		}
		cache[id] = user
		return user, nil
	}

	resp := &domain.PostResponse{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		ImageURL:    post.ImageURL,
		Tags:        post.Tags,
		Comments:    make([]domain.CommentResponse, 0, len(post.Comments)),
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}

	author, err := lookup(post.AuthorID)
	if err != nil {
		return nil, err
	}
	if author != nil {
		resp.Author = &domain.AuthorInfo{
			ID:       author.ID,
			Username: author.Username,
			Name:     author.Name,
			Email:    author.Email,
		}
	}

	for _, comment := range post.Comments {
		commenter, err := lookup(comment.CommenterID)
		if err != nil {
			return nil, err
		}

		cr := domain.CommentResponse{
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		}
		if commenter != nil {
			cr.Commenter = &domain.CommenterInfo{
				ID:       commenter.ID,
				Username: commenter.Username,
				Name:     commenter.Name,
			}
		}
		resp.Comments = append(resp.Comments, cr)
	}

	return resp, nil
}
