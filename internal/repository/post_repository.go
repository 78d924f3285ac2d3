package repository

import (
	"context"
	"fmt"
	"time"

	"quill-blog-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// PostFilter narrows listings. Zero values mean "no filter".
type PostFilter struct {
	Tag      string
	AuthorID string
}

type PostRepository interface {
	Create(post *domain.Post) error
	FindByID(id string) (*domain.Post, error)
	List(filter PostFilter, skip, limit int) ([]*domain.Post, error)
	Count(filter PostFilter) (int, error)
	Update(post *domain.Post) error
	AppendComment(postID string, comment domain.Comment) error
	Delete(id string) error
}

type postRepository struct {
	client *kivik.Client
	dbName string
}

func NewPostRepository(client *kivik.Client, dbName string) PostRepository {
	return &postRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *postRepository) Create(post *domain.Post) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("post:%s", post.ID)
	_, err := db.Put(context.Background(), docID, post)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

func (r *postRepository) FindByID(id string) (*domain.Post, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("post:%s", id)
	row := db.Get(context.Background(), docID)

	var post domain.Post
	if err := row.ScanDoc(&post); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return &post, nil
}

// postSelector builds the Mango selector for the filter. Posts share a
// database with users, so the title $exists clause keeps user docs out of
// the result.
func postSelector(filter PostFilter) map[string]interface{} {
	sel := map[string]interface{}{
		"title": map[string]interface{}{"$exists": true},
	}

	if filter.Tag != "" {
		sel["tags"] = map[string]interface{}{
			"$elemMatch": map[string]interface{}{"$eq": filter.Tag},
		}
	}
	if filter.AuthorID != "" {
		sel["author_id"] = filter.AuthorID
	}

	return sel
}

// docScanner is the slice of kivik.ResultSet that listing needs.
type docScanner interface {
	Next() bool
	ScanDoc(dest interface{}) error
	Err() error
}

// scanPosts drains the result set. A document that fails to scan aborts the
// whole page; a silently shortened page would corrupt pagination.
func scanPosts(rows docScanner) ([]*domain.Post, error) {
	var posts []*domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.ScanDoc(&post); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// List returns posts newest first. Sorting on created_at relies on the JSON
// index created at startup.
func (r *postRepository) List(filter PostFilter, skip, limit int) ([]*domain.Post, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": postSelector(filter),
		"sort":     []map[string]string{{"created_at": "desc"}},
		"skip":     skip,
		"limit":    limit,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// countPageSize bounds each counting query. _find silently caps queries
// without an explicit limit at 25 rows, so counting must page through the
// matches itself.
const countPageSize = 1000

// sumPages totals page counts until a short page signals exhaustion.
func sumPages(pageSize int, fetch func(skip, limit int) (int, error)) (int, error) {
	total := 0
	for skip := 0; ; skip += pageSize {
		n, err := fetch(skip, pageSize)
		if err != nil {
			return 0, err
		}
		total += n
		if n < pageSize {
			return total, nil
		}
	}
}

func (r *postRepository) Count(filter PostFilter) (int, error) {
	db := r.client.DB(r.dbName)

	return sumPages(countPageSize, func(skip, limit int) (int, error) {
		query := map[string]interface{}{
			"selector": postSelector(filter),
			"fields":   []string{"_id"},
			"skip":     skip,
			"limit":    limit,
		}

		rows := db.Find(context.Background(), query)
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("failed to count posts: %w", err)
		}
		defer rows.Close()

		n := 0
		for rows.Next() {
			n++
		}
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("failed to count posts: %w", err)
		}

		return n, nil
	})
}

func (r *postRepository) Update(post *domain.Post) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("post:%s", post.ID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return fmt.Errorf("post %s: %w", post.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch existing post for update: %w", err)
	}

	existingDoc["title"] = post.Title
	existingDoc["description"] = post.Description
	existingDoc["img_url"] = post.ImageURL
	existingDoc["tags"] = post.Tags
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return nil
}

// AppendComment is a single fetch-modify-Put on the post document. CouchDB's
// per-document atomicity means two concurrent appends cannot both win the
// same _rev; the loser surfaces a conflict error instead of dropping silently.
func (r *postRepository) AppendComment(postID string, comment domain.Comment) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("post:%s", postID)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch post for comment append: %w", err)
	}

	comments, _ := existingDoc["comments"].([]interface{})
	comments = append(comments, map[string]interface{}{
		"text":         comment.Text,
		"commenter_id": comment.CommenterID,
		"created_at":   comment.CreatedAt,
	})
	existingDoc["comments"] = comments
	existingDoc["updated_at"] = time.Now()

	_, err := db.Put(context.Background(), docID, existingDoc)
	if err != nil {
		return fmt.Errorf("failed to append comment: %w", err)
	}

	return nil
}

// Delete removes the document outright; embedded comments go with it.
func (r *postRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("post:%s", id)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch post for delete: %w", err)
	}

	rev, _ := existingDoc["_rev"].(string)
	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}
