package repository

import (
	"context"
	"fmt"

	"quill-blog-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id string) (*domain.User, error)
	FindByIdentifier(identifier string) (*domain.User, error)
	FindByUsernameOrEmail(username, email string) (*domain.User, error)
}

type userRepository struct {
	client *kivik.Client
	dbName string
}

func NewUserRepository(client *kivik.Client, dbName string) UserRepository {
	return &userRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *userRepository) Create(user *domain.User) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("user:%s", user.ID)
	_, err := db.Put(context.Background(), docID, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) FindByID(id string) (*domain.User, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("user:%s", id)
	row := db.Get(context.Background(), docID)

	var user domain.User
	if err := row.ScanDoc(&user); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return &user, nil
}

// FindByIdentifier matches the login identifier against username OR email,
// so the same field works for either.
func (r *userRepository) FindByIdentifier(identifier string) (*domain.User, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"$or": []map[string]interface{}{
				{"username": identifier},
				{"email": identifier},
			},
		},
		"limit": 1,
	}

	return r.findOne(query)
}

// FindByUsernameOrEmail returns an existing user colliding with either field.
// The caller inspects the returned record to see which one clashed.
func (r *userRepository) FindByUsernameOrEmail(username, email string) (*domain.User, error) {
	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"$or": []map[string]interface{}{
				{"username": username},
				{"email": email},
			},
		},
		"limit": 1,
	}

	return r.findOne(query)
}

func (r *userRepository) findOne(query map[string]interface{}) (*domain.User, error) {
	db := r.client.DB(r.dbName)

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	var user domain.User
	if err := rows.ScanDoc(&user); err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}
