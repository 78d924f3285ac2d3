package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Seeds a running server with fake users, posts and comments. Sessions ride
// in cookies, so each user gets its own cookie-jarred client.

const defaultPassword = "Password123!"

var baseURL = "http://localhost:4000/api/v1"

var tagPool = []string{"go", "travel", "food", "music", "photography", "coding", "books", "fitness"}

type seededUser struct {
	Username string
	client   *http.Client
}

func main() {
	if v := os.Getenv("SEED_BASE_URL"); v != "" {
		baseURL = v
	}

	gofakeit.Seed(time.Now().UnixNano())

	var users []*seededUser
	for i := 0; i < 5; i++ {
		user, err := registerUser()
		if err != nil {
			log.Fatalf("Could not register user: %v", err)
		}
		users = append(users, user)
	}

	var postIDs []string
	for _, user := range users {
		for i := 0; i < 3; i++ {
			id, err := createPost(user)
			if err != nil {
				log.Printf("Could not create post for %s: %v", user.Username, err)
				continue
			}
			postIDs = append(postIDs, id)
		}
	}

	for _, postID := range postIDs {
		commenter := users[gofakeit.Number(0, len(users)-1)]
		if err := addComment(commenter, postID); err != nil {
			log.Printf("Could not comment on %s: %v", postID, err)
		}
	}

	log.Printf("Seeded %d users, %d posts", len(users), len(postIDs))
}

func registerUser() (*seededUser, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	username := gofakeit.Username()
	payload := map[string]string{
		"username": username,
		"name":     gofakeit.Name(),
		"email":    gofakeit.Email(),
		"password": defaultPassword,
	}

	if err := postJSON(client, "/auth/register", payload, nil); err != nil {
		return nil, err
	}

	log.Printf("Registered user %s", username)
	return &seededUser{Username: username, client: client}, nil
}

func createPost(user *seededUser) (string, error) {
	tags := []string{
		tagPool[gofakeit.Number(0, len(tagPool)-1)],
		tagPool[gofakeit.Number(0, len(tagPool)-1)],
	}

	payload := map[string]interface{}{
		"title":       gofakeit.Sentence(5),
		"description": gofakeit.Paragraph(1, 3, 10, " "),
		"img_url":     gofakeit.ImageURL(640, 480),
		"tags":        tags,
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	if err := postJSON(user.client, "/posts", payload, &result); err != nil {
		return "", err
	}

	log.Printf("Created post %s by %s", result.Data.ID, user.Username)
	return result.Data.ID, nil
}

func addComment(user *seededUser, postID string) error {
	payload := map[string]string{
		"text": gofakeit.Sentence(8),
	}

	return postJSON(user.client, "/posts/"+postID+"/comments", payload, nil)
}

func postJSON(client *http.Client, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}

	return nil
}
