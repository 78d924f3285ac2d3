package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quill-blog-server/internal/config"
	"quill-blog-server/internal/events"
	"quill-blog-server/internal/handler"
	"quill-blog-server/internal/middleware"
	"quill-blog-server/internal/repository"
	"quill-blog-server/internal/service"
	"quill-blog-server/pkg/cookies"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		log.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
		log.Printf("Created database: %s", cfg.Database.Name)
	}

	// Newest-first listing sorts on created_at, which needs a JSON index.
	db := client.DB(cfg.Database.Name)
	index := map[string]interface{}{
		"fields": []string{"created_at"},
	}
	if err := db.CreateIndex(context.Background(), "posts", "by-created-at", index); err != nil {
		log.Fatalf("Failed to create created_at index: %v", err)
	}

	userRepo := repository.NewUserRepository(client, cfg.Database.Name)
	postRepo := repository.NewPostRepository(client, cfg.Database.Name)

	feed := events.NewManager(
		cfg.Feed.MaxConnPerUser,
		cfg.Feed.WriteWait,
		cfg.Feed.PongWait,
		cfg.Feed.PingPeriod,
	)
	go feed.Run()

	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiration,
		cfg.JWT.RefreshExpiration,
	)
	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, userRepo, feed)

	cookieManager := cookies.NewManager(
		cfg.Server.IsProduction(),
		cfg.JWT.AccessExpiration,
		cfg.JWT.RefreshExpiration,
	)

	authHandler := handler.NewAuthHandler(authService, cookieManager)
	userHandler := handler.NewUserHandler(userService)
	postHandler := handler.NewPostHandler(postService)
	eventsHandler := handler.NewEventsHandler(
		feed,
		cfg.JWT.AccessSecret,
		cfg.Feed.ReadBufferSize,
		cfg.Feed.WriteBufferSize,
	)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/refresh-token", authHandler.Refresh).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWT.AccessSecret))

	protected.HandleFunc("/auth/user", userHandler.GetProfile).Methods("GET", "OPTIONS")

	protected.HandleFunc("/posts", postHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/posts", postHandler.List).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts/tags/{tag}", postHandler.ListByTag).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts/user/{userId}", postHandler.ListByUser).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts/{id}", postHandler.Get).Methods("GET", "OPTIONS")
	protected.HandleFunc("/posts/{id}", postHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/posts/{id}", postHandler.Delete).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/posts/{id}/comments", postHandler.AddComment).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", eventsHandler.HandleConnection)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Quill Blog Server on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"quill-blog-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Quill Blog API","version":"1.0.0","endpoints":{"/api/v1/auth/register":"POST","/api/v1/auth/login":"POST","/api/v1/auth/refresh-token":"POST","/api/v1/posts":"GET/POST (protected)"}}`))
}
