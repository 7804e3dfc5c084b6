package server

import (
	"context"
	"testing"

	"banana/internal/auth"
	"banana/internal/cache"
	"banana/internal/config"
	"banana/internal/models"
	"banana/internal/repository"
	"banana/internal/storage"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubProvider is a canned OAuth provider for handler tests.
type stubProvider struct {
	name    string
	profile *auth.Profile
	err     error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) AuthURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, _, _ string) (*auth.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	images, err := storage.NewImageStore(t.TempDir(), "/uploads", 10)
	if err != nil {
		t.Fatalf("image store: %v", err)
	}

	return &Server{
		config: &config.Config{
			Port:         "8375",
			Env:          "test",
			JWTSecret:    "test-secret",
			FrontPageURL: "http://127.0.0.1:5500/baNaNa/index.html",
		},
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		providers: map[string]auth.Provider{
			"kakao": &stubProvider{
				name: "kakao",
				profile: &auth.Profile{
					Provider: "kakao",
					SocialID: "12345",
					Name:     "홍길동",
					Email:    "hong@example.com",
				},
			},
		},
		tokens: auth.NewTokenIssuer("test-secret"),
		states: auth.NewStateStore(nil),
		images: images,
		cache:  cache.New(nil),
	}
}

func createUser(t *testing.T, s *Server, name string) *models.User {
	t.Helper()
	user := &models.User{Provider: "kakao", SocialID: name, Name: name, Email: name + "@example.com"}
	if err := s.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func sessionFor(t *testing.T, s *Server, userID uint) string {
	t.Helper()
	token, err := s.tokens.Mint(userID)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
