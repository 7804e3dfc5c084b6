// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"log"
	"math/rand"
	"time"

	"banana/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	log.Printf("✅ Created %d users", len(users))

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[r.Intn(len(users))]
		post, err := f.CreatePost(author)
		if err != nil {
			return err
		}
		posts = append(posts, post)
	}
	log.Printf("✅ Created %d posts", len(posts))

	comments := 0
	for _, post := range posts {
		n := r.Intn(6)
		for i := 0; i < n; i++ {
			commenter := users[r.Intn(len(users))]
			if _, err := f.CreateComment(commenter, post); err != nil {
				return err
			}
			comments++
		}
	}
	log.Printf("✅ Created %d comments", comments)

	return nil
}

// clearData removes existing rows, children first so foreign keys hold.
func clearData(db *gorm.DB) error {
	for _, model := range []any{&models.Comment{}, &models.Post{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
