package main

import (
	"fmt"

	"github.com/folio/internal/access"
	"github.com/folio/internal/db"
	"github.com/folio/internal/service"
	"gorm.io/gorm"
)

type demoUser struct {
	Username string
	Email    string
	Password string
}

var demoUsers = []demoUser{
	{Username: "admin", Email: "admin@example.com", Password: "admin12345"},
	{Username: "writer", Email: "writer@example.com", Password: "writer12345"},
}

var demoPages = []service.PageInput{
	{Title: "About Us", Content: "# About Us\n\nWe write about software.", MetaDescription: "Who we are", Published: true, Order: 1},
	{Title: "Contact", Content: "Reach us at hello@example.com.", Published: true, Order: 2},
	{Title: "Terms of Service", Content: "Be kind.", Published: true, Order: 3, ShowInNavigation: ptr(false)},
	{Title: "Roadmap", Content: "Draft roadmap.", Order: 4},
}

var demoPosts = []service.PostInput{
	{Title: "Hello, World", Content: "The first post.", Published: true},
	{Title: "Working with Go modules", Content: "```go\nmodule example.com/demo\n```", Published: true},
	{Title: "Notes for next week", Content: "- outline\n- draft"},
}

type seedSummary struct {
	Users int
	Pages int
	Posts int
}

// seed 创建演示账号、页面与文章；已有内容时跳过，可重复执行
func seed(gdb *gorm.DB) (seedSummary, error) {
	var summary seedSummary

	for _, u := range demoUsers {
		created, err := db.EnsureUser(gdb, u.Username, u.Email, u.Password)
		if err != nil {
			return summary, fmt.Errorf("create user %s: %w", u.Username, err)
		}
		if created {
			summary.Users++
		}
	}

	var author db.User
	if err := gdb.Where("username = ?", demoUsers[0].Username).First(&author).Error; err != nil {
		return summary, fmt.Errorf("load author: %w", err)
	}
	actor := access.User(author.ID)

	var count int64
	if err := gdb.Model(&db.Page{}).Count(&count).Error; err != nil {
		return summary, err
	}
	if count == 0 {
		pages := service.NewPageService(gdb)
		for _, input := range demoPages {
			if _, err := pages.Create(actor, input); err != nil {
				return summary, fmt.Errorf("create page %q: %w", input.Title, err)
			}
			summary.Pages++
		}
	}

	if err := gdb.Model(&db.Post{}).Count(&count).Error; err != nil {
		return summary, err
	}
	if count == 0 {
		posts := service.NewPostService(gdb)
		for _, input := range demoPosts {
			if _, err := posts.Create(actor, input); err != nil {
				return summary, fmt.Errorf("create post %q: %w", input.Title, err)
			}
			summary.Posts++
		}
	}

	return summary, nil
}

func ptr[T any](v T) *T { return &v }
