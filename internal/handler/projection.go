package handler

import (
	"bytes"
	"html"
	"time"

	"github.com/folio/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// OperationKind selects the JSON shape used for an entity in a response.
type OperationKind int

const (
	OpList OperationKind = iota
	OpCreate
	OpRetrieve
	OpUpdate
	OpDelete
)

func (k OperationKind) String() string {
	switch k {
	case OpList:
		return "list"
	case OpCreate:
		return "create"
	case OpRetrieve:
		return "retrieve"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderMarkdown converts markdown to sanitized HTML.
func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "<p>" + html.EscapeString(content) + "</p>"
	}
	return sanitizer.Sanitize(buf.String())
}

type authorView struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type userView struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

type postListView struct {
	ID        uint       `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Author    authorView `json:"author"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type postDetailView struct {
	postListView
	Content     string `json:"content"`
	ContentHTML string `json:"content_html"`
}

type pageListView struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	MetaDescription  string     `json:"meta_description"`
	Author           authorView `json:"author"`
	Published        bool       `json:"published"`
	Order            int        `json:"order"`
	ShowInNavigation bool       `json:"show_in_navigation"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type pageDetailView struct {
	pageListView
	Content     string `json:"content"`
	ContentHTML string `json:"content_html"`
}

type navigationPageView struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Order int    `json:"order"`
}

func newAuthorView(u db.User) authorView {
	return authorView{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

func newUserView(u *db.User) userView {
	return userView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.CreatedAt,
	}
}

// projectPost returns the representation of p for op. Deletes have no body.
func projectPost(op OperationKind, p *db.Post) any {
	list := postListView{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Author:    newAuthorView(p.Author),
		Published: p.Published,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	switch op {
	case OpList:
		return list
	case OpCreate, OpRetrieve, OpUpdate:
		return postDetailView{postListView: list, Content: p.Content, ContentHTML: renderMarkdown(p.Content)}
	default:
		return nil
	}
}

// projectPage returns the representation of p for op. Deletes have no body.
func projectPage(op OperationKind, p *db.Page) any {
	list := pageListView{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		MetaDescription:  p.MetaDescription,
		Author:           newAuthorView(p.Author),
		Published:        p.Published,
		Order:            p.Order,
		ShowInNavigation: p.ShowInNavigation,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	switch op {
	case OpList:
		return list
	case OpCreate, OpRetrieve, OpUpdate:
		return pageDetailView{pageListView: list, Content: p.Content, ContentHTML: renderMarkdown(p.Content)}
	default:
		return nil
	}
}

func projectNavigation(pages []db.Page) []navigationPageView {
	views := make([]navigationPageView, 0, len(pages))
	for _, p := range pages {
		views = append(views, navigationPageView{ID: p.ID, Title: p.Title, Slug: p.Slug, Order: p.Order})
	}
	return views
}

func projectPosts(posts []db.Post) []any {
	views := make([]any, 0, len(posts))
	for i := range posts {
		views = append(views, projectPost(OpList, &posts[i]))
	}
	return views
}

func projectPages(pages []db.Page) []any {
	views := make([]any, 0, len(pages))
	for i := range pages {
		views = append(views, projectPage(OpList, &pages[i]))
	}
	return views
}
