package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/folio/internal/access"
	"github.com/folio/internal/db"
	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

var postOrderingFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

const postDefaultOrder = "created_at desc, id desc"

// PostService wraps post related database operations.
type PostService struct {
	db *gorm.DB
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title     string
	Content   string
	Published bool
}

// PostPatch carries the fields to change on update. Nil fields are left alone.
type PostPatch struct {
	Title     *string
	Content   *string
	Published *bool
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// List returns posts visible to actor, newest first unless filter.Ordering says otherwise.
func (s *PostService) List(actor access.Actor, filter ListFilter) (*ListResult[db.Post], error) {
	query := s.db.Model(&db.Post{}).Scopes(access.Scope(actor))
	if filter.Published != nil {
		query = query.Where("published = ?", *filter.Published)
	}
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	query = applySearch(query, filter.Search, "title", "content")

	order := orderClause(filter.Ordering, postOrderingFields, postDefaultOrder)
	result, err := paginate[db.Post](query.Session(&gorm.Session{}), order, filter.Page, filter.PageSize)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			return nil, err
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return result, nil
}

// ListByAuthor returns every post written by actor, drafts included.
func (s *PostService) ListByAuthor(actor access.Actor, filter ListFilter) (*ListResult[db.Post], error) {
	if !actor.Authenticated() {
		return nil, ErrAuthenticationRequired
	}

	query := s.db.Model(&db.Post{}).Where("author_id = ?", actor.UserID)
	result, err := paginate[db.Post](query.Session(&gorm.Session{}), postDefaultOrder, filter.Page, filter.PageSize)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			return nil, err
		}
		return nil, fmt.Errorf("list own posts: %w", err)
	}
	return result, nil
}

// Get fetches a post by id. Posts the actor may not see are reported as missing.
func (s *PostService) Get(actor access.Actor, id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Scopes(access.Scope(actor)).Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// Create persists a post authored by actor with a freshly assigned slug.
func (s *PostService) Create(actor access.Actor, input PostInput) (*db.Post, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthenticationRequired
	}

	verr := &ValidationError{}
	validateTitle(verr, input.Title)
	validateContent(verr, input.Content)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	postSlug, err := assignSlug(s.db, &db.Post{}, title)
	if err != nil {
		return nil, err
	}

	post := db.Post{
		Title:     title,
		Slug:      postSlug,
		Content:   input.Content,
		AuthorID:  actor.UserID,
		Published: input.Published,
	}
	if err := s.db.Create(&post).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	return s.reload(post.ID)
}

// Update applies patch to a post owned by actor. The slug never changes.
func (s *PostService) Update(actor access.Actor, id uint, patch PostPatch) (*db.Post, error) {
	post, err := s.loadForWrite(actor, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	updates := map[string]any{}
	if patch.Title != nil {
		validateTitle(verr, *patch.Title)
		updates["title"] = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		validateContent(verr, *patch.Content)
		updates["content"] = *patch.Content
	}
	if patch.Published != nil {
		updates["published"] = *patch.Published
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(post).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update post: %w", err)
		}
	}

	return s.reload(post.ID)
}

// Delete removes a post owned by actor.
func (s *PostService) Delete(actor access.Actor, id uint) error {
	post, err := s.loadForWrite(actor, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&db.Post{}, post.ID).Error; err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (s *PostService) loadForWrite(actor access.Actor, id uint) (*db.Post, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthenticationRequired
	}

	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	switch access.ForWrite(post, actor) {
	case access.Hidden:
		return nil, ErrPostNotFound
	case access.Forbidden:
		return nil, ErrForbidden
	}
	return &post, nil
}

func (s *PostService) reload(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("Author").First(&post, id).Error; err != nil {
		return nil, fmt.Errorf("reload post: %w", err)
	}
	return &post, nil
}
