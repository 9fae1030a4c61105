package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/folio/internal/access"
	"github.com/folio/internal/db"
	"gorm.io/gorm"
)

var ErrPageNotFound = errors.New("page not found")

var pageOrderingFields = map[string]string{
	"order":      "sort_order",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

const pageDefaultOrder = "sort_order asc, title asc, id asc"

// PageService provides access to static pages such as About or Contact.
type PageService struct {
	db *gorm.DB
}

// PageInput represents fields accepted when creating a page.
// ShowInNavigation defaults to true when nil.
type PageInput struct {
	Title            string
	Content          string
	MetaDescription  string
	Published        bool
	Order            int
	ShowInNavigation *bool
}

// PagePatch carries the fields to change on update. Nil fields are left alone.
type PagePatch struct {
	Title            *string
	Content          *string
	MetaDescription  *string
	Published        *bool
	Order            *int
	ShowInNavigation *bool
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// List returns pages visible to actor ordered by navigation order and title.
func (s *PageService) List(actor access.Actor, filter ListFilter) (*ListResult[db.Page], error) {
	query := s.db.Model(&db.Page{}).Scopes(access.Scope(actor))
	if filter.Published != nil {
		query = query.Where("published = ?", *filter.Published)
	}
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.ShowInNavigation != nil {
		query = query.Where("show_in_navigation = ?", *filter.ShowInNavigation)
	}
	query = applySearch(query, filter.Search, "title", "content", "meta_description")

	order := orderClause(filter.Ordering, pageOrderingFields, pageDefaultOrder)
	result, err := paginate[db.Page](query.Session(&gorm.Session{}), order, filter.Page, filter.PageSize)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			return nil, err
		}
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return result, nil
}

// ListByAuthor returns every page written by actor, drafts included.
func (s *PageService) ListByAuthor(actor access.Actor, filter ListFilter) (*ListResult[db.Page], error) {
	if !actor.Authenticated() {
		return nil, ErrAuthenticationRequired
	}

	query := s.db.Model(&db.Page{}).Where("author_id = ?", actor.UserID)
	result, err := paginate[db.Page](query.Session(&gorm.Session{}), pageDefaultOrder, filter.Page, filter.PageSize)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			return nil, err
		}
		return nil, fmt.Errorf("list own pages: %w", err)
	}
	return result, nil
}

// Navigation lists published pages flagged for the navigation menu.
func (s *PageService) Navigation() ([]db.Page, error) {
	var pages []db.Page
	if err := s.db.
		Where("published = ? AND show_in_navigation = ?", true, true).
		Order(pageDefaultOrder).
		Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("list navigation pages: %w", err)
	}
	return pages, nil
}

// GetBySlug fetches a page for a given slug. Pages the actor may not see are
// reported as missing.
func (s *PageService) GetBySlug(actor access.Actor, slug string) (*db.Page, error) {
	var page db.Page
	if err := s.db.Scopes(access.Scope(actor)).
		Preload("Author").
		Where("slug = ?", slug).
		First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return &page, nil
}

// Create persists a page authored by actor with a freshly assigned slug.
func (s *PageService) Create(actor access.Actor, input PageInput) (*db.Page, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthenticationRequired
	}

	verr := &ValidationError{}
	validateTitle(verr, input.Title)
	validateContent(verr, input.Content)
	validateMetaDescription(verr, input.MetaDescription)
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	showInNavigation := true
	if input.ShowInNavigation != nil {
		showInNavigation = *input.ShowInNavigation
	}

	title := strings.TrimSpace(input.Title)
	pageSlug, err := assignSlug(s.db, &db.Page{}, title)
	if err != nil {
		return nil, err
	}

	page := db.Page{
		Title:            title,
		Slug:             pageSlug,
		Content:          input.Content,
		MetaDescription:  strings.TrimSpace(input.MetaDescription),
		AuthorID:         actor.UserID,
		Published:        input.Published,
		Order:            input.Order,
		ShowInNavigation: showInNavigation,
	}
	if err := s.db.Create(&page).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("create page: %w", err)
	}

	return s.reload(page.ID)
}

// Update applies patch to a page owned by actor. The slug never changes.
func (s *PageService) Update(actor access.Actor, slug string, patch PagePatch) (*db.Page, error) {
	page, err := s.loadForWrite(actor, slug)
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
	if patch.MetaDescription != nil {
		validateMetaDescription(verr, *patch.MetaDescription)
		updates["meta_description"] = strings.TrimSpace(*patch.MetaDescription)
	}
	if patch.Published != nil {
		updates["published"] = *patch.Published
	}
	if patch.Order != nil {
		updates["sort_order"] = *patch.Order
	}
	if patch.ShowInNavigation != nil {
		updates["show_in_navigation"] = *patch.ShowInNavigation
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(page).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update page: %w", err)
		}
	}

	return s.reload(page.ID)
}

// Delete removes a page owned by actor.
func (s *PageService) Delete(actor access.Actor, slug string) error {
	page, err := s.loadForWrite(actor, slug)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&db.Page{}, page.ID).Error; err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

func (s *PageService) loadForWrite(actor access.Actor, slug string) (*db.Page, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthenticationRequired
	}

	var page db.Page
	if err := s.db.Where("slug = ?", slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("load page: %w", err)
	}

	switch access.ForWrite(page, actor) {
	case access.Hidden:
		return nil, ErrPageNotFound
	case access.Forbidden:
		return nil, ErrForbidden
	}
	return &page, nil
}

func (s *PageService) reload(id uint) (*db.Page, error) {
	var page db.Page
	if err := s.db.Preload("Author").First(&page, id).Error; err != nil {
		return nil, fmt.Errorf("reload page: %w", err)
	}
	return &page, nil
}

func validateMetaDescription(verr *ValidationError, value string) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > maxMetaDescriptionLength {
		verr.Add("meta_description", fmt.Sprintf("Ensure this field has no more than %d characters.", maxMetaDescriptionLength))
	}
}
