package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/folio/internal/slug"
	"gorm.io/gorm"
)

var (
	ErrForbidden              = errors.New("only the author may modify this entry")
	ErrSlugConflict           = errors.New("slug already taken")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInvalidPage            = errors.New("invalid page")
)

const (
	maxTitleLength           = 200
	maxMetaDescriptionLength = 160
	defaultPageSize          = 10
)

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// errOrNil returns e as an error only when it holds messages.
func (e *ValidationError) errOrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ListFilter narrows and pages list queries. Nil pointers mean "no filter".
type ListFilter struct {
	Published        *bool
	AuthorID         *uint
	ShowInNavigation *bool
	Search           string
	Ordering         string
	Page             int
	PageSize         int
}

// ListResult is one page of a list query.
type ListResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// HasNext reports whether another page follows this one.
func (r *ListResult[T]) HasNext() bool { return r.Page < r.TotalPages }

// HasPrevious reports whether a page precedes this one.
func (r *ListResult[T]) HasPrevious() bool { return r.Page > 1 }

func validateTitle(verr *ValidationError, title string) {
	trimmed := strings.TrimSpace(title)
	switch {
	case trimmed == "":
		verr.Add("title", "This field may not be blank.")
	case utf8.RuneCountInString(trimmed) > maxTitleLength:
		verr.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
	}
}

func validateContent(verr *ValidationError, content string) {
	if strings.TrimSpace(content) == "" {
		verr.Add("content", "This field may not be blank.")
	}
}

// assignSlug picks a free slug for title among rows of model.
func assignSlug(tx *gorm.DB, model any, title string) (string, error) {
	return slug.Unique(title, func(candidate string) (bool, error) {
		var count int64
		if err := tx.Model(model).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return false, fmt.Errorf("check slug %q: %w", candidate, err)
		}
		return count > 0, nil
	})
}

// isUniqueViolation recognizes unique-constraint failures whether or not the
// driver error was translated.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// applySearch requires every whitespace separated term to match at least one column.
func applySearch(query *gorm.DB, search string, columns ...string) *gorm.DB {
	terms := strings.FieldsFunc(search, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	for _, term := range terms {
		pattern := "%" + escapeLike(term) + "%"
		clauses := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))
		for _, column := range columns {
			clauses = append(clauses, column+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return query
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// orderClause turns a comma separated ordering parameter into SQL using only
// whitelisted fields. Unknown fields are ignored; fallback is always appended.
func orderClause(ordering string, allowed map[string]string, fallback string) string {
	parts := make([]string, 0, 4)
	seen := make(map[string]bool)
	for _, raw := range strings.Split(ordering, ",") {
		field := strings.TrimSpace(raw)
		direction := "asc"
		if strings.HasPrefix(field, "-") {
			direction = "desc"
			field = strings.TrimPrefix(field, "-")
		}
		column, ok := allowed[field]
		if !ok || seen[column] {
			continue
		}
		seen[column] = true
		parts = append(parts, column+" "+direction)
	}
	if fallback != "" {
		parts = append(parts, fallback)
	}
	return strings.Join(parts, ", ")
}

// paginate counts and fetches one page. query must be reusable (see gorm.Session).
func paginate[T any](query *gorm.DB, order string, page, pageSize int) (*ListResult[T], error) {
	result := &ListResult[T]{Page: page, PageSize: pageSize}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PageSize <= 0 {
		result.PageSize = defaultPageSize
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PageSize) - 1) / int64(result.PageSize))
	}
	if result.Page > result.TotalPages {
		return nil, ErrInvalidPage
	}

	offset := (result.Page - 1) * result.PageSize
	items := make([]T, 0, result.PageSize)
	if err := query.Preload("Author").Order(order).Limit(result.PageSize).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}

	result.Items = items
	return result, nil
}
