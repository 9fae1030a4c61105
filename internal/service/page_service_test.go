package service

import (
	"strings"
	"testing"

	"github.com/folio/internal/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePageAboutUsTwice(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	svc := NewPageService(gdb)

	first, err := svc.Create(alice, PageInput{Title: "About Us", Content: "About our company"})
	require.NoError(t, err)
	assert.Equal(t, "about-us", first.Slug)
	assert.True(t, first.ShowInNavigation, "navigation flag defaults to true")
	assert.False(t, first.Published)
	assert.Zero(t, first.Order)

	second, err := svc.Create(alice, PageInput{Title: "About Us", Content: "Again"})
	require.NoError(t, err)
	assert.Equal(t, "about-us-1", second.Slug)
}

func TestCreatePageStoresOptionalFields(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	svc := NewPageService(gdb)

	page, err := svc.Create(alice, PageInput{
		Title:            "Terms",
		Content:          "Be nice",
		MetaDescription:  "  Terms of service  ",
		Published:        true,
		Order:            3,
		ShowInNavigation: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Terms of service", page.MetaDescription)
	assert.Equal(t, 3, page.Order)
	assert.False(t, page.ShowInNavigation)
	assert.True(t, page.Published)
}

func TestCreatePageRejectsLongMetaDescription(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	svc := NewPageService(gdb)

	_, err := svc.Create(alice, PageInput{Title: "x", Content: "y", MetaDescription: strings.Repeat("m", 161)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "meta_description")
}

func TestPageSlugsAreScopedToPages(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")

	post, err := NewPostService(gdb).Create(alice, PostInput{Title: "Contact", Content: "x"})
	require.NoError(t, err)
	page, err := NewPageService(gdb).Create(alice, PageInput{Title: "Contact", Content: "x"})
	require.NoError(t, err)

	assert.Equal(t, "contact", post.Slug)
	assert.Equal(t, "contact", page.Slug)
}

func TestUpdatePageKeepsSlugAndAppliesPatch(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	svc := NewPageService(gdb)

	page, err := svc.Create(alice, PageInput{Title: "About Us", Content: "v1", Order: 2})
	require.NoError(t, err)

	updated, err := svc.Update(alice, page.Slug, PagePatch{
		Title:            ptr("About The Team"),
		Order:            ptr(0),
		ShowInNavigation: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "about-us", updated.Slug)
	assert.Equal(t, "About The Team", updated.Title)
	assert.Equal(t, "v1", updated.Content)
	assert.Zero(t, updated.Order)
	assert.False(t, updated.ShowInNavigation)

	got, err := svc.GetBySlug(alice, "about-us")
	require.NoError(t, err)
	assert.Equal(t, updated.ID, got.ID)
}

func TestPageWriteAuthorization(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	svc := NewPageService(gdb)

	draft, err := svc.Create(alice, PageInput{Title: "Draft", Content: "x"})
	require.NoError(t, err)
	public, err := svc.Create(alice, PageInput{Title: "Public", Content: "x", Published: true})
	require.NoError(t, err)

	_, err = svc.Update(bob, draft.Slug, PagePatch{Content: ptr("y")})
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = svc.Update(bob, public.Slug, PagePatch{Content: ptr("y")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Delete(bob, public.Slug), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(alice, "missing"), ErrPageNotFound)

	require.NoError(t, svc.Delete(alice, public.Slug))
	_, err = svc.GetBySlug(access.Anonymous(), public.Slug)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestGetPageBySlugHonoursVisibility(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	svc := NewPageService(gdb)

	draft, err := svc.Create(alice, PageInput{Title: "Draft", Content: "x"})
	require.NoError(t, err)

	_, err = svc.GetBySlug(access.Anonymous(), draft.Slug)
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = svc.GetBySlug(bob, draft.Slug)
	assert.ErrorIs(t, err, ErrPageNotFound)

	got, err := svc.GetBySlug(alice, draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author.Username)
}

func TestNavigationListsPublishedFlaggedPagesInOrder(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	svc := NewPageService(gdb)

	inputs := []PageInput{
		{Title: "Contact", Content: "x", Published: true, Order: 2},
		{Title: "About", Content: "x", Published: true, Order: 1},
		{Title: "Blog", Content: "x", Published: true, Order: 1},
		{Title: "Hidden", Content: "x", Published: true, Order: 0, ShowInNavigation: ptr(false)},
		{Title: "Draft", Content: "x", Published: false, Order: 0},
	}
	for _, in := range inputs {
		_, err := svc.Create(alice, in)
		require.NoError(t, err)
	}

	pages, err := svc.Navigation()
	require.NoError(t, err)

	titles := make([]string, 0, len(pages))
	for _, p := range pages {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"About", "Blog", "Contact"}, titles)
}

func TestListPagesFilters(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	svc := NewPageService(gdb)

	_, err := svc.Create(alice, PageInput{Title: "Menu", Content: "x", Published: true, MetaDescription: "shown in menu"})
	require.NoError(t, err)
	_, err = svc.Create(alice, PageInput{Title: "Legal", Content: "x", Published: true, ShowInNavigation: ptr(false)})
	require.NoError(t, err)

	hidden, err := svc.List(access.Anonymous(), ListFilter{ShowInNavigation: ptr(false)})
	require.NoError(t, err)
	require.Len(t, hidden.Items, 1)
	assert.Equal(t, "Legal", hidden.Items[0].Title)

	search, err := svc.List(access.Anonymous(), ListFilter{Search: "menu"})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "Menu", search.Items[0].Title)

	desc, err := svc.List(access.Anonymous(), ListFilter{Ordering: "-title"})
	require.NoError(t, err)
	require.Len(t, desc.Items, 2)
	assert.Equal(t, "Menu", desc.Items[0].Title)

	mine, err := svc.ListByAuthor(alice, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Total)
}
