package handler

import (
	"net/http"

	"github.com/folio/internal/service"
	"github.com/gin-gonic/gin"
)

// pageWritePayload is the body of POST and PUT requests.
type pageWritePayload struct {
	Title            *string `json:"title" binding:"required"`
	Content          *string `json:"content" binding:"required"`
	MetaDescription  *string `json:"meta_description"`
	Published        *bool   `json:"published"`
	Order            *int    `json:"order"`
	ShowInNavigation *bool   `json:"show_in_navigation"`
}

// pagePatchPayload is the body of PATCH requests; absent fields are kept.
type pagePatchPayload struct {
	Title            *string `json:"title"`
	Content          *string `json:"content"`
	MetaDescription  *string `json:"meta_description"`
	Published        *bool   `json:"published"`
	Order            *int    `json:"order"`
	ShowInNavigation *bool   `json:"show_in_navigation"`
}

func (p pagePatchPayload) patch() service.PagePatch {
	return service.PagePatch{
		Title:            p.Title,
		Content:          p.Content,
		MetaDescription:  p.MetaDescription,
		Published:        p.Published,
		Order:            p.Order,
		ShowInNavigation: p.ShowInNavigation,
	}
}

// ListPages returns the pages visible to the caller.
func (a *API) ListPages(c *gin.Context) {
	filter, ok := a.parseListFilter(c, true)
	if !ok {
		return
	}

	result, err := a.pages.List(actorFrom(c), filter)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, result, projectPages(result.Items))
}

// MyPages lists every page of the authenticated user, drafts included.
func (a *API) MyPages(c *gin.Context) {
	filter, ok := a.parseListFilter(c, true)
	if !ok {
		return
	}

	result, err := a.pages.ListByAuthor(actorFrom(c), filter)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, result, projectPages(result.Items))
}

// NavigationPages returns the published pages shown in the site menu.
func (a *API) NavigationPages(c *gin.Context) {
	pages, err := a.pages.Navigation()
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projectNavigation(pages))
}

// GetPage fetches a page by slug.
func (a *API) GetPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(actorFrom(c), c.Param("slug"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projectPage(OpRetrieve, page))
}

// CreatePage stores a new page authored by the caller.
func (a *API) CreatePage(c *gin.Context) {
	var payload pageWritePayload
	if !bindJSON(c, &payload) {
		return
	}

	input := service.PageInput{
		Title:            *payload.Title,
		Content:          *payload.Content,
		ShowInNavigation: payload.ShowInNavigation,
	}
	if payload.MetaDescription != nil {
		input.MetaDescription = *payload.MetaDescription
	}
	if payload.Published != nil {
		input.Published = *payload.Published
	}
	if payload.Order != nil {
		input.Order = *payload.Order
	}

	page, err := a.pages.Create(actorFrom(c), input)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectPage(OpCreate, page))
}

// ReplacePage handles PUT: title and content are required.
func (a *API) ReplacePage(c *gin.Context) {
	var payload pageWritePayload
	if !bindJSON(c, &payload) {
		return
	}
	a.updatePage(c, pagePatchPayload(payload).patch())
}

// PatchPage handles PATCH: only the supplied fields change.
func (a *API) PatchPage(c *gin.Context) {
	var payload pagePatchPayload
	if !bindJSON(c, &payload) {
		return
	}
	a.updatePage(c, payload.patch())
}

func (a *API) updatePage(c *gin.Context, patch service.PagePatch) {
	page, err := a.pages.Update(actorFrom(c), c.Param("slug"), patch)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projectPage(OpUpdate, page))
}

// DeletePage removes a page owned by the caller.
func (a *API) DeletePage(c *gin.Context) {
	if err := a.pages.Delete(actorFrom(c), c.Param("slug")); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
