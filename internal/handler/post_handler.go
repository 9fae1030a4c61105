package handler

import (
	"net/http"

	"github.com/folio/internal/service"
	"github.com/gin-gonic/gin"
)

// postWritePayload is the body of POST and PUT requests.
type postWritePayload struct {
	Title     *string `json:"title" binding:"required"`
	Content   *string `json:"content" binding:"required"`
	Published *bool   `json:"published"`
}

// postPatchPayload is the body of PATCH requests; absent fields are kept.
type postPatchPayload struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

func (p postPatchPayload) patch() service.PostPatch {
	return service.PostPatch{Title: p.Title, Content: p.Content, Published: p.Published}
}

// ListPosts 获取对当前用户可见的文章列表
func (a *API) ListPosts(c *gin.Context) {
	filter, ok := a.parseListFilter(c, false)
	if !ok {
		return
	}

	result, err := a.posts.List(actorFrom(c), filter)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, result, projectPosts(result.Items))
}

// MyPosts lists every post of the authenticated user, drafts included.
func (a *API) MyPosts(c *gin.Context) {
	filter, ok := a.parseListFilter(c, false)
	if !ok {
		return
	}

	result, err := a.posts.ListByAuthor(actorFrom(c), filter)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, result, projectPosts(result.Items))
}

// GetPost 获取单篇文章
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "Not found.")
		return
	}

	post, err := a.posts.Get(actorFrom(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projectPost(OpRetrieve, post))
}

// CreatePost 创建新文章，slug 由标题自动生成
func (a *API) CreatePost(c *gin.Context) {
	var payload postWritePayload
	if !bindJSON(c, &payload) {
		return
	}

	input := service.PostInput{Title: *payload.Title, Content: *payload.Content}
	if payload.Published != nil {
		input.Published = *payload.Published
	}

	post, err := a.posts.Create(actorFrom(c), input)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectPost(OpCreate, post))
}

// ReplacePost handles PUT: title and content are required.
func (a *API) ReplacePost(c *gin.Context) {
	var payload postWritePayload
	if !bindJSON(c, &payload) {
		return
	}
	a.updatePost(c, postPatchPayload(payload).patch())
}

// PatchPost handles PATCH: only the supplied fields change.
func (a *API) PatchPost(c *gin.Context) {
	var payload postPatchPayload
	if !bindJSON(c, &payload) {
		return
	}
	a.updatePost(c, payload.patch())
}

// updatePost 更新文章，标题变化不会影响 slug
func (a *API) updatePost(c *gin.Context, patch service.PostPatch) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "Not found.")
		return
	}

	post, err := a.posts.Update(actorFrom(c), id, patch)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projectPost(OpUpdate, post))
}

// DeletePost 删除文章
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, "Not found.")
		return
	}

	if err := a.posts.Delete(actorFrom(c), id); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
