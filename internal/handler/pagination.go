package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/folio/internal/service"
	"github.com/gin-gonic/gin"
)

type pageEnvelope struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// parseListFilter reads the list query parameters. It writes a 400 or 404
// response and returns false when a parameter is malformed.
func (a *API) parseListFilter(c *gin.Context, withNavigation bool) (service.ListFilter, bool) {
	filter := service.ListFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Ordering: strings.TrimSpace(c.Query("ordering")),
		Page:     1,
		PageSize: a.pagination.PageSize,
	}
	fields := map[string][]string{}

	if raw, ok := c.GetQuery("published"); ok && raw != "" {
		if value, err := parseBoolQuery(raw); err == nil {
			filter.Published = &value
		} else {
			fields["published"] = []string{"Must be a valid boolean."}
		}
	}
	if raw, ok := c.GetQuery("author"); ok && raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			author := uint(id)
			filter.AuthorID = &author
		} else {
			fields["author"] = []string{"Select a valid choice. That choice is not one of the available choices."}
		}
	}
	if withNavigation {
		if raw, ok := c.GetQuery("show_in_navigation"); ok && raw != "" {
			if value, err := parseBoolQuery(raw); err == nil {
				filter.ShowInNavigation = &value
			} else {
				fields["show_in_navigation"] = []string{"Must be a valid boolean."}
			}
		}
	}
	if len(fields) > 0 {
		respondFields(c, fields)
		return filter, false
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			respondError(c, http.StatusNotFound, "Invalid page.")
			return filter, false
		}
		filter.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			filter.PageSize = min(size, a.pagination.MaxPageSize)
		}
	}
	return filter, true
}

func parseBoolQuery(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// respondPage writes a paginated list with links to the neighbouring pages.
func respondPage[T any](c *gin.Context, result *service.ListResult[T], results any) {
	envelope := pageEnvelope{Count: result.Total, Results: results}
	if result.HasNext() {
		link := pageLink(c, result.Page+1)
		envelope.Next = &link
	}
	if result.HasPrevious() {
		link := pageLink(c, result.Page-1)
		envelope.Previous = &link
	}
	c.JSON(http.StatusOK, envelope)
}

func pageLink(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	query := c.Request.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return link.String()
}
