package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/folio/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json name.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}

func respondFields(c *gin.Context, fields map[string][]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, fields)
}

// bindJSON decodes the body into dst and runs binding validation. An empty
// body is validated as an empty object.
func bindJSON(c *gin.Context, dst any) bool {
	useJSONFieldNames()

	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
		}
		respondFields(c, fields)
		return false
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		respondFields(c, map[string][]string{typeErr.Field: {fmt.Sprintf("Expected a value of type %s.", typeErr.Type)}})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		respondError(c, http.StatusBadRequest, "JSON parse error - "+err.Error())
	default:
		respondError(c, http.StatusBadRequest, err.Error())
	}
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// fail translates a service error into the HTTP error taxonomy.
func (a *API) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFields(c, verr.Fields)
	case errors.Is(err, service.ErrAuthenticationRequired):
		c.Header("WWW-Authenticate", "Token")
		respondError(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, service.ErrInvalidToken):
		c.Header("WWW-Authenticate", "Token")
		respondError(c, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrPageNotFound),
		errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrInvalidPage):
		respondError(c, http.StatusNotFound, "Invalid page.")
	case errors.Is(err, service.ErrSlugConflict):
		respondError(c, http.StatusConflict, "An entry with the same slug was created concurrently. Please retry.")
	default:
		c.Error(err)
		a.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
