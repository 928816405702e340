package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
	"github.com/2005bahadursdr/student-attendance-api/pkg/response"
)

// pageQuery holds the listing parameters every collection endpoint accepts.
type pageQuery struct {
	Search    string
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

func parsePageQuery(c *gin.Context) pageQuery {
	q := pageQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		Status:    c.Query("status"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
		Page:      1,
		PageSize:  20,
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && size > 0 {
		q.PageSize = size
	}
	return q
}

// bindJSON decodes the request body into dest. On failure it writes a
// validation error response and reports false.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
