package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/studentms/pkg/errors"
	"github.com/noah-isme/studentms/pkg/response"
)

// pathID parses the :id route parameter, rendering a validation error when it is not a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err, "invalid payload"))
		return false
	}
	return true
}

func optionalInt64(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
