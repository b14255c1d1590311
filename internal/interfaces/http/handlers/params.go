package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/shared/errors"
)

func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("invalid "+name, raw)
	}
	return uint(id), nil
}

func bindError(err error) error {
	return errors.NewValidationError("invalid request body", err.Error())
}
