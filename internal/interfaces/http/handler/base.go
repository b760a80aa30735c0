package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseUserID 从路径参数解析用户 ID
func parseUserID(c *gin.Context) (int64, error) {
	raw := c.Param("user_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id: %q", raw)
	}
	return id, nil
}
