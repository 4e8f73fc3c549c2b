package utils

import (
	"blobvault/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Success writes a success JSON response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, gin.H{
		"code": 0,
		"msg":  "ok",
		"data": data,
	})
}

// Fail writes an error JSON response with the taxonomy's status code.
func Fail(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{
		"code": -1,
		"msg":  err.Error(),
	})
}
