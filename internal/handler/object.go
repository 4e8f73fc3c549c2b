package handler

import (
	"blobvault/config"
	"blobvault/internal/apperr"
	"blobvault/internal/dto"
	"blobvault/internal/service"
	"blobvault/utils"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const maxListLimit = 1000

func objectID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("invalid object id")
	}
	return id, nil
}

// ListObjects lists one folded directory level under a prefix.
func ListObjects(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid request"))
		return
	}
	if query.Limit <= 0 || query.Limit > maxListLimit {
		query.Limit = maxListLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	items, hasMore, err := service.ListObjects(c.Request.Context(), query.Prefix, query.Limit, query.Offset)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.ObjectPage{Items: items, HasMore: hasMore})
}

// GetObject looks up an object's metadata by key.
func GetObject(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		utils.Fail(c, apperr.BadRequest("key required"))
		return
	}
	obj, err := service.GetObjectByKey(c.Request.Context(), key)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}

// GetObjectByID looks up an object's metadata by id.
func GetObjectByID(c *gin.Context) {
	id, err := objectID(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	obj, err := service.GetObjectByID(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}

// CreateObject creates an object from a multipart form. Without a file part
// the object is created empty.
func CreateObject(c *gin.Context) {
	key := c.PostForm("key")
	if key == "" {
		utils.Fail(c, apperr.BadRequest("key required"))
		return
	}
	var kind *string
	if k := c.PostForm("kind"); k != "" {
		kind = &k
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		obj, err := service.CreateObject(c.Request.Context(), key, kind)
		if err != nil {
			utils.Fail(c, err)
			return
		}
		utils.Success(c, obj)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, apperr.Internal(err))
		return
	}
	defer file.Close()
	obj, err := service.StoreObject(c.Request.Context(), key, kind, file)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}

// EditObject overwrites an existing object's contents.
func EditObject(c *gin.Context) {
	key := c.PostForm("key")
	if key == "" {
		utils.Fail(c, apperr.BadRequest("key required"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Fail(c, apperr.BadRequest("file required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.Fail(c, apperr.Internal(err))
		return
	}
	defer file.Close()
	obj, err := service.EditObject(c.Request.Context(), key, file)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}

// ReadObject streams an object's bytes.
func ReadObject(c *gin.Context) {
	id, err := objectID(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	reader, obj, err := service.ReadObject(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer reader.Close()
	c.DataFromReader(http.StatusOK, obj.Size, "application/octet-stream", reader, nil)
}

// AppendObject appends the raw request body to an object.
func AppendObject(c *gin.Context) {
	id, err := objectID(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	obj, err := service.AppendObject(c.Request.Context(), id, c.Request.Body)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}

// MoveObject renames an object and optionally retags its kind.
func MoveObject(c *gin.Context) {
	id, err := objectID(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	var req dto.MoveObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid request"))
		return
	}
	obj, err := service.MoveObject(c.Request.Context(), id, req.Key, req.Kind)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}

// DeleteObject removes an object and queues its blob for gc.
func DeleteObject(c *gin.Context) {
	id, err := objectID(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	obj, err := service.DeleteObject(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}

// CreateSignedToken issues a download token bound to one object.
func CreateSignedToken(c *gin.Context) {
	var req dto.SignedTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid request"))
		return
	}
	obj, err := service.GetObjectByKey(c.Request.Context(), req.Key)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	ttl := config.AppConfig.AccessTokenTTL
	if req.Expires > 0 {
		ttl = time.Duration(req.Expires) * time.Second
	}
	token, err := utils.IssueSignedToken(obj.ID, ttl)
	if err != nil {
		utils.Fail(c, apperr.Internal(err))
		return
	}
	utils.Success(c, dto.TokenResponse{Token: token, ExpiresIn: int64(ttl.Seconds())})
}

// SignedContents streams an object's bytes to the bearer of a signed token.
// The route skips auth middleware; the token is the whole capability.
func SignedContents(c *gin.Context) {
	claims, err := utils.VerifySignedToken(c.Param("token"))
	if err != nil {
		utils.Fail(c, apperr.Unauthorized(errors.New("invalid token")))
		return
	}
	reader, obj, err := service.ReadObject(c.Request.Context(), claims.ObjectID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	defer reader.Close()
	c.DataFromReader(http.StatusOK, obj.Size, "application/octet-stream", reader, nil)
}
