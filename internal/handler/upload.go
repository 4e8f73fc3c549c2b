package handler

import (
	"blobvault/config"
	"blobvault/internal/apperr"
	"blobvault/internal/dto"
	"blobvault/internal/service"
	"blobvault/utils"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// CreateUpload opens an upload session: issues the upload token and prepares
// its staging directory.
func CreateUpload(c *gin.Context) {
	var req dto.CreateUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid request"))
		return
	}
	ttl := config.AppConfig.UploadTokenTTL
	if req.Expires > 0 {
		ttl = time.Duration(req.Expires) * time.Second
	}
	token, err := utils.IssueUploadToken(req.Key, ttl)
	if err != nil {
		utils.Fail(c, apperr.Internal(err))
		return
	}
	claims, err := utils.VerifyUploadToken(token)
	if err != nil {
		utils.Fail(c, apperr.Internal(err))
		return
	}
	if err := service.CreateUpload(claims); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.TokenResponse{Token: token, ExpiresIn: int64(ttl.Seconds())})
}

// UploadPart stores one part of an upload session. The token in the path is
// the only credential; parts may arrive in any order and concurrently.
func UploadPart(c *gin.Context) {
	claims, err := utils.VerifyUploadToken(c.Param("token"))
	if err != nil {
		utils.Fail(c, apperr.Unauthorized(errors.New("invalid token")))
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.Fail(c, apperr.BadRequest("invalid part index"))
		return
	}
	hash, err := service.UploadPart(c.Request.Context(), claims, index, c.Request.Body)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.UploadPartResponse{Hash: hash})
}

// FinishUpload assembles the session's parts into the object.
func FinishUpload(c *gin.Context) {
	claims, err := utils.VerifyUploadToken(c.Param("token"))
	if err != nil {
		utils.Fail(c, apperr.Unauthorized(errors.New("invalid token")))
		return
	}
	obj, err := service.FinishUpload(c.Request.Context(), claims)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, obj)
}
