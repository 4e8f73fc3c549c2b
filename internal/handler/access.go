package handler

import (
	"blobvault/config"
	"blobvault/internal/apperr"
	"blobvault/internal/dto"
	"blobvault/internal/service"
	"blobvault/model"
	"blobvault/utils"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	tokenLimiterOnce sync.Once
	tokenLimiter     *rate.Limiter
)

// issueLimiter throttles token issuance process-wide, which also caps the
// rate of bcrypt checks an attacker can force through this endpoint.
func issueLimiter() *rate.Limiter {
	tokenLimiterOnce.Do(func() {
		burst := config.AppConfig.TokenIssueBurst
		if burst <= 0 {
			burst = 1
		}
		if config.AppConfig.TokenIssueRate <= 0 {
			tokenLimiter = rate.NewLimiter(rate.Inf, burst)
		} else {
			tokenLimiter = rate.NewLimiter(rate.Limit(config.AppConfig.TokenIssueRate), burst)
		}
	})
	return tokenLimiter
}

// callerAccess re-fetches the calling principal's row. Returns an error for a
// principal that was disabled after its token was issued.
func callerAccess(c *gin.Context) (*model.Access, error) {
	id := c.GetString("access_id")
	access, err := service.GetAccessByID(id)
	if err != nil {
		return nil, err
	}
	if access == nil {
		return nil, apperr.Unauthorized(errors.New("access disabled"))
	}
	return access, nil
}

// CreateToken trades principal credentials for an access token.
func CreateToken(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid request"))
		return
	}
	if !issueLimiter().Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"code": -1, "msg": "too many requests"})
		return
	}
	access, err := service.ValidateAccess(req.ID, req.Secret)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if access == nil {
		utils.Fail(c, apperr.Unauthorized(errors.New("invalid credentials")))
		return
	}
	ttl := config.AppConfig.AccessTokenTTL
	token, err := utils.IssueAccessToken(access.ID, access.Admin, ttl)
	if err != nil {
		utils.Fail(c, apperr.Internal(err))
		return
	}
	utils.Success(c, dto.TokenResponse{Token: token, ExpiresIn: int64(ttl.Seconds())})
}

// CreateAccess creates a new principal. Admin only.
func CreateAccess(c *gin.Context) {
	caller, err := callerAccess(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if !caller.Admin {
		utils.Fail(c, apperr.ErrForbidden)
		return
	}
	var req dto.CreateAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid request"))
		return
	}
	access, secret, err := service.CreateAccess(req.Admin)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.AccessWithSecret{Access: *access, Secret: secret})
}

// ResetAccess rotates a principal's secret and re-enables it. Admin only.
func ResetAccess(c *gin.Context) {
	caller, err := callerAccess(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if !caller.Admin {
		utils.Fail(c, apperr.ErrForbidden)
		return
	}
	access, secret, err := service.ResetAccess(c.Param("id"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.AccessWithSecret{Access: *access, Secret: secret})
}

// DeleteAccess disables a principal. A principal may disable itself; anything
// else requires admin.
func DeleteAccess(c *gin.Context) {
	caller, err := callerAccess(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	id := c.Param("id")
	if id != caller.ID && !caller.Admin {
		utils.Fail(c, apperr.ErrForbidden)
		return
	}
	if err := service.DeleteAccess(id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}
