package dto

// TokenRequest trades a principal's id and secret for an access token.
type TokenRequest struct {
	ID     string `json:"id" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

type CreateAccessRequest struct {
	Admin bool `json:"admin"`
}

type CreateObjectRequest struct {
	Key  string  `json:"key" binding:"required"`
	Kind *string `json:"kind"`
}

type MoveObjectRequest struct {
	Key  string  `json:"key" binding:"required"`
	Kind *string `json:"kind"`
}

// SignedTokenRequest asks for a download token; Expires is in seconds and
// falls back to the configured access-token TTL when zero.
type SignedTokenRequest struct {
	Key     string `json:"key" binding:"required"`
	Expires int64  `json:"expires"`
}

type CreateUploadRequest struct {
	Key     string `json:"key" binding:"required"`
	Expires int64  `json:"expires"`
}

type ListQuery struct {
	Prefix string `form:"prefix"`
	Limit  int    `form:"limit,default=100"`
	Offset int    `form:"offset,default=0"`
}
