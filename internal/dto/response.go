package dto

import "blobvault/model"

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// AccessWithSecret is returned only from create and reset; the plaintext
// secret never appears anywhere else.
type AccessWithSecret struct {
	model.Access
	Secret string `json:"secret"`
}

type ObjectPage struct {
	Items   []model.Object `json:"items"`
	HasMore bool           `json:"has_more"`
}

type UploadPartResponse struct {
	Hash string `json:"hash"`
}
