package service

import (
	"blobvault/internal/apperr"
	"blobvault/internal/repo"
	"blobvault/model"
	"blobvault/utils"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetAccessByID fetches an enabled principal, nil when absent or disabled.
func GetAccessByID(id string) (*model.Access, error) {
	var access model.Access
	err := repo.Db.Where("id = ? AND enabled = ?", id, true).First(&access).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return &access, nil
}

// ValidateAccess checks a principal's secret. Returns nil for an unknown id,
// a disabled row or a bad secret, without distinguishing the three.
func ValidateAccess(id string, secret string) (*model.Access, error) {
	access, err := GetAccessByID(id)
	if err != nil {
		return nil, err
	}
	if access == nil {
		return nil, nil
	}
	if !utils.CheckSecret(secret, access.EncryptedSecret) {
		return nil, nil
	}
	return access, nil
}

// CreateAccess creates a principal and returns it together with the plaintext
// secret. The secret is revealed exactly once; only its bcrypt hash persists.
func CreateAccess(admin bool) (*model.Access, string, error) {
	secret := utils.RandomSecret(64)
	access := &model.Access{
		ID:              uuid.NewString(),
		EncryptedSecret: utils.HashSecret(secret),
		Admin:           admin,
		Enabled:         true,
	}
	if err := repo.Db.Create(access).Error; err != nil {
		return nil, "", apperr.Database(err)
	}
	return access, secret, nil
}

// ResetAccess replaces a principal's secret and re-enables the row. The new
// plaintext secret is revealed exactly once.
func ResetAccess(id string) (*model.Access, string, error) {
	secret := utils.RandomSecret(64)
	result := repo.Db.Model(&model.Access{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"encrypted_secret": utils.HashSecret(secret),
			"enabled":          true,
		})
	if result.Error != nil {
		return nil, "", apperr.Database(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, "", apperr.NotFound("access")
	}
	var access model.Access
	if err := repo.Db.Where("id = ?", id).First(&access).Error; err != nil {
		return nil, "", apperr.Database(err)
	}
	return &access, secret, nil
}

// DeleteAccess soft-disables a principal. The row is kept for auditing and
// its already-issued tokens stay valid until they expire.
func DeleteAccess(id string) error {
	result := repo.Db.Model(&model.Access{}).
		Where("id = ?", id).
		Update("enabled", false)
	if result.Error != nil {
		return apperr.Database(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("access")
	}
	return nil
}
