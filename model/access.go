package model

import "time"

type Access struct {
	ID string `gorm:"column:id;type:char(36);primaryKey" json:"id"`

	EncryptedSecret string `gorm:"column:encrypted_secret;type:varchar(255);not null" json:"-"`

	Admin bool `gorm:"column:admin;not null;default:false" json:"admin"`

	// Disabled rows are kept for auditing; validation never sees them.
	Enabled bool `gorm:"column:enabled;not null;default:true" json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Access) TableName() string {
	return "access"
}
