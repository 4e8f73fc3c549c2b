package model

import "time"

type Object struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	// Key is the normalized slash-segmented path, no leading or trailing slash.
	Key string `gorm:"column:object_key;size:1024;uniqueIndex;not null" json:"key"`

	Kind *string `gorm:"column:kind;size:255" json:"kind,omitempty"`

	Size int64 `gorm:"column:size;not null;default:0" json:"size"`

	// Hash is the hex sha256 of the blob contents.
	Hash string `gorm:"column:hash;size:64;not null;default:''" json:"hash"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Object) TableName() string {
	return "object"
}

// IsDir reports whether the entry is a synthetic directory from the resolver.
func (o *Object) IsDir() bool {
	return o.ID == 0
}
