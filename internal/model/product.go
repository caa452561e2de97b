package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a product category. Categories form a tree via ParentID;
// a product's effective category set includes all ancestors.
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	ParentID  *int64    `gorm:"index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product represents a sellable item. A variant references its parent
// product via ParentID; an empty HSCode or OriginCountry on a variant
// falls back to the parent's value, and a variant's categories are the
// parent's.
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU           string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Price         float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	HSCode        string         `gorm:"type:varchar(50);index" json:"hs_code"`
	OriginCountry string         `gorm:"type:varchar(5)" json:"origin_country"`
	ParentID      *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id"`
	Parent        *Product       `gorm:"foreignKey:ParentID" json:"-"`
	Categories    []Category     `gorm:"many2many:product_categories" json:"categories,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
