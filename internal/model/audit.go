package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateFeeRule = "CREATE_FEE_RULE"
	ActionUpdateFeeRule = "UPDATE_FEE_RULE"
	ActionDeleteFeeRule = "DELETE_FEE_RULE"

	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionCreateCategory = "CREATE_CATEGORY"
)

// AuditLog tracks Who, What, and When for critical system changes.
// UserID carries the JWT subject claim; identity is issued by an external
// service, so there is no local users table to join against.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
