package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionDelete AuditAction = "delete"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Who
	UserID   string `gorm:"size:36;index" json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // denormalized

	// What ("user", "soil_type", "distributor")
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityKey  string `gorm:"size:100;index" json:"entity_key"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
