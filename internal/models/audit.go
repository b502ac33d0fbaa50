package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction names an administrative action recorded in the audit log.
type AuditAction string

const (
	AuditDeletePost    AuditAction = "DELETE_POST"
	AuditDeleteComment AuditAction = "DELETE_COMMENT"
	AuditRedactComment AuditAction = "REDACT_COMMENT"
	AuditClearReports  AuditAction = "CLEAR_REPORTS"
	AuditApprovePost   AuditAction = "APPROVE_POST"
	AuditRejectPost    AuditAction = "REJECT_POST"
	AuditBlockUser     AuditAction = "BLOCK_USER"
	AuditUnblockUser   AuditAction = "UNBLOCK_USER"
	AuditFlagContent   AuditAction = "FLAG_CONTENT"
)

// AuditLogEntry is an append-only record of an admin action.
type AuditLogEntry struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	AdminID    int64          `gorm:"not null;index" json:"admin_id"`
	ActionType AuditAction    `gorm:"type:varchar(32);not null;index" json:"action_type"`
	TargetType string         `gorm:"type:varchar(16);not null" json:"target_type"`
	TargetID   int64          `gorm:"not null" json:"target_id"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM.
func (AuditLogEntry) TableName() string {
	return "audit_log"
}
