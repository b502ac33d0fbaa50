package models

import "time"

// Report is a user's complaint about a post or comment. A user may report a
// given target at most once.
type Report struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     int64      `gorm:"not null;uniqueIndex:idx_reports_user_target,priority:1" json:"-"`
	TargetType TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_reports_user_target,priority:2;index:idx_reports_target,priority:1" json:"target_type"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_reports_user_target,priority:3;index:idx_reports_target,priority:2" json:"target_id"`
	Reason     string     `gorm:"type:text;not null;default:''" json:"reason"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Report) TableName() string {
	return "reports"
}

// ReportEscalation records that a target's report count crossed the
// threshold. Its presence is the "already escalated" state; clearing the
// target's reports removes it.
type ReportEscalation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TargetType  TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_report_escalations_target,priority:1" json:"target_type"`
	TargetID    uint       `gorm:"not null;uniqueIndex:idx_report_escalations_target,priority:2" json:"target_id"`
	ReportCount int64      `gorm:"not null" json:"report_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (ReportEscalation) TableName() string {
	return "report_escalations"
}

// ReportReason is one entry of the report reason catalogue.
type ReportReason struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ReportReasons lists the reasons offered to reporters.
var ReportReasons = []ReportReason{
	{ID: "spam", Label: "Spam or advertising"},
	{ID: "harassment", Label: "Harassment or bullying"},
	{ID: "inappropriate", Label: "Inappropriate content"},
	{ID: "hate_speech", Label: "Hate speech"},
	{ID: "misinformation", Label: "Misinformation"},
	{ID: "personal_info", Label: "Shares personal information"},
	{ID: "off_topic", Label: "Off topic"},
	{ID: "other", Label: "Other"},
}

// ResolveReportReason expands a catalogued reason id into its label and
// returns any other text unchanged.
func ResolveReportReason(reason string) string {
	for _, r := range ReportReasons {
		if r.ID == reason {
			return r.Label
		}
	}
	return reason
}
