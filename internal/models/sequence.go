package models

// SequencePostNumber names the counter that hands out public post numbers.
const SequencePostNumber = "post_number"

// Sequence is a named monotonically increasing counter advanced by the store.
type Sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(64)"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName specifies the table name for GORM.
func (Sequence) TableName() string {
	return "sequences"
}
