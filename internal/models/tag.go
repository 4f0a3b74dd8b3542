package models

// Tag labels posts; shared between posts, never cascade-deleted with them
type Tag struct {
	ID    int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Name  string `gorm:"type:varchar(100);not null;uniqueIndex;column:name"`
	Slug  string `gorm:"type:varchar(100);index:idx_tag_slug;column:slug"`
	Color string `gorm:"type:varchar(7);column:color"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}
