package models

import "time"

// PostLike is the fact table backing Post.LikesCount. The composite primary
// key is what makes concurrent duplicate likes lose the race at insert time.
type PostLike struct {
	PostID    int64     `gorm:"primaryKey;autoIncrement:false;column:post_id"`
	UserID    int64     `gorm:"primaryKey;autoIncrement:false;column:user_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for PostLike
func (PostLike) TableName() string {
	return "post_like"
}
