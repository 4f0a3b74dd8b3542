package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered author or reader
type User struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Username    string    `gorm:"type:varchar(150);not null;uniqueIndex;column:username"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex;column:email"`
	DisplayName string    `gorm:"type:varchar(150);column:display_name"`
	AvatarURL   string    `gorm:"column:avatar_url"`
	Role        string    `gorm:"type:varchar(20);column:role"`
	DateJoined  time.Time `gorm:"column:date_joined"`

	// Subscriptions are the users this user follows (directed)
	Subscriptions []User `gorm:"many2many:user_subscriptions;joinForeignKey:SubscriberID;joinReferences:SubscribedToID"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate fills registration-time defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = "user"
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	return nil
}
