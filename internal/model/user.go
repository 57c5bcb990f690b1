package model

import "time"

// User mirrors the users table. Username is the public identity used in
// every serialized author/follow reference.
type User struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username   string    `gorm:"column:username;size:150;uniqueIndex;not null" json:"username"`
	Password   string    `gorm:"column:password;size:128;not null" json:"-"`
	IsStaff    bool      `gorm:"column:is_staff;not null;default:false" json:"-"`
	DateJoined time.Time `gorm:"column:date_joined;autoCreateTime" json:"-"`
}

func (User) TableName() string { return "users" }
