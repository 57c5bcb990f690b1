package model

import "time"

// Comment mirrors the comments table. Comments go away with their post.
type Comment struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	PostID   int64     `gorm:"column:post_id;index;not null"`
	AuthorID int64     `gorm:"column:author_id;index;not null"`
	Text     string    `gorm:"column:text;type:text;not null"`
	Created  time.Time `gorm:"column:created;autoCreateTime;index;<-:create"`

	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Post   Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (Comment) TableName() string { return "comments" }

// OwnerID implements policy.Owned.
func (c *Comment) OwnerID() int64 { return c.AuthorID }
