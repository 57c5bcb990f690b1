package model

import "time"

// Post mirrors the posts table. PubDate is set on insert and never updated.
type Post struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Text     string    `gorm:"column:text;type:text;not null"`
	PubDate  time.Time `gorm:"column:pub_date;autoCreateTime;index;<-:create"`
	AuthorID int64     `gorm:"column:author_id;index;not null"`
	Image    *string   `gorm:"column:image;size:255"`
	GroupID  *int64    `gorm:"column:group_id;index"`

	Author User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Group  *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
}

func (Post) TableName() string { return "posts" }

// OwnerID implements policy.Owned.
func (p *Post) OwnerID() int64 { return p.AuthorID }
