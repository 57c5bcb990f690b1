package model

// Group is a named post category. Groups have no owner; they are managed
// from the CLI and are read-only over HTTP.
type Group struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"column:title;size:200;not null" json:"title"`
	Slug        string `gorm:"column:slug;size:50;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"column:description;type:text" json:"description"`
}

func (Group) TableName() string { return "post_groups" }
