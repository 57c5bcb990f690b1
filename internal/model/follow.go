package model

import "time"

// Follow means UserID receives FollowingID's posts. The pair is unique and a
// user can never follow themselves; both rules are enforced by the schema.
type Follow struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64     `gorm:"column:user_id;not null;uniqueIndex:idx_follow_pair,priority:1;check:chk_follow_not_self,user_id <> following_id"`
	FollowingID int64     `gorm:"column:following_id;not null;uniqueIndex:idx_follow_pair,priority:2;index"`
	Created     time.Time `gorm:"column:created;autoCreateTime"`

	User      User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Following User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
}

func (Follow) TableName() string { return "follows" }
