package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a community that posts may optionally belong to. Groups are
// seeded by an operator (see the seed-group command); there is no user
// facing create path.
type Group struct {
	gorm.Model
	Title       string `gorm:"column:title;size:200;not null" json:"title"`
	Slug        string `gorm:"column:slug;size:200;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"column:description;type:text;not null" json:"description"`

	// Deleting a group detaches its posts rather than deleting them.
	Posts []Post `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"posts,omitempty"`
}

type Post struct {
	gorm.Model
	Text     string    `gorm:"column:text;type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"column:pub_date;not null;autoCreateTime" json:"pub_date"`
	AuthorID uint      `gorm:"column:author_id;not null;index" json:"author_id"`
	GroupID  *uint     `gorm:"column:group_id" json:"group_id,omitempty"`
	Image    string    `gorm:"column:image;size:500" json:"image,omitempty"`

	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

type Comment struct {
	gorm.Model
	PostID   uint      `gorm:"column:post_id;not null;index" json:"post_id"`
	AuthorID uint      `gorm:"column:author_id;not null" json:"author_id"`
	Text     string    `gorm:"column:text;type:text;not null" json:"text"`
	Created  time.Time `gorm:"column:created;not null;autoCreateTime" json:"created"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// Follow is a directed edge: User (the follower) receives AuthorID's posts
// in their aggregated feed. The composite unique index and the check
// constraint back up the handler-level checks, so a writer that bypasses
// the handlers still cannot duplicate an edge or follow itself.
// It does not soft delete: unfollowing must free the unique slot so
// the author can be followed again.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint `gorm:"column:user_id;not null;uniqueIndex:idx_follow_user_author" json:"user_id"`
	AuthorID uint `gorm:"column:author_id;not null;uniqueIndex:idx_follow_user_author;check:chk_no_self_follow,user_id <> author_id" json:"author_id"`

	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
