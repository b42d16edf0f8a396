package models

import (
	"time"

	"gorm.io/datatypes"
)

// Thread represents a named discussion topic. Threads are immutable after
// creation apart from their derived post count.
type Thread struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	Posts     []Post            `json:"posts,omitempty"`
}

// Post is a single message within a thread. Seq is the 1-based position of
// the post inside its thread, assigned at persistence time; the composite
// unique index backstops the gapless-sequence invariant.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ThreadID   uint      `gorm:"not null;uniqueIndex:idx_posts_thread_seq" json:"thread_id"`
	Seq        uint      `gorm:"not null;uniqueIndex:idx_posts_thread_seq" json:"seq"`
	AuthorName string    `gorm:"size:64;not null" json:"author_name"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
