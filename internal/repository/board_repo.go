package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nanashi-dev/nanashi-board/internal/models"
)

// ErrThreadNotFound indicates the referenced thread does not exist.
var ErrThreadNotFound = errors.New("thread not found")

// ThreadWithCount pairs a thread with its derived post count.
type ThreadWithCount struct {
	Thread    models.Thread
	PostCount int64
}

// BoardRepository persists threads and posts.
type BoardRepository interface {
	CreateThread(ctx context.Context, thread *models.Thread) error
	GetThread(ctx context.Context, id uint) (models.Thread, error)
	ListThreads(ctx context.Context) ([]ThreadWithCount, error)
	CreatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context, threadID uint) ([]models.Post, error)
}

type boardRepository struct {
	db *gorm.DB
}

// NewBoardRepository constructs a GORM-backed repository.
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepository{db: db}
}

func (r *boardRepository) CreateThread(ctx context.Context, thread *models.Thread) error {
	if err := r.db.WithContext(ctx).Create(thread).Error; err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	return nil
}

func (r *boardRepository) GetThread(ctx context.Context, id uint) (models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).First(&thread, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Thread{}, ErrThreadNotFound
		}
		return models.Thread{}, fmt.Errorf("get thread: %w", err)
	}
	return thread, nil
}

func (r *boardRepository) ListThreads(ctx context.Context) ([]ThreadWithCount, error) {
	var threads []models.Thread
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	out := make([]ThreadWithCount, 0, len(threads))
	for _, thread := range threads {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.Post{}).
			Where("thread_id = ?", thread.ID).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("count posts for thread %d: %w", thread.ID, err)
		}
		out = append(out, ThreadWithCount{Thread: thread, PostCount: count})
	}

	return out, nil
}

// CreatePost assigns the next sequence number for the post's thread and
// inserts it, all inside one transaction. Callers serialize concurrent
// writes per thread; the unique (thread_id, seq) index rejects any write
// that would duplicate a sequence number anyway.
func (r *boardRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.First(&thread, post.ThreadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThreadNotFound
			}
			return fmt.Errorf("load thread %d: %w", post.ThreadID, err)
		}

		var count int64
		if err := tx.Model(&models.Post{}).
			Where("thread_id = ?", post.ThreadID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("count posts: %w", err)
		}

		post.Seq = uint(count) + 1
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("insert post: %w", err)
		}

		return nil
	})
}

func (r *boardRepository) ListPosts(ctx context.Context, threadID uint) ([]models.Post, error) {
	if _, err := r.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("seq ASC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}
