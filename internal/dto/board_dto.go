package dto

import (
	"time"

	"github.com/nanashi-dev/nanashi-board/internal/models"
)

// ThreadCreateRequest is the payload to create a thread.
type ThreadCreateRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// ThreadResponse describes a thread returned by the API.
type ThreadResponse struct {
	ID        uint              `json:"id"`
	Title     string            `json:"title"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	PostCount int64             `json:"post_count"`
	CreatedAt time.Time         `json:"created_at"`
}

// PostCreateRequest is the payload submitted to append a post to a thread.
// The author name is optional; blank names are normalized server-side.
type PostCreateRequest struct {
	AuthorName string `json:"author_name" validate:"omitempty,max=64"`
	Body       string `json:"body" validate:"required,min=1,max=4000"`
}

// PostResponse is the serialized representation of a post.
type PostResponse struct {
	ID         uint      `json:"id"`
	ThreadID   uint      `json:"thread_id"`
	Seq        uint      `json:"seq"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewThreadResponse converts a thread model into a DTO.
func NewThreadResponse(model models.Thread, postCount int64) ThreadResponse {
	response := ThreadResponse{
		ID:        model.ID,
		Title:     model.Title,
		PostCount: postCount,
		CreatedAt: model.CreatedAt,
	}
	if model.Metadata != nil {
		response.Metadata = make(map[string]string)
		for key, value := range model.Metadata {
			if str, ok := value.(string); ok {
				response.Metadata[key] = str
			}
		}
	}
	return response
}

// NewPostResponse converts a post model into a DTO.
func NewPostResponse(model models.Post) PostResponse {
	return PostResponse{
		ID:         model.ID,
		ThreadID:   model.ThreadID,
		Seq:        model.Seq,
		AuthorName: model.AuthorName,
		Body:       model.Body,
		CreatedAt:  model.CreatedAt,
	}
}

// NewPostResponseSlice converts a slice of post models into DTOs.
func NewPostResponseSlice(posts []models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, NewPostResponse(post))
	}
	return out
}
