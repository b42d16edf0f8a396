package dto

// Room event kinds pushed to websocket subscribers.
const (
	RoomEventPostCreated      = "post_created"
	RoomEventOccupancyChanged = "occupancy_changed"
	RoomEventError            = "error"
)

// RoomEvent is a single frame pushed to every connection viewing a thread.
// Post is set for post_created, Count for occupancy_changed, and
// Reason/RetryAfterSeconds for error frames sent back to a single sender.
type RoomEvent struct {
	Type              string        `json:"type"`
	ThreadID          uint          `json:"thread_id"`
	Post              *PostResponse `json:"post,omitempty"`
	Count             int           `json:"count,omitempty"`
	Reason            string        `json:"reason,omitempty"`
	RetryAfterSeconds int           `json:"retry_after_seconds,omitempty"`
}

// RoomSendRequest is the inbound websocket frame submitting a post from a
// connection already joined to a room.
type RoomSendRequest struct {
	AuthorName string `json:"author_name" validate:"omitempty,max=64"`
	Body       string `json:"body" validate:"required,min=1,max=4000"`
}
