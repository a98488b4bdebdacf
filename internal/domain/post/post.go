package post

import (
	"errors"
	"time"

	"github.com/geocoder89/postboard/internal/domain/user"
)

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Detail is a post joined with its owner and its vote count.
type Detail struct {
	Post
	Owner user.User `json:"owner"`
	Votes int       `json:"votes"`
}

var ErrNotFound = errors.New("post not found")

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type ListFilter struct {
	Search *string
	Limit  int
	Offset int
}

// Published is a pointer so an omitted field can default to true.
type CreateRequest struct {
	Title     string `json:"title" binding:"required,min=1,max=200"`
	Content   string `json:"content" binding:"required,max=10000"`
	Published *bool  `json:"published"`
}

// a full update payload, same shape as create.
type UpdateRequest = CreateRequest

func (r CreateRequest) IsPublished() bool {
	if r.Published == nil {
		return true
	}
	return *r.Published
}

func NewFromCreateRequest(ownerID int64, req CreateRequest) Post {
	return Post{
		Title:     req.Title,
		Content:   req.Content,
		Published: req.IsPublished(),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
}
