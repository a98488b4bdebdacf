package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/gin-gonic/gin"
)

// Both repo/postgres and repo/memory satisfy these.

type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type PostStore interface {
	Create(ctx context.Context, ownerID int64, req post.CreateRequest) (post.Post, error)
	GetByID(ctx context.Context, id int64) (post.Post, error)
	GetDetail(ctx context.Context, id int64) (post.Detail, error)
	List(ctx context.Context, filter post.ListFilter) ([]post.Detail, int, error)
	Update(ctx context.Context, id int64, req post.UpdateRequest) (post.Post, error)
	Delete(ctx context.Context, id int64) error
}

type VoteStore interface {
	Find(ctx context.Context, userID, postID int64) (vote.Vote, error)
	Create(ctx context.Context, userID, postID int64) (vote.Vote, error)
	Delete(ctx context.Context, userID, postID int64) error
	CountForPost(ctx context.Context, postID int64) (int, error)
}

func withTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
