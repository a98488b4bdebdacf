package vote

import (
	"errors"
	"time"
)

type Vote struct {
	UserID    int64     `json:"user_id"`
	PostID    int64     `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Direction is the requested vote change: Up casts a vote, Down removes it.
type Direction int

const (
	Down Direction = 0
	Up   Direction = 1
)

type Action int

const (
	ActionCreate Action = iota + 1
	ActionDelete
)

var (
	ErrAlreadyVoted     = errors.New("vote already exists")
	ErrNotFound         = errors.New("vote not found")
	ErrInvalidDirection = errors.New("vote direction must be 0 or 1")
)

type CastRequest struct {
	PostID int64 `json:"post_id" binding:"required,min=1"`
	Dir    *int  `json:"dir" binding:"required"`
}

func ParseDirection(v int) (Direction, error) {
	switch Direction(v) {
	case Up, Down:
		return Direction(v), nil
	default:
		return 0, ErrInvalidDirection
	}
}

// Transition decides what a direction means for a (user, post) pair given
// whether a vote already exists.
func Transition(dir Direction, existing bool) (Action, error) {
	switch dir {
	case Up:
		if existing {
			return 0, ErrAlreadyVoted
		}
		return ActionCreate, nil
	case Down:
		if !existing {
			return 0, ErrNotFound
		}
		return ActionDelete, nil
	default:
		return 0, ErrInvalidDirection
	}
}
