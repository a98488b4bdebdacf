package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VotesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewVotesRepo(pool *pgxpool.Pool, prom *observability.Prom) *VotesRepo {
	return &VotesRepo{pool: pool, prom: prom}
}

func (r *VotesRepo) Find(ctx context.Context, userID, postID int64) (vote.Vote, error) {
	var v vote.Vote

	err := r.prom.ObserveDB("votes.find", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT user_id, post_id, created_at FROM votes WHERE user_id = $1 AND post_id = $2`,
			userID, postID,
		).Scan(&v.UserID, &v.PostID, &v.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return vote.Vote{}, vote.ErrNotFound
		}
		return vote.Vote{}, err
	}

	return v, nil
}

// Create relies on the (user_id, post_id) primary key to reject a duplicate
// that slipped past the caller's existence check.
func (r *VotesRepo) Create(ctx context.Context, userID, postID int64) (vote.Vote, error) {
	v := vote.Vote{UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}

	err := r.prom.ObserveDB("votes.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO votes (user_id, post_id, created_at) VALUES ($1, $2, $3)`,
			v.UserID, v.PostID, v.CreatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return vote.Vote{}, vote.ErrAlreadyVoted
		}
		if constraint, ok := foreignKeyViolation(err); ok {
			if constraint == "votes_user_id_fkey" {
				return vote.Vote{}, user.ErrNotFound
			}
			return vote.Vote{}, post.ErrNotFound
		}
		return vote.Vote{}, err
	}

	return v, nil
}

func (r *VotesRepo) Delete(ctx context.Context, userID, postID int64) error {
	var affected int64

	err := r.prom.ObserveDB("votes.delete", func() error {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM votes WHERE user_id = $1 AND post_id = $2`, userID, postID)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return vote.ErrNotFound
	}

	return nil
}

func (r *VotesRepo) CountForPost(ctx context.Context, postID int64) (int, error) {
	var n int

	err := r.prom.ObserveDB("votes.count_for_post", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM votes WHERE post_id = $1`, postID).Scan(&n)
	})

	return n, err
}
