package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

const postColumns = `id, title, content, published, owner_id, created_at`

// detailSelect joins each post with its owner and vote count.
const detailSelect = `
	SELECT p.id, p.title, p.content, p.published, p.owner_id, p.created_at,
		u.id, u.email, u.created_at,
		COUNT(v.post_id) AS votes,
		COUNT(*) OVER() AS total
	FROM posts p
	JOIN users u ON u.id = p.owner_id
	LEFT JOIN votes v ON v.post_id = p.id
`

func (r *PostsRepo) Create(ctx context.Context, ownerID int64, req post.CreateRequest) (post.Post, error) {
	p := post.NewFromCreateRequest(ownerID, req)

	err := r.prom.ObserveDB("posts.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO posts (title, content, published, owner_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+postColumns,
			p.Title, p.Content, p.Published, p.OwnerID, p.CreatedAt,
		).Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.OwnerID, &p.CreatedAt)
	})

	if err != nil {
		if _, ok := foreignKeyViolation(err); ok {
			return post.Post{}, user.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id int64) (post.Post, error) {
	var p post.Post

	err := r.prom.ObserveDB("posts.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+postColumns+` FROM posts WHERE id = $1`, id,
		).Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.OwnerID, &p.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) GetDetail(ctx context.Context, id int64) (post.Detail, error) {
	var d post.Detail

	err := r.prom.ObserveDB("posts.get_detail", func() error {
		row := r.pool.QueryRow(ctx, detailSelect+`
			WHERE p.id = $1
			GROUP BY p.id, u.id`, id)

		var total int
		return scanDetail(row, &d, &total)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Detail{}, post.ErrNotFound
		}
		return post.Detail{}, err
	}

	return d, nil
}

func (r *PostsRepo) List(ctx context.Context, filter post.ListFilter) ([]post.Detail, int, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Search != nil && *filter.Search != "" {
		conds = append(conds, fmt.Sprintf("p.title ILIKE $%d", argsPosition))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argsPosition++
	}

	query := detailSelect

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" GROUP BY p.id, u.id ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	output := make([]post.Detail, 0, filter.Limit)
	total := 0

	err := r.prom.ObserveDB("posts.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var d post.Detail
			if err := scanDetail(rows, &d, &total); err != nil {
				return err
			}
			output = append(output, d)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// a page past the end has no rows to carry the window total
	if len(output) == 0 && filter.Offset > 0 {
		countQuery := `SELECT COUNT(*) FROM posts p`
		if len(conds) > 0 {
			countQuery += " WHERE " + strings.Join(conds, " AND ")
		}

		err = r.prom.ObserveDB("posts.count", func() error {
			return r.pool.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&total)
		})
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *PostsRepo) Update(ctx context.Context, id int64, req post.UpdateRequest) (post.Post, error) {
	var p post.Post

	err := r.prom.ObserveDB("posts.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE posts
				SET title = $2,
					content = $3,
					published = $4
			WHERE id = $1
			RETURNING `+postColumns,
			id, req.Title, req.Content, req.IsPublished(),
		).Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.OwnerID, &p.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.prom.ObserveDB("posts.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return post.ErrNotFound
	}

	return nil
}

func scanDetail(row pgx.Row, d *post.Detail, total *int) error {
	return row.Scan(
		&d.ID, &d.Title, &d.Content, &d.Published, &d.OwnerID, &d.CreatedAt,
		&d.Owner.ID, &d.Owner.Email, &d.Owner.CreatedAt,
		&d.Votes,
		total,
	)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
