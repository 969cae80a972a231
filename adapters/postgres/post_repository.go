package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"flowcast/domain/post"
	"flowcast/internal/errors"
	"flowcast/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostRepositoryImpl implements PostRepository for PostgreSQL. Posts are
// stored with the full nested question/forecast document in a jsonb column;
// the hotness column carries the upstream ranking the flow selector must
// preserve.
type PostRepositoryImpl struct {
	db *sqlx.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sqlx.DB) ports.PostRepository {
	return &PostRepositoryImpl{db: db}
}

type postRow struct {
	ID      int64  `db:"id"`
	Payload []byte `db:"payload"`
}

func (r *postRow) decode() (*post.Post, error) {
	var p post.Post
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, errors.Wrapf(err, "failed to decode post %d payload", r.ID)
	}
	p.ID = r.ID
	return &p, nil
}

// GetPost returns full detail for one post
func (r *PostRepositoryImpl) GetPost(ctx context.Context, id int64) (*post.Post, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, payload
		FROM posts
		WHERE id = $1
	`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("post")
	}
	if err != nil {
		return nil, errors.FetchFailed("post", err)
	}
	return row.decode()
}

// GetPostsByIDs returns the posts for the given ids, preserving the requested
// order for ids that exist. Missing ids are skipped, not errors.
func (r *PostRepositoryImpl) GetPostsByIDs(ctx context.Context, ids []int64) ([]*post.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []postRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, payload
		FROM posts
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, errors.FetchFailed("posts", err)
	}

	byID := make(map[int64]*post.Post, len(rows))
	for i := range rows {
		p, err := rows[i].decode()
		if err != nil {
			return nil, err
		}
		byID[p.ID] = p
	}

	out := make([]*post.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPosts returns the candidate posts for starting a flow in upstream
// ranking order (hotness descending, newest first on ties).
func (r *PostRepositoryImpl) ListPosts(ctx context.Context, limit int) ([]*post.Post, error) {
	var rows []postRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, payload
		FROM posts
		ORDER BY hotness DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.FetchFailed("post list", err)
	}

	out := make([]*post.Post, 0, len(rows))
	for i := range rows {
		p, err := rows[i].decode()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
