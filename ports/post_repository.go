package ports

import (
	"context"

	"flowcast/domain/post"
)

// PostRepository defines the two fetch contracts the flow engine consumes
// from the data layer: single-post detail and batch fetch by id list. The
// batch form is used to refresh the working list after a forecast submission
// (in practice only the submitted post's id is requested, but the contract
// stays list-based).
type PostRepository interface {
	// GetPost returns full detail for one post, including nested questions
	// and the user's forecast on every constituent question.
	GetPost(ctx context.Context, id int64) (*post.Post, error)

	// GetPostsByIDs returns the posts for the given ids, preserving the
	// requested order for ids that exist.
	GetPostsByIDs(ctx context.Context, ids []int64) ([]*post.Post, error)

	// ListPosts returns the candidate posts for starting a flow, in upstream
	// ranking order.
	ListPosts(ctx context.Context, limit int) ([]*post.Post, error)
}
