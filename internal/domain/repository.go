package domain

import (
	"context"
	"net/url"
)

// RemoteResource defines the contract for the REST-like remote API.
type RemoteResource interface {
	// List retrieves a collection; query carries page/limit style parameters
	List(ctx context.Context, resource ResourceType, query url.Values, out any) error

	// ListByParent retrieves a nested collection, e.g. /posts/1/comments
	ListByParent(ctx context.Context, parent ResourceType, parentID int, child ResourceType, out any) error

	// Get retrieves a single record by ID
	Get(ctx context.Context, resource ResourceType, id int, out any) error

	// Create posts a new record and decodes the created record into out
	Create(ctx context.Context, resource ResourceType, payload any, out any) error

	// Update replaces a record and decodes the result into out
	Update(ctx context.Context, resource ResourceType, id int, payload any, out any) error

	// Delete removes a record
	Delete(ctx context.Context, resource ResourceType, id int) error
}
