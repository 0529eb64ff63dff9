package app

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/resource"
	"github.com/dmehra2102/PostDeck/internal/store"
)

// binding connects a remote resource type to its store collection.
type binding interface {
	resource() domain.ResourceType
	list(ctx context.Context, api domain.RemoteResource, query url.Values) (any, error)
	listByParent(ctx context.Context, api domain.RemoteResource, parent domain.ResourceType, parentID int) (any, error)
	get(ctx context.Context, api domain.RemoteResource, id int) (any, error)
	create(ctx context.Context, api domain.RemoteResource, payload any) (any, error)
	update(ctx context.Context, api domain.RemoteResource, id int, payload any) (any, error)

	// replaceAction swaps the collection for a complete list payload
	replaceAction(payload any) (store.Action, error)
	// upsertAction merges a list or single-record payload
	upsertAction(payload any) (store.Action, error)
	removeAction(id int) store.Action
}

type recordBinding[T store.Storable] struct {
	name domain.ResourceType
}

func (b recordBinding[T]) resource() domain.ResourceType { return b.name }

func (b recordBinding[T]) list(ctx context.Context, api domain.RemoteResource, query url.Values) (any, error) {
	out := []T{}
	if err := api.List(ctx, b.name, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b recordBinding[T]) listByParent(ctx context.Context, api domain.RemoteResource, parent domain.ResourceType, parentID int) (any, error) {
	out := []T{}
	if err := api.ListByParent(ctx, parent, parentID, b.name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b recordBinding[T]) get(ctx context.Context, api domain.RemoteResource, id int) (any, error) {
	var out T
	if err := api.Get(ctx, b.name, id, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b recordBinding[T]) create(ctx context.Context, api domain.RemoteResource, payload any) (any, error) {
	var out T
	if err := api.Create(ctx, b.name, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b recordBinding[T]) update(ctx context.Context, api domain.RemoteResource, id int, payload any) (any, error) {
	var out T
	if err := api.Update(ctx, b.name, id, payload, &out); err != nil {
		return nil, err
	}
	// some backends echo only the changed fields
	if out.RecordID() == 0 {
		return nil, domain.ResourceError("PUT "+b.name.Path(id), 0, "response is missing the record id")
	}
	return out, nil
}

func (b recordBinding[T]) replaceAction(payload any) (store.Action, error) {
	items, ok := payload.([]T)
	if !ok {
		return nil, fmt.Errorf("unexpected %s payload %T", b.name, payload)
	}
	return store.ReplaceRecords[T]{Records: items}, nil
}

func (b recordBinding[T]) upsertAction(payload any) (store.Action, error) {
	switch v := payload.(type) {
	case []T:
		return store.UpsertRecords[T]{Records: v}, nil
	case T:
		return store.UpsertRecords[T]{Records: []T{v}}, nil
	default:
		return nil, fmt.Errorf("unexpected %s payload %T", b.name, payload)
	}
}

func (b recordBinding[T]) removeAction(id int) store.Action {
	return store.RemoveRecord[T]{ID: id}
}

var bindings = map[domain.ResourceType]binding{
	domain.ResourcePosts:    recordBinding[domain.Post]{name: domain.ResourcePosts},
	domain.ResourceTodos:    recordBinding[domain.Todo]{name: domain.ResourceTodos},
	domain.ResourceUsers:    recordBinding[domain.User]{name: domain.ResourceUsers},
	domain.ResourceComments: recordBinding[domain.Comment]{name: domain.ResourceComments},
}

func bindingFor(r domain.ResourceType) (binding, error) {
	b, ok := bindings[r]
	if !ok {
		return nil, domain.ValidationError("resolve resource", fmt.Errorf("unknown resource %q", r))
	}
	return b, nil
}

// listTags are provided by collection reads.
func listTags(r domain.ResourceType) []resource.Tag {
	return []resource.Tag{resource.ListTag(r.TagType())}
}

// itemTags are provided by single-record reads.
func itemTags(r domain.ResourceType, id int) []resource.Tag {
	return []resource.Tag{resource.IDTag(r.TagType(), id)}
}
