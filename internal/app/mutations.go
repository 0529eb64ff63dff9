package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/resource"
	"github.com/dmehra2102/PostDeck/internal/store"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type Op int

const (
	OpCreate Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Mutation is a write against the remote resource.
type Mutation struct {
	Op       Op
	Resource domain.ResourceType
	// ID is required for updates and deletes.
	ID      int
	Payload any
	// Invalidates adds tags to the defaults (the collection tag and, for
	// updates and deletes, the record tag).
	Invalidates []resource.Tag
}

// Mutate runs m against the remote resource. The store changes only after
// the remote call succeeded: cache entries for the invalidated tags are
// evicted first, then the confirmed record is merged or removed. On failure
// nothing is applied and the error is returned unchanged.
func (c *Core) Mutate(ctx context.Context, m Mutation) (any, error) {
	op := fmt.Sprintf("%s %s", m.Op, m.Resource)
	ctx, span := c.tracer.Start(ctx, "Core.Mutate")
	defer span.End()
	span.SetAttributes(
		attribute.String("mutation.op", m.Op.String()),
		attribute.String("mutation.resource", string(m.Resource)),
		attribute.Int("mutation.id", m.ID),
	)

	b, err := c.validateMutation(op, m)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid mutation")
		return nil, err
	}

	ctx, _ = c.withCredentials(ctx)

	var result any
	switch m.Op {
	case OpCreate:
		result, err = b.create(ctx, c.api, m.Payload)
	case OpUpdate:
		result, err = b.update(ctx, c.api, m.ID, m.Payload)
	case OpDelete:
		err = c.api.Delete(ctx, m.Resource, m.ID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mutation failed")
		c.logger.Warn("mutation failed",
			zap.String("op", op),
			zap.Int("id", m.ID),
			zap.Error(err),
		)
		return nil, c.observe(err)
	}

	tags := append(listTags(m.Resource), m.Invalidates...)
	if m.ID > 0 {
		tags = append(tags, itemTags(m.Resource, m.ID)...)
	}
	var action store.Action
	if m.Op == OpDelete {
		action = b.removeAction(m.ID)
	} else if action, err = b.upsertAction(result); err != nil {
		return nil, err
	}

	c.applyMu.Lock()
	evicted := c.cache.InvalidateTags(tags...)
	err = c.store.Dispatch(action)
	c.applyMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", op, err)
	}

	c.logger.Info("mutation applied",
		zap.String("op", op),
		zap.Int("id", m.ID),
		zap.Int("evicted", evicted),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (c *Core) validateMutation(op string, m Mutation) (binding, error) {
	b, err := bindingFor(m.Resource)
	if err != nil {
		return nil, err
	}
	switch m.Op {
	case OpCreate:
	case OpUpdate, OpDelete:
		if m.ID <= 0 {
			return nil, domain.ValidationError(op, domain.ErrInvalidID)
		}
	default:
		return nil, domain.ValidationError(op, fmt.Errorf("unknown operation %d", int(m.Op)))
	}
	if m.Op == OpDelete {
		return b, nil
	}

	if m.Payload == nil {
		return nil, domain.ValidationError(op, domain.ErrMissingPayload)
	}
	v := reflect.Indirect(reflect.ValueOf(m.Payload))
	if v.Kind() != reflect.Struct {
		return nil, domain.ValidationError(op, fmt.Errorf("payload must be a struct, got %T", m.Payload))
	}
	if err := c.validate.Struct(m.Payload); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			return nil, domain.ValidationError(op, fieldError(fields))
		}
		return nil, domain.ValidationError(op, err)
	}
	return b, nil
}

func fieldError(fields validator.ValidationErrors) error {
	errs := make([]error, 0, len(fields))
	for _, f := range fields {
		errs = append(errs, fmt.Errorf("%s failed on %q", f.Field(), f.Tag()))
	}
	return errors.Join(errs...)
}
