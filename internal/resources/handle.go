package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"

	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/collection"
	apperrors "github.com/target/crud-console/internal/errors"
)

// Record is implemented by every console record type.
type Record interface {
	Validate() error
	TableHeader() []string
	TableRow() []string
}

// Handle drives one resource without knowing its record or key type.
// Identifiers are passed as strings and parsed into the resource's key type.
type Handle interface {
	Name() string
	Aliases() []string
	Path() string
	Header() []string
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, data []byte) (Record, error)
	// Update merges the JSON object patch onto the current record and
	// sends the full result.
	Update(ctx context.Context, id string, patch []byte) (Record, error)
	Delete(ctx context.Context, id string) error
	Probe(ctx context.Context) (json.RawMessage, error)
}

type handle[T Record, K apiclient.Key] struct {
	name     string
	aliases  []string
	resource *apiclient.Resource[T, K]
	logger   *slog.Logger
}

func newHandle[T Record, K apiclient.Key](name string, aliases []string, res *apiclient.Resource[T, K], logger *slog.Logger) *handle[T, K] {
	return &handle[T, K]{name: name, aliases: aliases, resource: res, logger: logger.With("resource", name)}
}

func (h *handle[T, K]) Name() string      { return h.name }
func (h *handle[T, K]) Aliases() []string { return h.aliases }
func (h *handle[T, K]) Path() string      { return h.resource.Path() }

func (h *handle[T, K]) Header() []string {
	var zero T
	return zero.TableHeader()
}

func (h *handle[T, K]) collection() *collection.Collection[T, K] {
	return collection.New[T, K](h.resource, collection.Options[T, K]{Logger: h.logger})
}

func (h *handle[T, K]) details() *collection.Details[T, K] {
	return collection.NewDetails[T, K](h.resource, collection.DetailsOptions[T]{Logger: h.logger})
}

func (h *handle[T, K]) List(ctx context.Context) ([]Record, error) {
	c := h.collection()
	if err := c.FetchAll(ctx); err != nil {
		return nil, err
	}
	return toRecords(c.Items()), nil
}

func (h *handle[T, K]) Get(ctx context.Context, id string) (Record, error) {
	key, err := h.parseKey(id)
	if err != nil {
		return nil, err
	}
	d := h.details()
	if err := d.Select(ctx, key); err != nil {
		return nil, err
	}
	rec, ok := d.Record()
	if !ok {
		return nil, apperrors.Validation(collection.MsgNoSelection)
	}
	return rec, nil
}

func (h *handle[T, K]) Create(ctx context.Context, data []byte) (Record, error) {
	rec, err := decodeRecord[T](data)
	if err != nil {
		return nil, err
	}
	created, err := h.collection().Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (h *handle[T, K]) Update(ctx context.Context, id string, patch []byte) (Record, error) {
	key, err := h.parseKey(id)
	if err != nil {
		return nil, err
	}
	d := h.details()
	if err := d.Select(ctx, key); err != nil {
		return nil, err
	}
	current, ok := d.Record()
	if !ok {
		return nil, apperrors.Validation(collection.MsgNoSelection)
	}
	merged, err := mergeRecord(current, patch)
	if err != nil {
		return nil, err
	}
	updated, err := d.Update(ctx, merged)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (h *handle[T, K]) Delete(ctx context.Context, id string) error {
	key, err := h.parseKey(id)
	if err != nil {
		return err
	}
	return h.collection().Delete(ctx, key)
}

func (h *handle[T, K]) Probe(ctx context.Context) (json.RawMessage, error) {
	return h.resource.Probe(ctx)
}

func (h *handle[T, K]) parseKey(id string) (K, error) {
	key, err := apiclient.ParseKey[K](id)
	if err != nil {
		return key, apperrors.ValidationField("id", fmt.Sprintf("invalid %s id %q", h.name, id))
	}
	return key, nil
}

func toRecords[T Record](items []T) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func decodeRecord[T any](data []byte) (T, error) {
	var rec T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return rec, apperrors.Wrap(err, apperrors.ErrCodeValidation, "record is not valid JSON for this resource")
	}
	return rec, nil
}

// mergeRecord overlays the top-level keys of patch onto rec.
func mergeRecord[T any](rec T, patch []byte) (T, error) {
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return rec, apperrors.Wrap(err, apperrors.ErrCodeValidation, "update data must be a JSON object")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("encode current record: %w", err)
	}
	var base map[string]json.RawMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		return rec, fmt.Errorf("decode current record: %w", err)
	}
	maps.Copy(base, overlay)
	raw, err = json.Marshal(base)
	if err != nil {
		return rec, fmt.Errorf("encode merged record: %w", err)
	}
	return decodeRecord[T](raw)
}
