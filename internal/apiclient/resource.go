package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/target/crud-console/internal/errors"
)

// ResourceOptions configures a Resource.
type ResourceOptions struct {
	// Path is the collection path relative to the base URL, e.g. "/Employee".
	Path string
	// IDFormat normalizes string identifiers. Nil means Passthrough.
	IDFormat IDFormatter
	// ProbePath is appended to Path by Probe. Empty probes the collection itself.
	ProbePath string
	// Name tags logs and metrics. Defaults to Path.
	Name string
}

// Resource is a typed client for one REST collection. Records are T and
// are addressed by identifiers of type K.
type Resource[T any, K Key] struct {
	transport *Transport
	path      string
	idFormat  IDFormatter
	probePath string
	name      string
}

// NewResource binds a collection path to a transport.
func NewResource[T any, K Key](transport *Transport, opts ResourceOptions) *Resource[T, K] {
	r := &Resource[T, K]{
		transport: transport,
		path:      "/" + strings.Trim(opts.Path, "/"),
		idFormat:  opts.IDFormat,
		probePath: opts.ProbePath,
		name:      opts.Name,
	}
	if r.idFormat == nil {
		r.idFormat = Passthrough{}
	}
	if r.name == "" {
		r.name = r.path
	}
	return r
}

// Name returns the resource name used for logs and metrics.
func (r *Resource[T, K]) Name() string { return r.name }

// Path returns the collection path.
func (r *Resource[T, K]) Path() string { return r.path }

// Normalize renders id the way the backend expects it in a URL segment.
func (r *Resource[T, K]) Normalize(id K) string {
	if s, ok := any(id).(string); ok {
		return r.idFormat.Format(s)
	}
	return KeyString(id)
}

// List fetches every record in the collection.
func (r *Resource[T, K]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.transport.Do(ctx, r.request(http.MethodGet, r.path, nil), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Get fetches a single record.
func (r *Resource[T, K]) Get(ctx context.Context, id K) (T, error) {
	var item T
	err := r.transport.Do(ctx, r.request(http.MethodGet, r.itemPath(id), nil), &item)
	return item, err
}

// Create posts rec and returns the record as stored by the backend. A create
// acknowledged without a record body is an ErrCodeDecode error.
func (r *Resource[T, K]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	var raw json.RawMessage
	if err := r.transport.Do(ctx, r.request(http.MethodPost, r.path, rec), &raw); err != nil {
		return zero, err
	}
	if isEmptyBody(raw) {
		return zero, apperrors.New(apperrors.ErrCodeDecode, "create response carried no record")
	}
	var created T
	if err := json.Unmarshal(raw, &created); err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrCodeDecode, "decode response")
	}
	return created, nil
}

// Update replaces the record at id with rec. When the backend answers with an
// empty body the submitted record is returned as canonical.
func (r *Resource[T, K]) Update(ctx context.Context, id K, rec T) (T, error) {
	var raw json.RawMessage
	if err := r.transport.Do(ctx, r.request(http.MethodPut, r.itemPath(id), rec), &raw); err != nil {
		var zero T
		return zero, err
	}
	if isEmptyBody(raw) {
		return rec, nil
	}
	var updated T
	if err := json.Unmarshal(raw, &updated); err != nil {
		var zero T
		return zero, apperrors.Wrap(err, apperrors.ErrCodeDecode, "decode response")
	}
	return updated, nil
}

// Delete removes the record at id.
func (r *Resource[T, K]) Delete(ctx context.Context, id K) error {
	return r.transport.Do(ctx, r.request(http.MethodDelete, r.itemPath(id), nil), nil)
}

// Probe issues the connectivity check and returns the raw response body.
func (r *Resource[T, K]) Probe(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := r.transport.Do(ctx, r.request(http.MethodGet, r.path+r.probePath, nil), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func isEmptyBody(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

func (r *Resource[T, K]) itemPath(id K) string {
	return r.path + "/" + url.PathEscape(r.Normalize(id))
}

func (r *Resource[T, K]) request(method, path string, body any) Request {
	return Request{Method: method, Path: path, Body: body, Resource: r.name}
}
