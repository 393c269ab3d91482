// Package collection keeps a local, observable copy of a remote REST
// collection (Collection) or of a single record (Details) and mirrors every
// successful remote mutation into it.
package collection

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/target/crud-console/internal/apiclient"
)

// State is the lifecycle of the most recent operation.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Failure messages stored for display. A NotFound error always reads "record not found".
const (
	MsgLoadFailed   = "failed to load records"
	MsgLoadOne      = "failed to load record"
	MsgCreateFailed = "failed to create record"
	MsgUpdateFailed = "failed to update record"
	MsgDeleteFailed = "failed to delete record"
	MsgBusy         = "another change is still in progress"
	MsgNoSelection  = "no record selected"
)

// Backend is the remote side of a Collection. *apiclient.Resource satisfies it.
type Backend[T any, K apiclient.Key] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id K, rec T) (T, error)
	Delete(ctx context.Context, id K) error
}

// DetailsBackend is the remote side of a Details view. *apiclient.Resource satisfies it.
type DetailsBackend[T any, K apiclient.Key] interface {
	Get(ctx context.Context, id K) (T, error)
	Update(ctx context.Context, id K, rec T) (T, error)
}

type keyed[K apiclient.Key] interface {
	ResourceKey() K
}

type validatable interface {
	Validate() error
}

// defaultKeyFunc resolves the identifier extractor for T: a ResourceKey()
// method first, then a struct field tagged json:"id" or named ID.
func defaultKeyFunc[T any, K apiclient.Key]() (func(T) K, error) {
	var zero T
	if _, ok := any(zero).(keyed[K]); ok {
		return func(rec T) K { return any(rec).(keyed[K]).ResourceKey() }, nil
	}
	if _, ok := any(&zero).(keyed[K]); ok {
		return func(rec T) K { return any(&rec).(keyed[K]).ResourceKey() }, nil
	}

	rt := reflect.TypeOf(zero)
	ptr := false
	if rt != nil && rt.Kind() == reflect.Pointer {
		rt, ptr = rt.Elem(), true
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("collection: %T has no ResourceKey method and is not a struct", zero)
	}
	idx, ok := idField(rt)
	if !ok {
		return nil, fmt.Errorf("collection: %s has no ResourceKey method, json:\"id\" field or ID field", rt)
	}
	return func(rec T) K {
		v := reflect.ValueOf(rec)
		if ptr {
			if v.IsNil() {
				var k K
				return k
			}
			v = v.Elem()
		}
		return convertKey[K](v.Field(idx))
	}, nil
}

func idField(rt reflect.Type) (int, bool) {
	byName := -1
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name == "id" {
			return i, true
		}
		if f.Name == "ID" && byName < 0 {
			byName = i
		}
	}
	return byName, byName >= 0
}

func convertKey[K apiclient.Key](fv reflect.Value) K {
	var out K
	ov := reflect.ValueOf(&out).Elem()
	switch {
	case fv.CanInt() && ov.CanInt():
		ov.SetInt(fv.Int())
	case fv.CanUint() && ov.CanInt():
		ov.SetInt(int64(fv.Uint()))
	case fv.Kind() == reflect.String && ov.Kind() == reflect.String:
		ov.SetString(fv.String())
	case fv.CanInt() && ov.Kind() == reflect.String:
		ov.SetString(strconv.FormatInt(fv.Int(), 10))
	case fv.Kind() == reflect.String && ov.CanInt():
		if n, err := strconv.ParseInt(strings.TrimSpace(fv.String()), 10, 64); err == nil {
			ov.SetInt(n)
		}
	}
	return out
}

func defaultValidate[T any]() func(T) error {
	var zero T
	if _, ok := any(zero).(validatable); ok {
		return func(rec T) error { return any(rec).(validatable).Validate() }
	}
	if _, ok := any(&zero).(validatable); ok {
		return func(rec T) error { return any(&rec).(validatable).Validate() }
	}
	return func(T) error { return nil }
}
