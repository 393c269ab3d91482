package collection

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/crud-console/internal/apiclient"
	"github.com/target/crud-console/internal/domain/model"
	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/testutil"
)

type fakeDetails struct {
	gets   atomic.Int32
	get    func(ctx context.Context, id string) (model.Culture, error)
	update func(ctx context.Context, id string, rec model.Culture) (model.Culture, error)
}

func (f *fakeDetails) Get(ctx context.Context, id string) (model.Culture, error) {
	f.gets.Add(1)
	if f.get == nil {
		return model.Culture{CultureID: id, Name: "name-" + id}, nil
	}
	return f.get(ctx, id)
}

func (f *fakeDetails) Update(ctx context.Context, id string, rec model.Culture) (model.Culture, error) {
	if f.update == nil {
		return rec, nil
	}
	return f.update(ctx, id, rec)
}

func TestDetails_ZeroIDSkipsFetch(t *testing.T) {
	backend := &fakeDetails{}
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{})

	require.NoError(t, d.Select(context.Background(), ""))
	assert.Zero(t, backend.gets.Load())
	_, ok := d.Record()
	assert.False(t, ok)
	_, ok = d.ID()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, d.State())

	require.NoError(t, d.Refresh(context.Background()))
	assert.Zero(t, backend.gets.Load())
}

func TestDetails_SelectFetchesOnChange(t *testing.T) {
	backend := &fakeDetails{}
	var loaded []string
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{
		OnLoaded: func(c model.Culture) { loaded = append(loaded, c.CultureID) },
	})
	ctx := context.Background()

	require.NoError(t, d.Select(ctx, "en"))
	require.NoError(t, d.Select(ctx, "en"))
	assert.Equal(t, int32(1), backend.gets.Load(), "same id is a no-op")

	require.NoError(t, d.Select(ctx, "es"))
	assert.Equal(t, int32(2), backend.gets.Load())
	assert.Equal(t, []string{"en", "es"}, loaded)

	rec, ok := d.Record()
	require.True(t, ok)
	assert.Equal(t, "name-es", rec.Name)
	id, _ := d.ID()
	assert.Equal(t, "es", id)
	assert.Equal(t, StateReady, d.State())

	require.NoError(t, d.Refresh(ctx))
	assert.Equal(t, int32(3), backend.gets.Load())

	require.NoError(t, d.Select(ctx, ""))
	_, ok = d.Record()
	assert.False(t, ok, "clearing the id drops the record")
}

func TestDetails_FetchFailure(t *testing.T) {
	backend := &fakeDetails{get: func(context.Context, string) (model.Culture, error) {
		return model.Culture{}, apperrors.NotFound("not found")
	}}
	var gotErr error
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{OnError: func(err error) { gotErr = err }})

	err := d.Select(context.Background(), "zz")
	require.Error(t, err)
	assert.Equal(t, "record not found", d.ErrorMessage())
	assert.Equal(t, StateFailed, d.State())
	assert.Same(t, err, gotErr)
	assert.Error(t, d.Err())

	d.ResetError()
	assert.Empty(t, d.ErrorMessage())
	assert.Equal(t, StateIdle, d.State())
}

func TestDetails_StaleFetchDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := &fakeDetails{get: func(_ context.Context, id string) (model.Culture, error) {
		if id == "slow" {
			close(entered)
			<-release
		}
		return model.Culture{CultureID: id, Name: id}, nil
	}}
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- d.Select(ctx, "slow") }()
	<-entered

	require.NoError(t, d.Select(ctx, "fast"))
	close(release)
	require.NoError(t, <-done)

	rec, ok := d.Record()
	require.True(t, ok)
	assert.Equal(t, "fast", rec.CultureID)
}

func TestDetails_StaleFetchFailureDiscarded(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := &fakeDetails{get: func(_ context.Context, id string) (model.Culture, error) {
		if id == "aa" {
			close(entered)
			<-release
			return model.Culture{}, errors.New("boom")
		}
		return model.Culture{CultureID: id, Name: "B"}, nil
	}}
	var reported atomic.Int32
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{
		OnError: func(error) { reported.Add(1) },
	})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- d.Select(ctx, "aa") }()
	<-entered

	require.NoError(t, d.Select(ctx, "bb"))
	close(release)
	require.NoError(t, <-done)

	rec, ok := d.Record()
	require.True(t, ok)
	assert.Equal(t, "bb", rec.CultureID)
	assert.Equal(t, StateReady, d.State())
	assert.NoError(t, d.Err())
	assert.Empty(t, d.ErrorMessage())
	assert.False(t, d.Loading())
	assert.Zero(t, reported.Load())
}

func TestDetails_StaleFetchSuccessKeepsCurrentFailure(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	backend := &fakeDetails{get: func(_ context.Context, id string) (model.Culture, error) {
		if id == "aa" {
			close(entered)
			<-release
			return model.Culture{CultureID: id, Name: "A"}, nil
		}
		return model.Culture{}, apperrors.NotFound("not found")
	}}
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- d.Select(ctx, "aa") }()
	<-entered

	require.Error(t, d.Select(ctx, "bb"))
	close(release)
	require.NoError(t, <-done)

	_, ok := d.Record()
	assert.False(t, ok)
	assert.Equal(t, StateFailed, d.State())
	assert.Equal(t, "record not found", d.ErrorMessage())
}

func TestDetails_Update(t *testing.T) {
	backend := &fakeDetails{update: func(_ context.Context, id string, rec model.Culture) (model.Culture, error) {
		rec.ModifiedDate = "2024-01-01T00:00:00"
		return rec, nil
	}}
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{})
	ctx := context.Background()

	_, err := d.Update(ctx, model.Culture{CultureID: "en", Name: "English"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err), "no selection")

	require.NoError(t, d.Select(ctx, "en"))
	updated, err := d.Update(ctx, model.Culture{CultureID: "en", Name: "English (US)"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00", updated.ModifiedDate)
	rec, _ := d.Record()
	assert.Equal(t, "English (US)", rec.Name)

	_, err = d.Update(ctx, model.Culture{CultureID: "en", Name: ""})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "Name is required.", d.ErrorMessage())
	rec, _ = d.Record()
	assert.Equal(t, "English (US)", rec.Name, "failed update keeps the record")
}

func TestDetails_UpdateBusy(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeDetails{update: func(_ context.Context, _ string, rec model.Culture) (model.Culture, error) {
		close(entered)
		<-release
		return rec, nil
	}}
	d := NewDetails[model.Culture, string](backend, DetailsOptions[model.Culture]{})
	ctx := context.Background()
	require.NoError(t, d.Select(ctx, "en"))

	done := make(chan error, 1)
	go func() {
		_, err := d.Update(ctx, model.Culture{CultureID: "en", Name: "A"})
		done <- err
	}()
	<-entered

	_, err := d.Update(ctx, model.Culture{CultureID: "en", Name: "B"})
	assert.True(t, apperrors.IsBusy(err))
	assert.True(t, d.Loading())

	close(release)
	require.NoError(t, <-done)
}

func TestDetails_AgainstRESTBackend(t *testing.T) {
	stub := testutil.NewRESTBackend(t, testutil.Table{Path: "/Culture", KeyField: "cultureId", EmptyPut: true})
	stub.Seed("/Culture", model.Culture{CultureID: "en    ", Name: "English"})
	tr := apiclient.NewTransport(apiclient.TransportOptions{BaseURL: stub.URL()})
	res := apiclient.NewResource[model.Culture, string](tr, apiclient.ResourceOptions{
		Path:     "/Culture",
		IDFormat: apiclient.PadRight{Width: model.CultureIDWidth},
	})
	d := NewDetails[model.Culture, string](res, DetailsOptions[model.Culture]{})
	ctx := context.Background()

	require.NoError(t, d.Select(ctx, "en"))
	rec, ok := d.Record()
	require.True(t, ok)
	assert.Equal(t, "English", rec.Name)

	rec.Name = "English (Intl)"
	updated, err := d.Update(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "English (Intl)", updated.Name, "empty PUT body keeps the submitted record")
	assert.Equal(t, "English (Intl)", stub.Rows("/Culture")[0]["name"])
}
