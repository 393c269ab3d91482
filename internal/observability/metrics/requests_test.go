package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/observability/statsd"
)

func TestEmitRequest_Success(t *testing.T) {
	var rec statsd.Recorder
	EmitRequest(&rec, RequestMetric{Resource: "employees", Method: "GET", Status: 200, Duration: 20 * time.Millisecond})

	counts := rec.Named(RequestCount)
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"resource": "employees",
		"method":   "GET",
		"result":   ResultSuccess,
		"status":   "200",
	}, counts[0].Tags)

	timings := rec.Named(RequestDuration)
	require.Len(t, timings, 1)
	assert.InDelta(t, 20.0, timings[0].Value, 0.001)
}

func TestEmitRequest_ErrorClass(t *testing.T) {
	var rec statsd.Recorder
	err := &apperrors.AppError{Code: apperrors.ErrCodeNotFound, Message: "missing"}
	EmitRequest(&rec, RequestMetric{Resource: "cultures", Method: "GET", Status: 404, Err: err})

	counts := rec.Named(RequestCount)
	require.Len(t, counts, 1)
	assert.Equal(t, ResultError, counts[0].Tags["result"])
	assert.Equal(t, "not_found", counts[0].Tags["error_class"])
	assert.Empty(t, rec.Named(RequestDuration), "no timing without duration")
}

func TestEmitRequest_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitRequest(nil, RequestMetric{Err: errors.New("x")})
	})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
