package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/target/crud-console/internal/observability/errors"
	"github.com/target/crud-console/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metric names emitted by the API client.
const (
	RequestCount    = "api.request"
	RequestDuration = "api.request.duration"
)

// RequestMetric captures one backend round-trip for metric emission.
type RequestMetric struct {
	Resource string
	Method   string
	Status   int
	Duration time.Duration
	Err      error
}

// EmitRequest emits standardised request metrics. A nil sink is a no-op.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if in.Err != nil {
		result = ResultError
	}

	tags := map[string]string{
		"resource": in.Resource,
		"method":   in.Method,
		"result":   result,
	}
	if in.Status > 0 {
		tags["status"] = strconv.Itoa(in.Status)
	}
	if class := obserrors.Classify(in.Err); class != "" {
		tags["error_class"] = class
	}

	sink.Count(RequestCount, 1, tags)

	if in.Duration > 0 {
		sink.Timing(RequestDuration, in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
