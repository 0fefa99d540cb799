package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute       = "route"
	ProfilingLabelMethod      = "method"
	ProfilingLabelController  = "controller"
	ProfilingLabelEnvironment = "environment"
	ProfilingLabelOperation   = "operation"
)

// Profiled operations
const (
	OperationEnrichRows  = "enrich_rows"
	OperationCreateOrder = "create_order"
)

// MaxLabelValueLength caps profiling label values.
const MaxLabelValueLength = 128

// highCardinalityLabels are never attached to profiles.
var highCardinalityLabels = map[string]bool{
	"user":       true,
	"request_id": true,
	"session_id": true,
	"trace_id":   true,
	"span_id":    true,
}

// WithProfilingLabels runs fn with the labels attached to the goroutine's
// profile samples. Empty, oversized and high cardinality labels are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// OperationLabels labels one pipeline operation within an environment.
func OperationLabels(operation, environment string) map[string]string {
	return map[string]string{
		ProfilingLabelOperation:   operation,
		ProfilingLabelEnvironment: environment,
	}
}

// sanitizeLabels returns the labels as sorted key/value pairs.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		name := sanitizeLabelKey(key)
		if name == "" || value == "" || highCardinalityLabels[name] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, name, value)
	}
	return pairs
}

// sanitizeLabelKey converts a key to snake_case ASCII.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(key)

	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
