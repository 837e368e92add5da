package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-tether/binding"
	"github.com/google/uuid"
)

// instrumentation bundles the logger, metrics recorder, and event sink shared
// by every owner, handle, and guard minted against the same runtime. A nil
// instrumentation is valid and silent.
type instrumentation struct {
	service string
	logger  Logger
	metrics MetricsRecorder
	sink    BindingEventSink
	now     func() time.Time
}

func (in *instrumentation) clock() time.Time {
	if in == nil || in.now == nil {
		return time.Now().UTC()
	}
	return in.now().UTC()
}

// observe reports one protocol operation: a structured log line, a counter,
// and a latency histogram, tagged by operation and outcome.
func (in *instrumentation) observe(startedAt time.Time, operation string, err error, fields map[string]any) {
	if in == nil {
		return
	}
	ctx := context.Background()
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range []string{"binding_id", "owner", "policy"} {
		if value, ok := contextFields[key].(string); ok && strings.TrimSpace(value) != "" {
			tags[key] = value
		}
	}

	in.recordCounter(ctx, "tether."+operation+".total", 1, tags)
	in.recordHistogram(ctx, "tether."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		in.logError(operation+" failed", contextFields)
		return
	}
	in.logInfo(operation+" succeeded", contextFields)
}

// record emits one binding event to the sink. Sink failures are logged, never
// propagated: the protocol operation already succeeded.
func (in *instrumentation) record(policy binding.Policy, owner string, eventType BindingEventType, metadata map[string]any) {
	if in == nil || in.sink == nil || policy == nil {
		return
	}
	event := BindingEvent{
		ID:          uuid.NewString(),
		BindingID:   policy.ID(),
		Owner:       owner,
		Policy:      policy.Name(),
		Type:        eventType,
		Outstanding: policy.Outstanding(),
		Metadata:    copyAnyMap(metadata),
		CreatedAt:   in.clock(),
	}
	if err := in.sink.Record(context.Background(), event); err != nil {
		in.logError("binding event record failed", map[string]any{
			"binding_id": event.BindingID,
			"event_type": string(event.Type),
			"error":      err.Error(),
		})
	}
}

func (in *instrumentation) logInfo(message string, fields map[string]any) {
	in.logWithLevel("info", message, fields)
}

func (in *instrumentation) logError(message string, fields map[string]any) {
	in.logWithLevel("error", message, fields)
}

func (in *instrumentation) logWithLevel(level string, message string, fields map[string]any) {
	if in == nil || in.logger == nil {
		return
	}
	logger := in.logger
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (in *instrumentation) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if in == nil || in.metrics == nil {
		return
	}
	in.metrics.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (in *instrumentation) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if in == nil || in.metrics == nil {
		return
	}
	in.metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
