package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID).
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name.
	FieldComponent = "component"

	// FieldViewerID is the identity of the viewer the request runs for.
	FieldViewerID = "viewer_id"

	// FieldRecipeID is the recipe a log line concerns.
	FieldRecipeID = "recipe_id"
)

// Metric fields, attached per log line for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldStatus is the HTTP or operation status.
	FieldStatus = "status"

	// FieldSize is the response size in bytes.
	FieldSize = "size"

	// FieldCount is a generic count field.
	FieldCount = "count"
)
