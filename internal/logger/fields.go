package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldBuildID identifies one offline index build run
	FieldBuildID = "build_id"

	// FieldSearchID is the search request ID
	FieldSearchID = "search_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldStage is the index build stage (load, providers, encode, persist)
	FieldStage = "stage"
)

// Metric fields, used for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
