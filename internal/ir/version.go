package ir

// Version constants recorded with persisted runs.
const (
	// SchemaVersion is the version of the serialized result model.
	SchemaVersion = "1"

	// EngineVersion is the decomposition engine version.
	EngineVersion = "0.1.0"
)
