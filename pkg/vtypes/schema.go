package vtypes

// DataType is the wire ordinal of a measurement's value type. Its concrete
// set of values is owned by the storage engine; the core only ever
// forwards the ordinal byte, as fetchSingleSeries requires.
type DataType int32

// MeasurementSchema describes a single time-series' name and value type. The
// schema registry (an injected capability) is the source of truth; this
// struct is the wire/cache shape the core passes around.
type MeasurementSchema struct {
	Path     string   `json:"path"`
	DataType DataType `json:"dataType"`
}
