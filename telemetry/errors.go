package telemetry

import "errors"

var (
	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context must not be nil")

	// ErrUnknownExporter is returned when an unknown exporter type is specified.
	ErrUnknownExporter = errors.New("unknown exporter type")

	// ErrUnknownLevel is returned for a log level other than debug, info, warn or error.
	ErrUnknownLevel = errors.New("unknown log level")

	// ErrUnknownFormat is returned for a log format other than text, json or auto.
	ErrUnknownFormat = errors.New("unknown log format")
)
