package logging

// These constants are the context keys attached to log events
const (
	// SERVICE_KEY is the key under which a sub-logger records the service that emitted the event
	SERVICE_KEY = "service"

	// RUN_ID_KEY is the key under which the unique identifier of an export run is recorded
	RUN_ID_KEY = "runId"
)

// These constants are used to identify the various services that may do some logging
const (
	// COMPILATION_SERVICE is the constant used to identify the compilation package
	COMPILATION_SERVICE = "compilation"
	// TOOLCHAIN_SERVICE is the constant used to identify the toolchain package
	TOOLCHAIN_SERVICE = "toolchain"
	// EXPORT_SERVICE is the constant used to identify the export package
	EXPORT_SERVICE = "export"
	// CLI_SERVICE is the constant used to identify the cmd package
	CLI_SERVICE = "cli"
)
