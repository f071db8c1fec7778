package export

import (
	"github.com/crytic/solcexport/compilation/types"
	"github.com/crytic/solcexport/events"
)

// ExporterEvents defines event emitters for an Exporter.
type ExporterEvents struct {
	// ContractSelected emits events when the source compiled and the contract to export was selected, before any
	// artifact is rendered. A handler error fails the export before anything is written.
	ContractSelected events.EventEmitter[ContractSelectedEvent]

	// ArtifactsWritten emits events once every artifact of an export has been written.
	ArtifactsWritten events.EventEmitter[ArtifactsWrittenEvent]
}

// ContractSelectedEvent describes an event where an Exporter selected the contract to export.
type ContractSelectedEvent struct {
	// Exporter represents the instance of the Exporter for which the event occurred.
	Exporter *Exporter

	// Contract is the selected contract.
	Contract *types.ContractRef

	// CompilerOutput holds any diagnostics the compiler printed.
	CompilerOutput string
}

// ArtifactsWrittenEvent describes an event where an Exporter wrote its artifacts.
type ArtifactsWrittenEvent struct {
	// Exporter represents the instance of the Exporter for which the event occurred.
	Exporter *Exporter

	// Paths are the paths of the written artifacts, in the order they were written.
	Paths []string
}
