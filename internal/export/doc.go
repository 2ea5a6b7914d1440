// Package export turns stored entries and day-tag associations into portable
// artifacts.
//
// The pipeline has four stages:
//
//	Aggregator  reads rows from the store and projects them into a Table
//	Encoder     serializes a Table in one ExportFormat (CSV, JSON)
//	Sink        persists encoded bytes under a deterministic name
//	Sharer      hands a finished artifact to the OS or a share directory
//
// Exporter wires the stages together and reports every expected failure as
// a domain.ExportResult value rather than an error.
package export
