package domain

// ExportFormat selects the artifact encoding.
type ExportFormat string

const (
	// ExportFormatCSV produces RFC 4180 comma-separated values.
	ExportFormatCSV ExportFormat = "csv"
	// ExportFormatJSON produces an array of row objects.
	ExportFormatJSON ExportFormat = "json"
	// ExportFormatYAML produces a sequence of row mappings.
	ExportFormatYAML ExportFormat = "yaml"
)

// Valid returns true if the format is recognized.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatJSON, ExportFormatYAML:
		return true
	default:
		return false
	}
}

// ExportOptions selects the entries to export and how to encode them.
// StartDate and EndDate are inclusive.
type ExportOptions struct {
	StartDate    string       `json:"start_date" validate:"required,isodate"`
	EndDate      string       `json:"end_date" validate:"required,isodate"`
	Format       ExportFormat `json:"format" validate:"required,oneof=csv json yaml"`
	IncludeNotes bool         `json:"include_notes"`
}

// ExportResult reports the outcome of an export.
// On success FilePath and EntriesCount are set and Error/Code are empty;
// on failure only Error and Code are set.
type ExportResult struct {
	Success      bool   `json:"success"`
	FilePath     string `json:"file_path,omitempty"`
	EntriesCount int    `json:"entries_count"`
	Error        string `json:"error,omitempty"`
	Code         string `json:"code,omitempty"`
}
