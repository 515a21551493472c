package types

// ExportResult holds the outcome of exporting a single file.
type ExportResult struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	Rating          Rating `json:"rating"`
	Exported        bool   `json:"exported"`
	Skipped         bool   `json:"skipped,omitempty"`
	Error           error  `json:"error,omitempty"`
}
