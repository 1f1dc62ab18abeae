package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"

	// Scan fields
	FieldPlaylistDir  = "playlist_dir"
	FieldPlaylistFile = "playlist_file"
	FieldFiles        = "files"
	FieldURLs         = "urls"

	// Probe fields
	FieldURL        = "url"
	FieldHost       = "host"
	FieldOK         = "ok"
	FieldReason     = "reason"
	FieldStatusCode = "status_code"
	FieldMethod     = "method"
	FieldElapsedMS  = "elapsed_ms"
	FieldProgress   = "progress"

	// Output fields
	FieldPath  = "path"
	FieldRunID = "run_id"
	FieldAddr  = "addr"
)
