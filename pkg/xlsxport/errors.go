package xlsxport

import "errors"

// Fatal error classes. Post-processing step failures are deliberately not
// represented here: they are downgraded to warnings and never abort an export.
var (
	// ErrConfigConflict is returned by validation before any worksheet
	// mutation when two requested modes cannot be combined.
	ErrConfigConflict = errors.New("xlsxport: conflicting export options")

	// ErrPassword is returned when workbook protection could not be applied.
	// Unlike other finishing steps this is never downgraded to a warning.
	ErrPassword = errors.New("xlsxport: failed to protect workbook")

	// ErrNoRecords is returned when the input stream yields nothing and the
	// destination sheet has no pre-existing header to fall back on.
	ErrNoRecords = errors.New("xlsxport: no records to export")
)
