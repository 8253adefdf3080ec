package interchange

import (
	"fmt"
	"strings"

	"firesafety-backend/internal/models"
)

// SafeTimestamp makes an RFC3339 timestamp usable in a file path by
// replacing ':' and '.' with '-'.
func SafeTimestamp(ts string) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}

// ContentType returns the MIME type for a backup format.
func ContentType(format string) string {
	if format == models.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Encode renders the snapshot in the given backup format.
func Encode(data *models.AppData, format string) ([]byte, error) {
	switch format {
	case models.FormatXLSX:
		return ExportWorkbook(data)
	case models.FormatJSON, "":
		return ExportJSON(data)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
