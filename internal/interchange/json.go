package interchange

import (
	"encoding/json"
	"fmt"
	"io"

	"firesafety-backend/internal/models"
)

// ExportJSON serializes the whole snapshot, indented for humans.
func ExportJSON(data *models.AppData) ([]byte, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return raw, nil
}

// ImportJSON parses a snapshot file. Nothing is validated beyond the parse;
// fields absent from the file stay nil and are left alone by a merge.
func ImportJSON(r io.Reader) (*models.AppData, error) {
	var data models.AppData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &data, nil
}

// Filename is the suggested download name for an export taken at ts.
func Filename(format string, ts string) string {
	return fmt.Sprintf("fire_safety_backup_%s.%s", SafeTimestamp(ts), format)
}
