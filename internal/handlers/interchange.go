package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"firesafety-backend/internal/audit"
	"firesafety-backend/internal/interchange"
	"firesafety-backend/internal/merge"
	"firesafety-backend/internal/metrics"
	"firesafety-backend/internal/models"
	"firesafety-backend/internal/storage"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

// Export downloads the snapshot as a json or xlsx file. Admins get the full
// backup; anyone else gets the same redacted view as GET /api/snapshot.
func Export(store *storage.Store, format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}
		data, ok := currentData(w, store)
		if !ok {
			return
		}
		if !user.IsAdmin() {
			data = Redact(data, user)
		}

		body, err := interchange.Encode(data, format)
		if err != nil {
			log.Error().Err(err).Str("format", format).Msg("❌ export failed")
			utils.RespondError(w, http.StatusInternalServerError, "Export failed")
			return
		}

		name := interchange.Filename(format, models.StampISO(time.Now()))
		log.Info().Str("format", format).Int("bytes", len(body)).Str("by", user.TechnicianID).Msg("📤 snapshot exported")
		utils.RespondFile(w, interchange.ContentType(format), name, body)
	}
}

// Import parses an uploaded file (raw body or multipart field "file") and
// merges it into the current snapshot.
func Import(store *storage.Store, format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := requireUser(w, r)
		if !ok {
			return
		}

		src, closeSrc, err := uploadReader(r)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer closeSrc()

		var incoming *models.AppData
		switch format {
		case models.FormatXLSX:
			incoming, err = interchange.ImportWorkbook(src)
		default:
			incoming, err = interchange.ImportJSON(src)
		}
		if err != nil {
			log.Warn().Err(err).Str("format", format).Msg("⚠️  import rejected")
			utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Could not read %s file: %v", format, err))
			return
		}

		merged, err := store.Update(r.Context(), func(d *models.AppData) error {
			now := time.Now()
			*d = *merge.MergeAt(d, incoming, now)
			audit.Record(d, models.ActionUpdated, models.EntitySystem, "Data import", user,
				fmt.Sprintf("Imported %s: %d customers, %d units, %d inspections",
					format, len(incoming.Customers), len(incoming.Extinguishers), len(incoming.Records)), now)
			return nil
		})
		if err != nil {
			respondUpdateError(w, err)
			return
		}
		metrics.Merges.WithLabelValues(format).Inc()

		log.Info().
			Str("format", format).
			Int("customers", len(merged.Customers)).
			Int("extinguishers", len(merged.Extinguishers)).
			Str("by", user.TechnicianID).
			Msg("📥 import merged")
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success":       true,
			"customers":     len(merged.Customers),
			"extinguishers": len(merged.Extinguishers),
			"inspections":   len(merged.Records),
			"lastUpdated":   merged.LastUpdated,
		})
	}
}

func uploadReader(r *http.Request) (io.Reader, func(), error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, nil, fmt.Errorf("invalid upload: %w", err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, nil, fmt.Errorf("missing file field: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	return io.LimitReader(r.Body, maxImportBytes), func() {}, nil
}
