package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"firesafety-backend/internal/interchange"
	"firesafety-backend/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	DropboxAPIURL     = "https://api.dropboxapi.com"
	DropboxContentURL = "https://content.dropboxapi.com"
)

// Dropbox uploads whole-snapshot files with the v2 HTTP API.
type Dropbox struct {
	api     *resty.Client
	content *resty.Client
}

func NewDropbox(token string) *Dropbox {
	return NewDropboxWithEndpoints(token, DropboxAPIURL, DropboxContentURL)
}

// NewDropboxWithEndpoints points the adapter at other hosts, for tests.
func NewDropboxWithEndpoints(token, apiURL, contentURL string) *Dropbox {
	newClient := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(strings.TrimRight(base, "/")).
			SetAuthToken(token).
			SetTimeout(2 * time.Minute)
	}
	return &Dropbox{api: newClient(apiURL), content: newClient(contentURL)}
}

func (d *Dropbox) Name() string { return "dropbox" }

func (d *Dropbox) VerifyCredential(ctx context.Context) (bool, error) {
	// get_current_account takes no arguments; the body must be JSON null
	resp, err := d.api.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody("null").
		Post("/2/users/get_current_account")
	if err != nil {
		return false, fmt.Errorf("dropbox request: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return false, nil
	case resp.IsError():
		return false, fmt.Errorf("dropbox status %d: %s", resp.StatusCode(), resp.String())
	}
	return true, nil
}

type dropboxUploadArg struct {
	Path       string `json:"path"`
	Mode       string `json:"mode"`
	Autorename bool   `json:"autorename"`
}

// BackupPath is the upload path for a backup taken at ts.
func BackupPath(ts time.Time, format string) string {
	return "/" + interchange.Filename(format, models.StampISO(ts))
}

func (d *Dropbox) Push(ctx context.Context, req PushRequest) Result {
	format := req.Format
	if format == "" {
		format = models.FormatJSON
	}
	body, err := interchange.Encode(req.Snapshot, format)
	if err != nil {
		return fail(KindBackend, err.Error())
	}

	path := BackupPath(req.Time, format)
	arg, _ := json.Marshal(dropboxUploadArg{Path: path, Mode: "add", Autorename: true})

	resp, err := d.content.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetHeader("Dropbox-API-Arg", string(arg)).
		SetBody(body).
		Post("/2/files/upload")
	if err != nil {
		return fail(KindNetwork, fmt.Sprintf("Network error: %v", err))
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return fail(KindAuth, "Dropbox token invalid or expired")
	}
	if resp.IsError() {
		return fail(KindBackend, fmt.Sprintf("Dropbox upload failed (%d): %s", resp.StatusCode(), strings.TrimSpace(resp.String())))
	}

	r := ok(fmt.Sprintf("Backup uploaded to %s", path))
	r.Path = path
	return r
}
