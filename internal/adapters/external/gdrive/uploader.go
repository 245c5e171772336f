// Package gdrive uploads generated export files to Google Drive.
package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/kritsadas/ledger_export_app/internal/core/domain"
	portssvc "github.com/kritsadas/ledger_export_app/internal/core/ports/services"
)

// Config holds the Drive upload settings.
type Config struct {
	CredentialsFile string
	FolderID        string
}

// Uploader implements the FileUploader port against Google Drive.
type Uploader struct {
	service *drive.Service
	config  Config
	logger  *slog.Logger
}

// NewUploader creates a new Drive uploader using service account credentials.
func NewUploader(ctx context.Context, config Config, logger *slog.Logger) (*Uploader, error) {
	if config.CredentialsFile == "" {
		return nil, fmt.Errorf("drive credentials file is required")
	}

	data, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive credentials: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(data, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse drive credentials: %w", err)
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Uploader{
		service: service,
		config:  config,
		logger:  logger,
	}, nil
}

// Ensure Uploader implements the portssvc.FileUploader interface
var _ portssvc.FileUploader = (*Uploader)(nil)

// Upload stores the file in the configured folder and opens link sharing so
// the webViewLink in notifications works without a Drive login.
func (u *Uploader) Upload(ctx context.Context, filename string, content []byte) (*domain.UploadResult, error) {
	meta := &drive.File{
		Name:     filename,
		MimeType: "text/csv",
	}
	if u.config.FolderID != "" {
		meta.Parents = []string{u.config.FolderID}
	}

	file, err := u.service.Files.Create(meta).
		Media(bytes.NewReader(content)).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := u.service.Permissions.Create(file.Id, perm).Context(ctx).Do(); err != nil {
		u.logger.Warn("Failed to open link sharing on uploaded file",
			slog.String("file_id", file.Id),
			slog.String("error", err.Error()))
	}

	u.logger.Info("File uploaded to Drive",
		slog.String("filename", filename),
		slog.String("file_id", file.Id))
	return &domain.UploadResult{
		FileID:      file.Id,
		WebViewLink: file.WebViewLink,
		Filename:    filename,
	}, nil
}
