package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/domain"
)

const pdfMimeType = "application/pdf"

// DriveLocator finds the report-card PDF for an enrollment number inside one
// configured Drive folder.
type DriveLocator struct {
	svc      *drive.Service
	folderID string
	logger   *slog.Logger
}

func NewDriveLocator(svc *drive.Service, folderID string, logger *slog.Logger) *DriveLocator {
	return &DriveLocator{
		svc:      svc,
		folderID: folderID,
		logger:   logger.With("component", "drive_locator"),
	}
}

// Locate queries for non-trashed PDFs whose name contains the enrollment
// number and takes the first result in store-default order. A matched file
// with no resolvable download link counts as not found, not as a failure.
func (l *DriveLocator) Locate(ctx context.Context, enrollmentNumber string) (*domain.DocumentRef, bool, error) {
	query := fmt.Sprintf(
		"'%s' in parents and mimeType = '%s' and name contains '%s' and trashed = false",
		l.folderID, pdfMimeType, escapeQueryTerm(enrollmentNumber),
	)

	resp, err := l.svc.Files.List().
		Q(query).
		Fields("files(id, name, webContentLink)").
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return nil, false, &domain.LocatorError{Op: "list files", Err: err}
	}

	if len(resp.Files) == 0 {
		l.logger.DebugContext(ctx, "No PDF matched enrollment number", "enrollment_number", enrollmentNumber)
		return nil, false, nil
	}

	file := resp.Files[0]
	if file.WebContentLink == "" {
		l.logger.WarnContext(ctx, "Matched file has no download link", "file_id", file.Id, "file_name", file.Name)
		return nil, false, nil
	}

	return &domain.DocumentRef{
		ID:           file.Id,
		Name:         file.Name,
		DownloadLink: file.WebContentLink,
	}, true, nil
}

// escapeQueryTerm escapes the characters Drive query strings treat specially.
func escapeQueryTerm(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
