package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	mimeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	mimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Service struct {
	srv *drive.Service
}

// NewService builds a read-only Drive client from service-account credentials.
func NewService(ctx context.Context, credentialsJSON []byte) (*Service, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

// NewServiceFromConfig accepts inline credentials or a path to a credentials file.
func NewServiceFromConfig(ctx context.Context, credentialsJSON, credentialsFile string) (*Service, error) {
	creds := []byte(credentialsJSON)
	if len(creds) == 0 {
		if credentialsFile == "" {
			return nil, fmt.Errorf("drive credentials must be provided")
		}
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read drive credentials %s: %w", credentialsFile, err)
		}
		creds = b
	}
	return NewService(ctx, creds)
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Version      int64  `json:"version,string,omitempty"`
}

// FileMeta fetches the metadata used to detect edits.
func (s *Service) FileMeta(ctx context.Context, fileID string) (*File, error) {
	f, err := s.srv.Files.Get(fileID).
		Fields("id, name, mimeType, modifiedTime, version").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to stat file %s: %w", fileID, err)
	}
	return &File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Version:      f.Version,
	}, nil
}

// DownloadWorkbook writes the file as .xlsx. Native Google Sheets are exported;
// uploaded workbooks are downloaded as stored.
func (s *Service) DownloadWorkbook(ctx context.Context, file *File, w io.Writer) error {
	var (
		resp *http.Response
		err  error
	)
	if file.MimeType == mimeGoogleSheet {
		resp, err = s.srv.Files.Export(file.ID, mimeXLSX).Context(ctx).Download()
	} else {
		resp, err = s.srv.Files.Get(file.ID).SupportsAllDrives(true).Context(ctx).Download()
	}
	if err != nil {
		return fmt.Errorf("unable to download file %s: %w", file.ID, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("unable to read file %s: %w", file.ID, err)
	}
	return nil
}
