package storage

import (
	"context"
	"fmt"

	"cgiad/internal/adapters/storage/gdrive"
	"cgiad/internal/adapters/storage/localfs"
	"cgiad/internal/adapters/storage/s3store"
	"cgiad/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewProvider builds the provider selected by sc. Shared credentials (Drive,
// S3) come from cfg.
func NewProvider(ctx context.Context, sc config.StorageConfig, cfg *config.Config) (Provider, error) {
	switch sc.Provider {
	case "", "localfs":
		return localfs.New(sc.LocalRoot)

	case "gdrive":
		return newGDriveProvider(ctx, cfg.GDrive, sc.GDriveFolderID)

	case "s3":
		return s3store.New(ctx, s3store.Options{
			Bucket:       cfg.S3.Bucket,
			Prefix:       sc.S3Prefix,
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			UsePathStyle: cfg.S3.UsePathStyle,
		})

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", sc.Provider)
	}
}

func newGDriveProvider(ctx context.Context, gc config.GDriveConfig, folderID string) (Provider, error) {
	if gc.ClientID == "" || gc.ClientSecret == "" || gc.RefreshToken == "" {
		return nil, fmt.Errorf("gdrive: client id, client secret and refresh token are required")
	}

	conf := &oauth2.Config{
		ClientID:     gc.ClientID,
		ClientSecret: gc.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	// Background context: the token source outlives the constructor call.
	httpClient := conf.Client(context.Background(), &oauth2.Token{RefreshToken: gc.RefreshToken})

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("gdrive: new service: %w", err)
	}

	return gdrive.NewClient(srv, folderID), nil
}
