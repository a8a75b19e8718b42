package blob

import (
	"context"
	"fmt"
)

// New selects a concrete Uploader by provider ("azure" | "gcs" | "fs"),
// reading whatever credentials that backend needs from cfg. An empty
// provider defaults to "azure".
type Config struct {
	Provider               string
	AzureConnectionString  string
	AzureAccountURL        string
	GCSCredentialsJSONPath string
	FSStubDir              string
}

func New(ctx context.Context, cfg Config) (Uploader, error) {
	switch cfg.Provider {
	case "", "azure":
		return NewAzureUploader(cfg.AzureConnectionString, cfg.AzureAccountURL)
	case "gcs":
		return NewGCSUploader(ctx, cfg.GCSCredentialsJSONPath)
	case "fs":
		dir := cfg.FSStubDir
		if dir == "" {
			dir = "./fsstub"
		}
		return NewFSStub(dir)
	default:
		return nil, fmt.Errorf("unknown Storage.Provider %q", cfg.Provider)
	}
}
