package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSUploader implements Uploader against Google Cloud Storage, a second
// concrete backend behind the same capability interface, selectable via
// Storage.Provider=gcs.
type GCSUploader struct {
	client *storage.Client
}

// NewGCSUploader builds a client either from a service-account JSON file
// (credsJSON) or, when empty, from Application Default Credentials.
func NewGCSUploader(ctx context.Context, credsJSON string) (*GCSUploader, error) {
	var client *storage.Client
	var err error
	if credsJSON != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credsJSON))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSUploader{client: client}, nil
}

func (u *GCSUploader) Close() error { return u.client.Close() }

func (u *GCSUploader) Upload(ctx context.Context, localPath string, ref ObjectRef, sha256Hex string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return Permanent(err)
	}
	defer file.Close()

	obj := u.client.Bucket(ref.Container).Object(ref.Object)
	w := obj.NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if sha256Hex != "" {
		w.Metadata = map[string]string{"sha256": sha256Hex}
	}

	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return classifyGCSError(err)
	}
	if err := w.Close(); err != nil {
		return classifyGCSError(err)
	}
	return nil
}

func (u *GCSUploader) ListContainers(ctx context.Context) ([]string, error) {
	var names []string
	it := u.client.Buckets(ctx, "")
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyGCSError(err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// VerifyUpload re-reads the object's attributes and compares its size and
// CRC32C against the locally computed values.
func (u *GCSUploader) VerifyUpload(ctx context.Context, ref ObjectRef, expectedSize int64, expectedCRC32C uint32) (VerifyResult, error) {
	attrs, err := u.client.Bucket(ref.Container).Object(ref.Object).Attrs(ctx)
	if err != nil {
		return VerifyResult{}, classifyGCSError(err)
	}
	return VerifyResult{
		SizeMatches:     attrs.Size == expectedSize,
		CRC32CSupported: true,
		CRC32CMatches:   attrs.CRC32C == expectedCRC32C,
	}, nil
}

func (u *GCSUploader) Probe(ctx context.Context) ProbeResult {
	it := u.client.Buckets(ctx, "")
	_, err := it.Next()
	if err != nil && err != iterator.Done {
		return ProbeResult{Connected: false, Reason: err.Error()}
	}
	return ProbeResult{Connected: true}
}

// classifyGCSError maps googleapi errors into the transient/permanent
// taxonomy: auth and malformed-name (4xx, except 429) are permanent,
// throttling and 5xx are transient.
func classifyGCSError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 429 || gerr.Code >= 500 {
			return Transient(err)
		}
		if gerr.Code >= 400 {
			return Permanent(err)
		}
	}
	return Transient(err)
}
