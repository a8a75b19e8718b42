package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureUploader implements Uploader against Azure Blob Storage. Credentials
// come from Azure.StorageConnectionString when set; otherwise from
// Azure.AccountURL authenticated via DefaultAzureCredential (managed
// identity, workload identity, or az-cli login) — both read from the
// configurations table, not the process environment, so they stay
// runtime-editable like everything else tunable.
type AzureUploader struct {
	client *azblob.Client
}

// NewAzureUploader builds a client from a connection string, or, when
// connectionString is empty, from accountURL authenticated via
// DefaultAzureCredential.
func NewAzureUploader(connectionString, accountURL string) (*AzureUploader, error) {
	if connectionString != "" {
		client, err := azblob.NewClientFromConnectionString(connectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("azure client: %w", err)
		}
		return &AzureUploader{client: client}, nil
	}

	if accountURL == "" {
		return nil, errors.New("missing both Azure.StorageConnectionString and Azure.AccountURL")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure default credential: %w", err)
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}
	return &AzureUploader{client: client}, nil
}

func (u *AzureUploader) Upload(ctx context.Context, localPath string, ref ObjectRef, sha256Hex string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return Permanent(err)
	}
	defer f.Close()

	var meta map[string]*string
	if sha256Hex != "" {
		v := sha256Hex
		meta = map[string]*string{"sha256": &v}
	}

	_, err = u.client.UploadFile(ctx, ref.Container, ref.Object, f, &azblob.UploadFileOptions{
		Metadata: meta,
	})
	if err != nil {
		return classifyAzureError(err)
	}
	return nil
}

func (u *AzureUploader) ListContainers(ctx context.Context) ([]string, error) {
	var names []string
	pager := u.client.NewListContainersPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classifyAzureError(err)
		}
		for _, c := range page.ContainerItems {
			if c.Name != nil {
				names = append(names, *c.Name)
			}
		}
	}
	return names, nil
}

// VerifyUpload re-reads the blob's properties and compares its size
// against expectedSize. Azure blob properties carry a content MD5, not a
// CRC32C, so CRC32C verification is reported unsupported here.
func (u *AzureUploader) VerifyUpload(ctx context.Context, ref ObjectRef, expectedSize int64, expectedCRC32C uint32) (VerifyResult, error) {
	props, err := u.client.ServiceClient().NewContainerClient(ref.Container).NewBlobClient(ref.Object).GetProperties(ctx, nil)
	if err != nil {
		return VerifyResult{}, classifyAzureError(err)
	}
	if props.ContentLength == nil {
		return VerifyResult{}, nil
	}
	return VerifyResult{SizeMatches: *props.ContentLength == expectedSize}, nil
}

func (u *AzureUploader) Probe(ctx context.Context) ProbeResult {
	pager := u.client.NewListContainersPager(nil)
	if pager.More() {
		if _, err := pager.NextPage(ctx); err != nil {
			return ProbeResult{Connected: false, Reason: err.Error()}
		}
	}
	return ProbeResult{Connected: true}
}

// classifyAzureError maps azcore response errors into the transient /
// permanent taxonomy the processor depends on: 4xx/auth is permanent,
// throttling and 5xx (and anything unrecognized, conservatively) is
// transient.
func classifyAzureError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode >= 400 && respErr.StatusCode < 500 && respErr.StatusCode != http.StatusTooManyRequests {
			return Permanent(err)
		}
	}
	return Transient(err)
}
