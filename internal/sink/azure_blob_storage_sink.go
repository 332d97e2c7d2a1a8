package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/chtzvt/certtab/internal/secrets"
)

type AzureBlobSink struct {
	account     string
	container   string
	prefix      string
	compression string
	bufferType  string
	keySecret   string
	serviceURL  string
	secrets     *secrets.Store

	Client BlockBlobUploadAPI // test only; nil in prod, set by test
}

// BlockBlobUploadAPI abstracts the block blob UploadStream method (for testing)
type BlockBlobUploadAPI interface {
	UploadStream(ctx context.Context, body io.Reader, options *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

func NewAzureBlobSink(opts map[string]interface{}, secrets *secrets.Store) (Sink, error) {
	account := stringOpt(opts, "account", "")
	container := stringOpt(opts, "container", "")
	if account == "" || container == "" {
		return nil, fmt.Errorf("azureblob sink requires 'account' and 'container' options")
	}
	return &AzureBlobSink{
		account:     account,
		container:   container,
		prefix:      stringOpt(opts, "prefix", ""),
		compression: stringOpt(opts, "compression", "none"),
		bufferType:  stringOpt(opts, "buffer_type", "memory"),
		keySecret:   stringOpt(opts, "access_key_secret", "AZURE_STORAGE_KEY"),
		serviceURL:  stringOpt(opts, "service_url", fmt.Sprintf("https://%s.blob.core.windows.net/", account)),
		secrets:     secrets,
	}, nil
}

// BuildBlobKey joins prefix and name into a blob name.
func BuildBlobKey(prefix, name string) string {
	return joinKey(prefix, name)
}

func (a *AzureBlobSink) blobClient(ctx context.Context, blobName string) (BlockBlobUploadAPI, error) {
	if a.Client != nil {
		return a.Client, nil
	}
	key, err := secret(ctx, a.secrets, a.keySecret)
	if err != nil {
		return nil, err
	}
	cred, err := azblob.NewSharedKeyCredential(a.account, key)
	if err != nil {
		return nil, fmt.Errorf("azure shared key credential error: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(a.serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure blob client init error: %w", err)
	}
	return client.ServiceClient().NewContainerClient(a.container).NewBlockBlobClient(blobName), nil
}

func (a *AzureBlobSink) Open(ctx context.Context, name string) (SinkWriter, error) {
	blobName := BuildBlobKey(a.prefix, name)
	client, err := a.blobClient(ctx, blobName)
	if err != nil {
		return nil, err
	}
	return newUploadWriter(ctx, a.compression, a.bufferType, func(ctx context.Context, body io.Reader, _ int64) error {
		if _, err := client.UploadStream(ctx, body, nil); err != nil {
			return fmt.Errorf("azure upload %s: %w", blobName, err)
		}
		return nil
	})
}

func init() {
	Register("azureblob", NewAzureBlobSink)
}
