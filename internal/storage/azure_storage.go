package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStorage downloads label images from a blob container
type BlobStorage interface {
	GetBlob(ctx context.Context, container, blob string) ([]byte, error)
}

type azureStorage struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureStorage creates a shared-key Azure Blob Storage client
func NewAzureStorage(accountName string, accountKey string, maxBytes int64) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &azureStorage{client: client, maxBytes: maxBytes}, nil
}

func (s *azureStorage) GetBlob(ctx context.Context, container, blob string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	return ReadLimited(body, s.maxBytes)
}
