package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

type AzureStore struct {
	client    *azblob.Client
	container string
}

func NewAzureStore(accountName, accountKey, container string) (*AzureStore, error) {
	if accountName == "" || accountKey == "" || container == "" {
		return nil, errors.New("azure account, key and container are required")
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net/", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureStore{client: client, container: container}, nil
}

func (s *AzureStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, opts); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return s.blobURL(name), nil
}

func (s *AzureStore) blobURL(name string) string {
	return strings.TrimRight(s.client.URL(), "/") + "/" + s.container + "/" + name
}
