// Package assets moves generated images out of result payloads and into blob
// storage, replacing inline data URIs with stored URLs.
package assets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"oferta-studio/internal/campaign"
	"oferta-studio/internal/dataurl"
	"oferta-studio/internal/logging"
)

// Store persists one object and returns the URL it can be fetched from.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

type Publisher struct {
	store  Store
	prefix string
	logger *zap.Logger
}

func NewPublisher(store Store, prefix string, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logging.OrNop(logger).Named("assets"),
	}
}

// Publish uploads every inline image of res and swaps in its URL. Images that
// fail to upload stay inline. It returns the number of uploaded images.
func (p *Publisher) Publish(ctx context.Context, res *campaign.Result) int {
	if p == nil || p.store == nil || res == nil {
		return 0
	}

	published := 0
	for i, img := range res.Images {
		if !dataurl.IsDataURL(img) {
			continue
		}
		mimeType, data, err := dataurl.Decode(img)
		if err != nil {
			p.logger.Warn("skipping undecodable image", zap.Int("index", i), zap.Error(err))
			continue
		}

		name := p.objectName(res.ID, i, mimeType)
		url, err := p.store.Put(ctx, name, mimeType, data)
		if err != nil {
			p.logger.Warn("image upload failed", zap.String("name", name), zap.Error(err))
			continue
		}
		res.Images[i] = url
		published++
	}
	return published
}

func (p *Publisher) objectName(id string, index int, mimeType string) string {
	name := fmt.Sprintf("%s/%d%s", id, index+1, extension(mimeType))
	if p.prefix != "" {
		name = p.prefix + "/" + name
	}
	return name
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".bin"
	}
}

type object struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps objects in process. Used by tests and when no blob
// account is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]object
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://"
	}
	return &MemoryStore{baseURL: baseURL, objects: make(map[string]object)}
}

func (m *MemoryStore) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return m.baseURL + name, nil
}

// Get returns a stored object.
func (m *MemoryStore) Get(name string) (contentType string, data []byte, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[name]
	return o.ContentType, o.Data, ok
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
