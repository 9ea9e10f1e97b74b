package campaign

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type mockTextModel struct {
	mu       sync.Mutex
	response string
	err      error
	requests []TextRequest
}

func (m *mockTextModel) GenerateJSON(_ context.Context, req TextRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.response, m.err
}

func (m *mockTextModel) calls() []TextRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TextRequest(nil), m.requests...)
}

type mockImageModel struct {
	mu       sync.Mutex
	fail     func(prompt string) error
	requests []ImageRequest
}

func (m *mockImageModel) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fail := m.fail
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fail != nil {
		if err := fail(req.Prompt); err != nil {
			return "", err
		}
	}
	return "data:image/png;base64,aW1n", nil
}

func (m *mockImageModel) calls() []ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ImageRequest(nil), m.requests...)
}

// slowImageModel blocks until its context ends.
type slowImageModel struct{}

func (slowImageModel) GenerateImage(ctx context.Context, _ ImageRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type panicImageModel struct{}

func (panicImageModel) GenerateImage(context.Context, ImageRequest) (string, error) {
	panic("image backend exploded")
}

type brokenFallback struct{}

func (brokenFallback) URL(string, int, int, int) (string, error) {
	return "", errors.New("no fallback")
}

type recordingFallback struct {
	mu      sync.Mutex
	offsets []int
	prompts []string
}

func (f *recordingFallback) URL(prompt string, width, height, seedOffset int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, seedOffset)
	f.prompts = append(f.prompts, prompt)
	return fmt.Sprintf("https://fallback.test/%dx%d?seed=%d", width, height, seedOffset), nil
}

func alwaysFail(string) error {
	return errors.New("quota exceeded")
}
