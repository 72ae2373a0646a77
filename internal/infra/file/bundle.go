package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"geoquiz-service/internal/domain"
)

// Bundle is the on-disk question bank layout:
//
//	{"categories": {"flags": "Flags"}, "questions": {"flags": {"q1": {...}}}}
type Bundle struct {
	Categories map[string]string                        `json:"categories"`
	Questions  map[string]map[string]domain.RawQuestion `json:"questions"`
}

// ReadBundle decodes a bundle file.
func ReadBundle(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	return b, nil
}

// Payloads returns one payload per category in the bundle.
func (b Bundle) Payloads() []domain.CategoryPayload {
	out := make([]domain.CategoryPayload, 0, len(b.Questions))
	for id, questions := range b.Questions {
		out = append(out, b.payload(id, questions))
	}
	return out
}

func (b Bundle) payload(id string, questions map[string]domain.RawQuestion) domain.CategoryPayload {
	name := b.Categories[id]
	if name == "" {
		name = id
	}
	return domain.CategoryPayload{ID: id, Name: name, Questions: questions}
}

// BundleSource serves categories from a local bundle file. The file is read lazily on
// first use and a read failure is retried on the next call.
type BundleSource struct {
	path string

	mu     sync.Mutex
	bundle *Bundle
}

func NewBundleSource(path string) *BundleSource {
	return &BundleSource{path: path}
}

func (s *BundleSource) FetchCategory(_ context.Context, categoryID string) (domain.CategoryPayload, error) {
	b, err := s.load()
	if err != nil {
		return domain.CategoryPayload{}, err
	}
	questions, ok := b.Questions[categoryID]
	if !ok {
		return domain.CategoryPayload{}, fmt.Errorf("%w: category %q not in bundle", domain.ErrContentUnavailable, categoryID)
	}
	return b.payload(categoryID, questions), nil
}

// Categories lists the bundle's categories that carry questions, ordered by id.
func (s *BundleSource) Categories(_ context.Context) ([]domain.Category, error) {
	b, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(b.Questions))
	for id, questions := range b.Questions {
		p := b.payload(id, questions)
		out = append(out, domain.Category{ID: p.ID, Name: p.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *BundleSource) load() (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle == nil {
		b, err := ReadBundle(s.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrContentUnavailable, err)
		}
		s.bundle = &b
	}
	return s.bundle, nil
}
