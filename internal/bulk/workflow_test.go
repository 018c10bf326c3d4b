package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
	"catalogsync/internal/services/shopify"
)

type mockSource struct {
	products []shopify.Product
	failAt   int
	err      error
}

func (m *mockSource) VendorProducts(ctx context.Context, vendor string, maxTotalInventory int) iter.Seq2[shopify.Product, error] {
	return func(yield func(shopify.Product, error) bool) {
		for i, p := range m.products {
			if m.err != nil && i == m.failAt {
				yield(shopify.Product{}, m.err)
				return
			}
			if shopify.TotalInventory(&p) >= maxTotalInventory {
				continue
			}
			if !yield(p, nil) {
				return
			}
		}
		if m.err != nil && m.failAt >= len(m.products) {
			yield(shopify.Product{}, m.err)
		}
	}
}

type mockGenerator struct {
	fail  map[string]bool
	texts map[string]string
}

func (m *mockGenerator) Generate(ctx context.Context, title string) (string, error) {
	if m.fail[title] {
		return "", errors.New("generation failed")
	}
	if text, ok := m.texts[title]; ok {
		return text, nil
	}
	return "1. Description: About " + title + "\n2. Tags: a, b\n3. Category: Things", nil
}

type mockFinder struct {
	mu        sync.Mutex
	searches  []string
	results   map[string][]string
	downloads map[string][]byte
}

func (m *mockFinder) Search(ctx context.Context, query string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, query)
	if r, ok := m.results[query]; ok {
		return r
	}
	return []string{}
}

func (m *mockFinder) Download(ctx context.Context, imageURL string) ([]byte, error) {
	data, ok := m.downloads[imageURL]
	if !ok {
		return nil, &apperror.UpstreamError{Service: "images", StatusCode: http.StatusNotFound, Body: imageURL}
	}
	return data, nil
}

type upload struct {
	ProductID string
	Filename  string
}

type mockWriter struct {
	mu         sync.Mutex
	updated    []string
	uploads    []upload
	failUpdate map[string]bool
}

func (m *mockWriter) UpdateProductContent(ctx context.Context, productID string, description, tags, category *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate[productID] {
		return errors.New("update failed")
	}
	m.updated = append(m.updated, productID)
	return nil
}

func (m *mockWriter) UploadProductImage(ctx context.Context, productID string, data []byte, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload{productID, filename})
	return nil
}

type ignored map[string]bool

func (i ignored) Contains(name string) bool { return i[name] }

func product(id int64, title string, qty int) shopify.Product {
	return shopify.Product{ID: id, Title: title, Vendor: "Acme", Variants: []shopify.Variant{{InventoryQuantity: qty}}}
}

func newWorkflow(source ProductSource, gen ContentGenerator, finder ImageFinder, writer ProductWriter, ign IgnoreList) *Workflow {
	return New(source, writer, gen, finder, ign, logger.New("debug", 100), Options{Concurrency: 2})
}

func TestGenerateRequiresVendor(t *testing.T) {
	w := newWorkflow(&mockSource{}, &mockGenerator{}, &mockFinder{}, &mockWriter{}, nil)
	_, err := w.Generate(context.Background(), "  ", 10)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusCode(err))
}

func TestGenerateThresholdScenario(t *testing.T) {
	source := &mockSource{products: []shopify.Product{product(1, "Five", 5), product(2, "Twenty", 20)}}
	finder := &mockFinder{results: map[string][]string{"Five": {"https://img/5.jpg"}}}
	w := newWorkflow(source, &mockGenerator{}, finder, &mockWriter{}, nil)

	review, err := w.Generate(context.Background(), "Acme", 10)
	require.NoError(t, err)
	require.Len(t, review.Items, 1)

	item := review.Items[0]
	assert.Equal(t, "1", item.ProductID)
	assert.Equal(t, "Five", item.Title)
	require.NotNil(t, item.Description)
	assert.Equal(t, "About Five", *item.Description)
	require.NotNil(t, item.Tags)
	assert.Equal(t, "a, b", *item.Tags)
	require.NotNil(t, item.Category)
	assert.Equal(t, "Things", *item.Category)
	assert.Empty(t, item.Missing())
	assert.Equal(t, []string{"https://img/5.jpg"}, item.Images)
}

func TestGenerateKeepsMissingFieldsNull(t *testing.T) {
	source := &mockSource{products: []shopify.Product{product(1, "Mug", 0)}}
	gen := &mockGenerator{texts: map[string]string{"Mug": "1. Description: D\n3. Category: C"}}
	w := newWorkflow(source, gen, &mockFinder{}, &mockWriter{}, nil)

	review, err := w.Generate(context.Background(), "Acme", 10)
	require.NoError(t, err)
	require.Len(t, review.Items, 1)

	item := review.Items[0]
	assert.Nil(t, item.Tags)
	assert.Equal(t, []string{"tags"}, item.Missing())

	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_id":"1","title":"Mug","description":"D","tags":null,"category":"C","images":[]}`, string(data))
}

func TestGenerateNoProductsIsEmpty(t *testing.T) {
	source := &mockSource{products: []shopify.Product{product(1, "Plenty", 50)}}
	w := newWorkflow(source, &mockGenerator{}, &mockFinder{}, &mockWriter{}, nil)

	review, err := w.Generate(context.Background(), "Acme", 10)
	require.NoError(t, err)
	assert.Empty(t, review.Items)
}

func TestGenerateUpstreamFailureBeforeCandidates(t *testing.T) {
	upstream := &apperror.UpstreamError{Service: "shopify", StatusCode: 500, Body: "oops"}
	source := &mockSource{products: []shopify.Product{product(1, "A", 0)}, failAt: 0, err: upstream}
	w := newWorkflow(source, &mockGenerator{}, &mockFinder{}, &mockWriter{}, nil)

	_, err := w.Generate(context.Background(), "Acme", 10)
	assert.Equal(t, http.StatusBadGateway, apperror.StatusCode(err))
}

func TestGenerateKeepsPartialCandidates(t *testing.T) {
	source := &mockSource{
		products: []shopify.Product{product(1, "A", 0), product(2, "B", 0), product(3, "C", 0)},
		failAt:   2,
		err:      errors.New("page 2 failed"),
	}
	w := newWorkflow(source, &mockGenerator{}, &mockFinder{}, &mockWriter{}, nil)

	review, err := w.Generate(context.Background(), "Acme", 10)
	require.NoError(t, err)
	require.Len(t, review.Items, 2)
	assert.Equal(t, "A", review.Items[0].Title)
	assert.Equal(t, "B", review.Items[1].Title)
}

func TestGenerateSkipsFailedAndIgnoredProducts(t *testing.T) {
	source := &mockSource{products: []shopify.Product{
		product(1, "Alpha", 0), product(2, "Beta", 1), product(3, "Gamma", 2), product(4, "Delta", 3),
	}}
	gen := &mockGenerator{fail: map[string]bool{"Beta": true}}
	finder := &mockFinder{}
	w := newWorkflow(source, gen, finder, &mockWriter{}, ignored{"Gamma": true})

	review, err := w.Generate(context.Background(), "Acme", 10)
	require.NoError(t, err)

	var titles []string
	for _, item := range review.Items {
		titles = append(titles, item.Title)
		assert.NotNil(t, item.Images)
	}
	assert.Equal(t, []string{"Alpha", "Delta"}, titles)
	assert.Equal(t, 1, review.Skipped)

	// Image discovery still ran for the product whose generation failed.
	assert.ElementsMatch(t, []string{"Alpha", "Beta", "Delta"}, finder.searches)
}

func TestApplyContinuesPastFailures(t *testing.T) {
	finder := &mockFinder{downloads: map[string][]byte{
		"https://img/ok.jpg":      []byte("1"),
		"https://img/also-ok.png": []byte("2"),
		"https://img/":            []byte("3"),
	}}
	writer := &mockWriter{failUpdate: map[string]bool{"2": true}}
	w := newWorkflow(&mockSource{}, &mockGenerator{}, finder, writer, nil)

	desc := "New description"
	report := w.Apply(context.Background(), []Edit{
		{ProductID: "1", Description: &desc, Images: []string{"https://img/ok.jpg", "https://img/missing.jpg", "https://img/also-ok.png"}},
		{ProductID: "2", Images: []string{"https://img/"}},
		{ProductID: "3"},
	})

	assert.Equal(t, ApplyReport{ProductsUpdated: 2, ProductsFailed: 1, ImagesUploaded: 3, ImagesFailed: 1}, report)
	assert.Equal(t, []string{"1", "3"}, writer.updated)
	assert.Equal(t, []upload{
		{"1", "ok.jpg"},
		{"1", "also-ok.png"},
		{"2", "product_image.jpg"},
	}, writer.uploads)
}

func TestApplyCountsCancelledEditsAsFailed(t *testing.T) {
	writer := &mockWriter{}
	w := newWorkflow(&mockSource{}, &mockGenerator{}, &mockFinder{}, writer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := w.Apply(ctx, []Edit{
		{ProductID: "1", Images: []string{"https://img/a.jpg", "https://img/b.jpg"}},
		{ProductID: "2"},
	})

	assert.Equal(t, ApplyReport{ProductsFailed: 2, ImagesFailed: 2}, report)
	assert.Empty(t, writer.updated)
	assert.Empty(t, writer.uploads)
}

func TestParseMinInventory(t *testing.T) {
	n, err := ParseMinInventory("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = ParseMinInventory(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = ParseMinInventory("ten")
	assert.Equal(t, http.StatusBadRequest, apperror.StatusCode(err))
}
