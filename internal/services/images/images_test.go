package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/logger"
)

const resultsPage = `<html><body>
<img src="/logo.png">
<div><img src="https://img.example.com/a.jpg"><img alt="x"></div>
<img src="data:image/gif;base64,R0lGOD">
<img src="https://img.example.com/a.jpg">
<p><img src="http://img.example.com/b.png"></p>
<img src="https://img.example.com/c.webp">
</body></html>`

func TestExtractImageURLs(t *testing.T) {
	got, err := extractImageURLs(strings.NewReader(resultsPage), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://img.example.com/a.jpg",
		"http://img.example.com/b.png",
		"https://img.example.com/c.webp",
	}, got)

	got, err = extractImageURLs(strings.NewReader(resultsPage), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Blue Mug", r.URL.Query().Get("q"))
		assert.Equal(t, "isch", r.URL.Query().Get("tbm"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	f := NewFinder(srv.URL+"/search", 10, time.Second, logger.New("debug", 10))
	assert.Len(t, f.Search(context.Background(), "Blue Mug"), 3)
}

func TestSearchFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewFinder(srv.URL, 10, time.Second, logger.New("debug", 10))
	got := f.Search(context.Background(), "Mug")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	unreachable := NewFinder("http://127.0.0.1:1/search", 10, time.Second, logger.New("debug", 10))
	assert.Empty(t, unreachable.Search(context.Background(), "Mug"))
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	f := NewFinder(srv.URL, 10, time.Second, logger.New("debug", 10))

	data, err := f.Download(context.Background(), srv.URL+"/mug.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = f.Download(context.Background(), srv.URL+"/missing.jpg")
	assert.Error(t, err)
}

func TestDownloadRejectsOversizedImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 17)))
	}))
	defer srv.Close()

	f := NewFinder(srv.URL, 10, time.Second, logger.New("debug", 10))
	f.maxBytes = 16

	data, err := f.Download(context.Background(), srv.URL+"/huge.jpg")
	assert.Error(t, err)
	assert.Nil(t, data)

	f.maxBytes = 17
	data, err = f.Download(context.Background(), srv.URL+"/exact.jpg")
	require.NoError(t, err)
	assert.Len(t, data, 17)
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t, "mug.jpg", FilenameFromURL("https://img.example.com/x/mug.jpg?w=200"))
	assert.Equal(t, DefaultFilename, FilenameFromURL("https://img.example.com"))
	assert.Equal(t, DefaultFilename, FilenameFromURL("https://img.example.com/"))
	assert.Equal(t, DefaultFilename, FilenameFromURL("://bad"))
}
