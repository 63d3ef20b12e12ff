// internal/fetch/images_test.go
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchAllPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprint(w, "image-for-"+strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer server.Close()

	fetcher := NewImageFetcher(5*time.Second, 0)
	urls := []string{server.URL + "/a", server.URL + "/b", server.URL + "/c"}

	photos := fetcher.FetchAll(context.Background(), urls)

	if len(photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(photos))
	}
	for i, suffix := range []string{"a", "b", "c"} {
		if photos[i].URL != urls[i] {
			t.Errorf("photo %d url = %q, want %q", i, photos[i].URL, urls[i])
		}
		if string(photos[i].Data) != "image-for-"+suffix {
			t.Errorf("photo %d data = %q", i, photos[i].Data)
		}
		if photos[i].ContentType != "image/jpeg" {
			t.Errorf("photo %d content type = %q", i, photos[i].ContentType)
		}
	}
}

func TestFetchAllOversizedImageYieldsEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	fetcher := NewImageFetcher(5*time.Second, 16)
	photos := fetcher.FetchAll(context.Background(), []string{server.URL + "/big"})

	if len(photos) != 1 {
		t.Fatalf("expected 1 photo, got %d", len(photos))
	}
	if len(photos[0].Data) != 0 {
		t.Errorf("expected empty data for oversized image, got %d bytes", len(photos[0].Data))
	}
	if photos[0].URL == "" {
		t.Error("url should be preserved even when the download is rejected")
	}
}

func TestFetchAllServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewImageFetcher(5*time.Second, 0)
	photos := fetcher.FetchAll(context.Background(), []string{server.URL + "/missing"})

	if len(photos[0].Data) != 0 {
		t.Errorf("expected empty data on error, got %d bytes", len(photos[0].Data))
	}
}

func TestFetchAllEmptyInput(t *testing.T) {
	fetcher := NewImageFetcher(time.Second, 0)
	if photos := fetcher.FetchAll(context.Background(), nil); len(photos) != 0 {
		t.Errorf("expected no photos, got %d", len(photos))
	}
}
