// internal/api/server.go

// Package api serves a small read-only HTTP view of the stored products, for
// checking crawl results without a database client.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/shelfscout/shelfscout/internal/utils"
	"github.com/shelfscout/shelfscout/pkg/types"
)

var apiLogger = utils.NewComponentLogger("api")

const photoPlaceholder = "(hidden to ease verification)"

// ProductLister is the slice of the store the API needs.
type ProductLister interface {
	FindAll(ctx context.Context) ([]types.StoredProduct, error)
}

// Server exposes the stored products over HTTP.
type Server struct {
	store  ProductLister
	router *mux.Router
}

// NewServer creates the API server over a product lister.
func NewServer(store ProductLister) *Server {
	s := &Server{store: store, router: mux.NewRouter()}
	s.router.HandleFunc("/", s.handleProducts).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return s
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	apiLogger.Infof("Verification API listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleProducts returns every stored product as indented JSON. Photo binary
// data is replaced with a placeholder so the payload stays readable.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.FindAll(r.Context())
	if err != nil {
		apiLogger.Errorf("Failed to list products: %v", err)
		http.Error(w, "failed to list products", http.StatusInternalServerError)
		return
	}

	type viewPhoto struct {
		URL         string `json:"url"`
		Data        string `json:"data"`
		ContentType string `json:"content_type,omitempty"`
	}
	type viewProduct struct {
		types.StoredProduct
		Photos []viewPhoto `json:"photos"`
	}

	views := make([]viewProduct, 0, len(products))
	for _, p := range products {
		view := viewProduct{StoredProduct: p}
		view.Photos = make([]viewPhoto, 0, len(p.Photos))
		for _, photo := range p.Photos {
			data := ""
			if len(photo.Data) > 0 {
				data = photoPlaceholder
			}
			view.Photos = append(view.Photos, viewPhoto{
				URL:         photo.URL,
				Data:        data,
				ContentType: photo.ContentType,
			})
		}
		view.StoredProduct.Photos = nil
		views = append(views, view)
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(views); err != nil {
		apiLogger.Errorf("Failed to encode products: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
