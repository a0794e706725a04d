// Package site serves the embedded arrival demo page.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Error constants
var (
	ErrServe = errors.New("demo site serve failed")
)

// Register attaches the demo page at / and its assets under /static/.
func Register(_ context.Context, router *httprouter.Router) {
	if router == nil {
		panic("router is nil")
	}

	root := NewRootHandler()
	router.HandlerFunc(http.MethodGet, "/", root.HandleRoot)
	router.Handler(http.MethodGet, "/static/*filepath", http.StripPrefix("/static", http.FileServer(FS())))
}

// RootHandler handles root path requests
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests and serves the demo page.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
