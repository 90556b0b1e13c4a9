// Package api exposes the reader over HTTP and pushes state over
// WebSocket.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dinaypatil-web/ReadFlow/internal/ingest"
	"github.com/dinaypatil-web/ReadFlow/internal/library"
	"github.com/dinaypatil-web/ReadFlow/internal/playback"
	"github.com/dinaypatil-web/ReadFlow/internal/state"
)

// maxUploadBytes bounds document uploads at 50 MB.
const maxUploadBytes = 50 << 20

type Server struct {
	library  *library.Store
	ingest   *ingest.Controller
	engine   *playback.Engine
	state    *state.Store
	upgrader websocket.Upgrader
}

func NewServer(lib *library.Store, ing *ingest.Controller, engine *playback.Engine, st *state.Store) *Server {
	return &Server{
		library: lib,
		ingest:  ing,
		engine:  engine,
		state:   st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes wires all endpoints onto a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/books", s.handleUpload)
	mux.HandleFunc("GET /api/books", s.handleListBooks)
	mux.HandleFunc("GET /api/books/{id}", s.handleGetBook)
	mux.HandleFunc("DELETE /api/books/{id}", s.handleDeleteBook)
	mux.HandleFunc("POST /api/books/{id}/open", s.handleOpenBook)

	mux.HandleFunc("GET /api/reader/state", s.handleReaderState)
	mux.HandleFunc("POST /api/reader/close", s.handleCloseReader)
	mux.HandleFunc("POST /api/reader/play", s.handlePlay)
	mux.HandleFunc("POST /api/reader/pause", s.handlePause)
	mux.HandleFunc("POST /api/reader/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/reader/next", s.handleNext)
	mux.HandleFunc("POST /api/reader/prev", s.handlePrev)
	mux.HandleFunc("POST /api/reader/seek", s.handleSeek)
	mux.HandleFunc("PUT /api/reader/config", s.handleSetConfig)
	mux.HandleFunc("POST /api/reader/volume", s.handleSetVolume)
	mux.HandleFunc("POST /api/reader/speed", s.handleSetSpeed)
	mux.HandleFunc("POST /api/reader/notice/dismiss", s.handleDismissNotice)

	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("GET /ws/reader", s.handleReaderSocket)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
