package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dinaypatil-web/ReadFlow/internal/library"
	"github.com/dinaypatil-web/ReadFlow/internal/provider"
	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// bookResponse is a book without its source bytes, plus live ingestion
// status.
type bookResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Format        string          `json:"format"`
	Content       []string        `json:"content,omitempty"`
	Chapters      []types.Chapter `json:"chapters"`
	LastPosition  int             `json:"lastPosition"`
	IsFullyLoaded bool            `json:"isFullyLoaded"`
	IsLoadingMore bool            `json:"isLoadingMore"`
	LoadProgress  int             `json:"loadProgress"`
	SegmentCount  int             `json:"segmentCount"`
	UploadedAt    time.Time       `json:"uploadedAt"`
}

func (s *Server) bookResponse(book *types.Book, withContent bool) bookResponse {
	resp := bookResponse{
		ID:            book.ID,
		Name:          book.Name,
		Format:        book.Format,
		Chapters:      book.Chapters,
		LastPosition:  book.LastPosition,
		IsFullyLoaded: book.IsFullyLoaded,
		IsLoadingMore: s.ingest.IsLoading(book.ID),
		LoadProgress:  book.LoadProgress,
		SegmentCount:  len(book.Content),
		UploadedAt:    book.UploadedAt,
	}
	if withContent {
		resp.Content = book.Content
	}
	return resp
}

func (s *Server) writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, provider.ErrNoContent):
		writeError(w, http.StatusUnprocessableEntity, "no readable content found in document")
	case provider.IsRateLimited(err):
		writeError(w, http.StatusTooManyRequests, "extraction rate limit reached, try again shortly")
	default:
		log.Printf("[API] Upload failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to ingest document")
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			mimeType = byExt
		}
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	name := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if name == "" {
		name = header.Filename
	}

	book, err := s.ingest.Upload(r.Context(), name, mimeType, data)
	if err != nil {
		s.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.bookResponse(book, true))
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books := s.library.List()
	resp := make([]bookResponse, 0, len(books))
	for _, book := range books {
		resp = append(resp, s.bookResponse(book, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.library.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, s.bookResponse(book, true))
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.state.Snapshot().ActiveBookID == id {
		s.engine.CloseBook()
	}
	if err := s.library.Delete(r.Context(), id); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOpenBook(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Open(r.PathValue("id")); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open book")
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleReaderState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleCloseReader(w http.ResponseWriter, r *http.Request) {
	s.engine.CloseBook()
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

type playRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if r.Body != nil {
		// An empty body means resume at the current segment.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	index := s.state.Snapshot().CurrentIndex
	if req.Index != nil {
		index = *req.Index
	}
	if err := s.engine.Play(index); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.engine.Pause()
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.TogglePlay(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Next(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Prev(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

type seekRequest struct {
	Index int `json:"index"`
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid seek request")
		return
	}
	if err := s.engine.SeekTo(req.Index); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

type configRequest struct {
	Accent types.Accent     `json:"accent"`
	Style  types.VoiceStyle `json:"style"`
	Gender types.Gender     `json:"gender"`
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid config request")
		return
	}
	cfg := s.state.Snapshot().Config
	if req.Accent != "" {
		cfg.Accent = req.Accent
	}
	if req.Style != "" {
		cfg.Style = req.Style
	}
	if req.Gender != "" {
		cfg.Gender = req.Gender
	}
	if err := s.engine.SetConfig(cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid volume request")
		return
	}
	s.engine.SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid speed request")
		return
	}
	s.engine.SetSpeed(req.Speed)
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	s.engine.DismissNotice()
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"accents": types.Accents(),
		"styles":  types.VoiceStyles(),
		"genders": types.Genders(),
	})
}
