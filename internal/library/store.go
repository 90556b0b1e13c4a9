// Package library holds the book collection and persists it through the
// storage adapter.
package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dinaypatil-web/ReadFlow/internal/storage"
	"github.com/dinaypatil-web/ReadFlow/pkg/types"
)

// libraryKey is versioned: older snapshots are ignored rather than
// migrated.
const libraryKey = "library/readflow_v5_books.json"

var ErrNotFound = fmt.Errorf("book not found")

// Store is the in-memory book collection. Every mutation is written
// through to the storage adapter as a whole-library snapshot. Source
// document bytes are never persisted; a partially loaded book whose
// source is gone is frozen at its current content on reload.
type Store struct {
	mu      sync.RWMutex
	books   map[string]*types.Book
	order   []string
	adapter storage.Adapter
}

// persistedBook is the snapshot form of a book. The source document is
// dropped.
type persistedBook struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Format        string          `json:"format"`
	Content       []string        `json:"content"`
	Chapters      []types.Chapter `json:"chapters"`
	LastPosition  int             `json:"lastPosition"`
	IsFullyLoaded bool            `json:"isFullyLoaded"`
	LoadProgress  int             `json:"loadProgress"`
	UploadedAt    time.Time       `json:"uploadedAt"`
}

func NewStore(ctx context.Context, adapter storage.Adapter) (*Store, error) {
	s := &Store{
		books:   make(map[string]*types.Book),
		adapter: adapter,
	}
	if err := s.load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}
	if len(s.order) == 0 {
		seed := seedBook()
		s.books[seed.ID] = seed
		s.order = []string{seed.ID}
		log.Printf("[Library] Empty library, seeded with %q", seed.Name)
	}
	log.Printf("[Library] Loaded %d books", len(s.order))
	return s, nil
}

func seedBook() *types.Book {
	return &types.Book{
		ID:     uuid.NewString(),
		Name:   "The Philosophy of Modern Art",
		Format: "application/pdf",
		Content: []string{
			"Art in the modern era has undergone a radical transformation.",
			"No longer bound by the strictures of realism, artists began to explore the subjective landscape of the mind.",
			"Color became a language of emotion rather than a tool of description.",
			"Form dissolved into abstraction, inviting the viewer to complete the work through interpretation.",
			"This shift marked not a rejection of skill, but a redefinition of what art could communicate.",
		},
		Chapters:      []types.Chapter{{Title: "Introduction", StartIndex: 0}},
		IsFullyLoaded: true,
		LoadProgress:  100,
		UploadedAt:    time.Now(),
	}
}

func (s *Store) load(ctx context.Context) error {
	data, err := storage.ReadAll(ctx, s.adapter, libraryKey)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	var snapshot []persistedBook
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Printf("[Library] Ignoring corrupt library snapshot: %v", err)
		return nil
	}

	for _, pb := range snapshot {
		book := &types.Book{
			ID:            pb.ID,
			Name:          pb.Name,
			Format:        pb.Format,
			Content:       pb.Content,
			Chapters:      pb.Chapters,
			LastPosition:  pb.LastPosition,
			IsFullyLoaded: pb.IsFullyLoaded,
			LoadProgress:  pb.LoadProgress,
			UploadedAt:    pb.UploadedAt,
		}
		// The source bytes are gone, so extraction cannot resume.
		if !book.IsFullyLoaded {
			book.IsFullyLoaded = true
			book.LoadProgress = 100
			log.Printf("[Library] Book %s was partially loaded, freezing at %d segments", book.ID, len(book.Content))
		}
		if len(book.Chapters) == 0 {
			book.Chapters = types.DefaultChapters()
		}
		s.books[book.ID] = book
		s.order = append(s.order, book.ID)
	}
	return nil
}

// persist writes the whole library snapshot. Called with the lock held.
func (s *Store) persist(ctx context.Context) error {
	snapshot := make([]persistedBook, 0, len(s.order))
	for _, id := range s.order {
		b := s.books[id]
		snapshot = append(snapshot, persistedBook{
			ID:            b.ID,
			Name:          b.Name,
			Format:        b.Format,
			Content:       b.Content,
			Chapters:      b.Chapters,
			LastPosition:  b.LastPosition,
			IsFullyLoaded: b.IsFullyLoaded,
			LoadProgress:  b.LoadProgress,
			UploadedAt:    b.UploadedAt,
		})
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}
	if err := s.adapter.Put(ctx, libraryKey, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to persist library: %w", err)
	}
	return nil
}

// copyBook returns a deep enough copy that callers cannot mutate store
// state through it.
func copyBook(b *types.Book) *types.Book {
	out := *b
	out.Content = append([]string(nil), b.Content...)
	out.Chapters = append([]types.Chapter(nil), b.Chapters...)
	return &out
}

// List returns all books, newest first.
func (s *Store) List() []*types.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Book, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyBook(s.books[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

func (s *Store) Get(id string) (*types.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBook(b), nil
}

func (s *Store) Add(ctx context.Context, book *types.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	if book.UploadedAt.IsZero() {
		book.UploadedAt = time.Now()
	}
	if len(book.Chapters) == 0 {
		book.Chapters = types.DefaultChapters()
	}
	s.books[book.ID] = copyBook(book)
	s.order = append(s.order, book.ID)
	return s.persist(ctx)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return ErrNotFound
	}
	delete(s.books, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return s.persist(ctx)
}

// AppendContent adds segments to a book. Content is append-only; the
// existing prefix is never rewritten.
func (s *Store) AppendContent(ctx context.Context, id string, segments []string) error {
	if len(segments) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return ErrNotFound
	}
	b.Content = append(b.Content, segments...)
	return s.persist(ctx)
}

// ReplaceChapters swaps the whole outline. The incoming outline must
// already be sanitized.
func (s *Store) ReplaceChapters(ctx context.Context, id string, chapters []types.Chapter) error {
	if len(chapters) == 0 {
		chapters = types.DefaultChapters()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return ErrNotFound
	}
	b.Chapters = append([]types.Chapter(nil), chapters...)
	return s.persist(ctx)
}

// SetProgress raises the load progress. Progress never regresses and
// stays below 100 until the book is marked fully loaded.
func (s *Store) SetProgress(ctx context.Context, id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return ErrNotFound
	}
	if progress > 99 && !b.IsFullyLoaded {
		progress = 99
	}
	if progress <= b.LoadProgress {
		return nil
	}
	b.LoadProgress = progress
	return s.persist(ctx)
}

// MarkFullyLoaded finalizes ingestion: progress jumps to 100 and the
// source document is released.
func (s *Store) MarkFullyLoaded(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return ErrNotFound
	}
	b.IsFullyLoaded = true
	b.LoadProgress = 100
	b.Source = nil
	return s.persist(ctx)
}

func (s *Store) SetLastPosition(ctx context.Context, id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return ErrNotFound
	}
	if index < 0 {
		index = 0
	}
	if n := len(b.Content); n > 0 && index >= n {
		index = n - 1
	}
	b.LastPosition = index
	return s.persist(ctx)
}

// NextIngestCandidate returns the oldest book that still needs
// extraction and has its source document available.
func (s *Store) NextIngestCandidate() (*types.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		b := s.books[id]
		if !b.IsFullyLoaded && b.Source != nil {
			out := copyBook(b)
			out.Source = b.Source
			return out, true
		}
	}
	return nil, false
}
