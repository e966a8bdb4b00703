// Package notebook keeps research notebooks in a local bbolt file.
package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/jstewartrr/sm-mcp-gateway-v2/logger"
)

const notebooksBucket = "notebooks"

var ErrNotFound = errors.New("notebook not found")

// Notebook is one stored notebook.
type Notebook struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Sources   []Source  `json:"sources"`
	Shares    []Share   `json:"shares"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Source is a piece of content attached to a notebook.
type Source struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	AddedAt time.Time `json:"added_at"`
}

// Share grants a role on a notebook to an email address.
type Share struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Summary is the list view of a notebook.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SourceCount int       `json:"source_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store implements notebook persistence using BoltDB
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create notebook dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open notebook store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(notebooksBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create notebooks bucket: %w", err)
	}

	logger.Info("Notebook store opened", "path", path)
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the BoltDB file
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns notebook summaries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	summaries := []Summary{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(notebooksBucket)).ForEach(func(k, v []byte) error {
			var nb Notebook
			if err := json.Unmarshal(v, &nb); err != nil {
				logger.Warn("Skipping unreadable notebook", "id", string(k), "error", err)
				return nil
			}
			summaries = append(summaries, Summary{
				ID:          nb.ID,
				Title:       nb.Title,
				SourceCount: len(nb.Sources),
				UpdatedAt:   nb.UpdatedAt,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Create stores a new empty notebook.
func (s *Store) Create(ctx context.Context, title string) (Notebook, error) {
	now := s.now()
	nb := Notebook{
		ID:        uuid.NewString(),
		Title:     title,
		Sources:   []Source{},
		Shares:    []Share{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx, nb)
	})
	if err != nil {
		return Notebook{}, err
	}
	logger.Debug("Notebook created", "id", nb.ID)
	return nb, nil
}

// Get loads one notebook.
func (s *Store) Get(ctx context.Context, id string) (Notebook, error) {
	var nb Notebook
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		nb, err = get(tx, id)
		return err
	})
	return nb, err
}

// AddSource appends content to a notebook.
func (s *Store) AddSource(ctx context.Context, id, content string) (Source, error) {
	source := Source{ID: uuid.NewString(), Content: content, AddedAt: s.now()}
	_, err := s.modify(id, func(nb *Notebook) {
		nb.Sources = append(nb.Sources, source)
	})
	return source, err
}

// Share grants role to email, replacing any earlier grant for that email.
func (s *Store) Share(ctx context.Context, id, email, role string) (Notebook, error) {
	return s.modify(id, func(nb *Notebook) {
		for i := range nb.Shares {
			if nb.Shares[i].Email == email {
				nb.Shares[i].Role = role
				return
			}
		}
		nb.Shares = append(nb.Shares, Share{Email: email, Role: role})
	})
}

// Delete removes a notebook.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(notebooksBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// modify applies fn to the stored notebook and returns it as written.
func (s *Store) modify(id string, fn func(nb *Notebook)) (Notebook, error) {
	var stored Notebook
	err := s.db.Update(func(tx *bbolt.Tx) error {
		nb, err := get(tx, id)
		if err != nil {
			return err
		}
		fn(&nb)
		nb.UpdatedAt = s.now()
		if err := put(tx, nb); err != nil {
			return err
		}
		stored = nb
		return nil
	})
	if err != nil {
		return Notebook{}, err
	}
	return stored, nil
}

func get(tx *bbolt.Tx, id string) (Notebook, error) {
	data := tx.Bucket([]byte(notebooksBucket)).Get([]byte(id))
	if data == nil {
		return Notebook{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return Notebook{}, fmt.Errorf("decode notebook %s: %w", id, err)
	}
	return nb, nil
}

func put(tx *bbolt.Tx, nb Notebook) error {
	data, err := json.Marshal(nb)
	if err != nil {
		return fmt.Errorf("encode notebook: %w", err)
	}
	return tx.Bucket([]byte(notebooksBucket)).Put([]byte(nb.ID), data)
}
