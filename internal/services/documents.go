package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var allowedDocumentTypes = map[string]string{
	".pdf":  "PDF",
	".doc":  "Word",
	".docx": "Word",
	".xls":  "Excel",
	".xlsx": "Excel",
	".csv":  "CSV",
}

// DocumentType derives the display type of an attachment from its name.
func DocumentType(name string) string {
	if t, ok := allowedDocumentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return "Other"
}

func allowedDocument(name string) bool {
	_, ok := allowedDocumentTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FileUpload is one incoming file, opened lazily.
type FileUpload struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

func FromMultipart(fh *multipart.FileHeader) FileUpload {
	return FileUpload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type DocumentService struct {
	boards   repo.BoardRepoInterface
	users    repo.UserRepoInterface
	blobs    libraries.BlobStore
	bus      *kanban.Bus
	rollback bool
	now      Clock
}

func NewDocumentService(boards repo.BoardRepoInterface, users repo.UserRepoInterface, blobs libraries.BlobStore, bus *kanban.Bus, rollback bool) *DocumentService {
	return &DocumentService{boards: boards, users: users, blobs: blobs, bus: bus, rollback: rollback, now: time.Now}
}

// Upload stores files against a board the caller belongs to.
func (s *DocumentService) Upload(ctx context.Context, userID string, boardID uuid.UUID, files []FileUpload) ([]models.Document, error) {
	board, err := memberBoard(ctx, s.boards, boardID, userID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.Validation("No files provided")
	}
	docs, err := s.attach(ctx, board, actorMember(ctx, s.users, userID), files)
	if err != nil {
		return nil, err
	}
	if err := s.bus.Publish(ctx, kanban.Event{Type: kanban.BoardUpdated, BoardID: board.ID, ActorID: userID}); err != nil {
		return docs, err
	}
	return docs, nil
}

// attach uploads the whole batch and appends the records in a single write.
func (s *DocumentService) attach(ctx context.Context, board *models.Board, uploader models.Member, files []FileUpload) ([]models.Document, error) {
	for _, f := range files {
		if !allowedDocument(f.Name) {
			return nil, apperrors.Validation(fmt.Sprintf("invalid document type: %s", f.Name))
		}
	}

	now := s.now()
	paths := documentPaths(board, now, files)
	docs := make([]models.Document, len(files))
	uploaded := make([]bool, len(files))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(4)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			doc, err := s.uploadOne(ctx, paths[i], now, uploader, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			mu.Lock()
			docs[i] = doc
			uploaded[i] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithFields(log.Fields{"board_id": board.ID, "err": err}).Error("Document upload failed")
		if s.rollback {
			s.discard(ctx, docs, uploaded)
		}
		return nil, apperrors.Wrap(apperrors.KindUploadFailure, "Failed to upload files", err)
	}

	if err := s.boards.AppendDocuments(ctx, board.ID, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// documentPaths gives every file its own blob path. A name already used on
// the board or earlier in the batch gets a -n suffix after the timestamp.
func documentPaths(board *models.Board, at time.Time, files []FileUpload) []string {
	taken := make(map[string]bool, len(board.Documents)+len(files))
	for _, d := range board.Documents {
		taken[d.Path] = true
	}
	prefix := fmt.Sprintf("documents/%s/%d", board.ID, at.UnixMilli())
	paths := make([]string, len(files))
	for i, f := range files {
		name := filepath.Base(f.Name)
		path := prefix + "_" + name
		for n := 1; taken[path]; n++ {
			path = fmt.Sprintf("%s-%d_%s", prefix, n, name)
		}
		taken[path] = true
		paths[i] = path
	}
	return paths
}

func (s *DocumentService) uploadOne(ctx context.Context, path string, at time.Time, uploader models.Member, f FileUpload) (models.Document, error) {
	r, err := f.Open()
	if err != nil {
		return models.Document{}, err
	}
	defer r.Close()

	name := filepath.Base(f.Name)
	url, err := s.blobs.Upload(ctx, path, f.ContentType, r)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{
		Name:       name,
		URL:        url,
		Path:       path,
		Type:       DocumentType(name),
		UploadedAt: at,
		UploadedBy: models.Uploader{ID: uploader.ID, Name: uploader.Name, Email: uploader.Email},
	}, nil
}

func (s *DocumentService) discard(ctx context.Context, docs []models.Document, uploaded []bool) {
	for i, ok := range uploaded {
		if !ok {
			continue
		}
		if err := s.blobs.Delete(ctx, docs[i].Path); err != nil {
			log.WithFields(log.Fields{"path": docs[i].Path, "err": err}).Warn("Failed to roll back uploaded document")
		}
	}
}

// Remove deletes the blob first and then the attachment record.
func (s *DocumentService) Remove(ctx context.Context, userID string, boardID uuid.UUID, path string) error {
	board, err := memberBoard(ctx, s.boards, boardID, userID)
	if err != nil {
		return err
	}
	found := false
	for _, d := range board.Documents {
		if d.Path == path {
			found = true
			break
		}
	}
	if !found {
		return apperrors.NotFound("Document not found")
	}

	if err := s.blobs.Delete(ctx, path); err != nil {
		return apperrors.StoreWrite("Failed to delete document", err)
	}
	if _, err := s.boards.RemoveDocument(ctx, boardID, path); err != nil {
		return err
	}
	return s.bus.Publish(ctx, kanban.Event{Type: kanban.BoardUpdated, BoardID: boardID, ActorID: userID})
}

// purge deletes every blob attached to a board; used by cascading board deletes.
func (s *DocumentService) purge(ctx context.Context, board *models.Board) error {
	var errs []error
	for _, d := range board.Documents {
		if err := s.blobs.Delete(ctx, d.Path); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", d.Path, err))
		}
	}
	return errors.Join(errs...)
}
