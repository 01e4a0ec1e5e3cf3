package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
)

const (
	KindBoard = "Board"
	KindTask  = "Task"
	KindUser  = "User"
)

// Datastore backs the repositories with Cloud Datastore. Tasks are stored as
// children of their board key so a board's tasks are one ancestor query.
type Datastore struct {
	ds *datastore.Client
}

// NewDatastoreClient honours DATASTORE_EMULATOR_HOST through the client library.
func NewDatastoreClient(ctx context.Context, projectID string) (*Datastore, error) {
	ds, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return &Datastore{ds: ds}, nil
}

func (d *Datastore) Close() error {
	return d.ds.Close()
}

func (d *Datastore) Boards() BoardRepoInterface { return &datastoreBoardRepo{ds: d.ds} }
func (d *Datastore) Tasks() TaskRepoInterface   { return &datastoreTaskRepo{ds: d.ds} }
func (d *Datastore) Users() UserRepoInterface   { return &datastoreUserRepo{ds: d.ds} }

func dsReadErr(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return apperrors.NotFound(notFoundMsg)
	}
	return apperrors.Wrap(apperrors.KindInternal, "Store read failed", err)
}

func boardKey(id uuid.UUID) *datastore.Key {
	return datastore.NameKey(KindBoard, id.String(), nil)
}

func taskKey(boardID, taskID uuid.UUID) *datastore.Key {
	return datastore.NameKey(KindTask, taskID.String(), boardKey(boardID))
}

type boardEntity struct {
	Name                 string           `datastore:"boardName"`
	Description          string           `datastore:"description,noindex"`
	Priority             string           `datastore:"priority"`
	Deadline             time.Time        `datastore:"deadline"`
	HasDeadline          bool             `datastore:"hasDeadline"`
	Members              []models.Member  `datastore:"members,noindex"`
	MemberIDs            []string         `datastore:"memberIds"`
	CreatedBy            string           `datastore:"createdBy"`
	CreatedByName        string           `datastore:"createdByName,noindex"`
	Status               string           `datastore:"status"`
	CompletionPercentage int              `datastore:"completionPercentage"`
	Documents            []documentEntity `datastore:"documents,noindex"`
	CreatedAt            time.Time        `datastore:"createdAt"`
	UpdatedAt            time.Time        `datastore:"updatedAt"`
}

type documentEntity struct {
	Name          string    `datastore:"name"`
	URL           string    `datastore:"url"`
	Path          string    `datastore:"path"`
	Type          string    `datastore:"type"`
	UploadedAt    time.Time `datastore:"uploadedAt"`
	UploaderID    string    `datastore:"uploaderId"`
	UploaderName  string    `datastore:"uploaderName"`
	UploaderEmail string    `datastore:"uploaderEmail"`
}

func toBoardEntity(b *models.Board) *boardEntity {
	e := &boardEntity{
		Name:                 b.Name,
		Description:          b.Description,
		Priority:             string(b.Priority),
		Members:              b.Members,
		MemberIDs:            b.MemberIDs,
		CreatedBy:            b.CreatedBy,
		CreatedByName:        b.CreatedByName,
		Status:               string(b.Status),
		CompletionPercentage: b.CompletionPercentage,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
	if b.Deadline != nil {
		e.Deadline = *b.Deadline
		e.HasDeadline = true
	}
	for _, doc := range b.Documents {
		e.Documents = append(e.Documents, documentEntity{
			Name: doc.Name, URL: doc.URL, Path: doc.Path, Type: doc.Type, UploadedAt: doc.UploadedAt,
			UploaderID: doc.UploadedBy.ID, UploaderName: doc.UploadedBy.Name, UploaderEmail: doc.UploadedBy.Email,
		})
	}
	return e
}

func (e *boardEntity) toModel(id uuid.UUID) models.Board {
	b := models.Board{
		ID:                   id,
		Name:                 e.Name,
		Description:          e.Description,
		Priority:             models.Priority(e.Priority),
		Members:              e.Members,
		MemberIDs:            e.MemberIDs,
		CreatedBy:            e.CreatedBy,
		CreatedByName:        e.CreatedByName,
		Status:               models.BoardStatus(e.Status),
		CompletionPercentage: e.CompletionPercentage,
		Documents:            []models.Document{},
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
	if e.HasDeadline {
		deadline := e.Deadline
		b.Deadline = &deadline
	}
	for _, doc := range e.Documents {
		b.Documents = append(b.Documents, models.Document{
			Name: doc.Name, URL: doc.URL, Path: doc.Path, Type: doc.Type, UploadedAt: doc.UploadedAt,
			UploadedBy: models.Uploader{ID: doc.UploaderID, Name: doc.UploaderName, Email: doc.UploaderEmail},
		})
	}
	return b
}

type datastoreBoardRepo struct {
	ds *datastore.Client
}

func (r *datastoreBoardRepo) CreateBoard(ctx context.Context, board *models.Board) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()
	board.ID = id
	board.CreatedAt = now
	board.UpdatedAt = now
	if board.Status == "" {
		board.Status = models.BoardToDo
	}
	_, err := r.ds.Put(ctx, boardKey(id), toBoardEntity(board))
	return id, writeErr(err, "Failed to create board")
}

func (r *datastoreBoardRepo) GetBoard(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	var e boardEntity
	if err := r.ds.Get(ctx, boardKey(id), &e); err != nil {
		return nil, dsReadErr(err, "Board not found")
	}
	b := e.toModel(id)
	return &b, nil
}

func (r *datastoreBoardRepo) ListBoardsForMember(ctx context.Context, userID string, opts ListOptions) ([]models.Board, int64, error) {
	opts = opts.Normalize()
	q := datastore.NewQuery(KindBoard).FilterField("memberIds", "=", userID)
	if opts.Status != "" {
		q = q.FilterField("status", "=", string(opts.Status))
	}
	if opts.CreatedFrom != nil {
		q = q.FilterField("createdAt", ">=", *opts.CreatedFrom)
	}
	if opts.CreatedTo != nil {
		q = q.FilterField("createdAt", "<=", *opts.CreatedTo)
	}
	q = q.Order("-createdAt")

	total, err := r.ds.Count(ctx, q)
	if err != nil {
		return nil, 0, dsReadErr(err, "")
	}
	if opts.PageSize > 0 {
		q = q.Offset((opts.Page - 1) * opts.PageSize).Limit(opts.PageSize)
	}

	var entities []boardEntity
	keys, err := r.ds.GetAll(ctx, q, &entities)
	if err != nil {
		return nil, 0, dsReadErr(err, "")
	}
	boards := make([]models.Board, 0, len(keys))
	for i, key := range keys {
		id, err := uuid.Parse(key.Name)
		if err != nil {
			continue
		}
		boards = append(boards, entities[i].toModel(id))
	}
	return boards, int64(total), nil
}

// mutate runs fn against the stored board inside a transaction.
func (r *datastoreBoardRepo) mutate(ctx context.Context, id uuid.UUID, msg string, fn func(e *boardEntity) error) error {
	_, err := r.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e boardEntity
		if err := tx.Get(boardKey(id), &e); err != nil {
			return dsReadErr(err, "Board not found")
		}
		if err := fn(&e); err != nil {
			return err
		}
		e.UpdatedAt = time.Now()
		_, err := tx.Put(boardKey(id), &e)
		return err
	})
	return writeErr(err, msg)
}

func (r *datastoreBoardRepo) UpdateBoard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.mutate(ctx, id, "Failed to update board", func(e *boardEntity) error {
		for k, v := range fields {
			switch k {
			case "name":
				e.Name, _ = v.(string)
			case "description":
				e.Description, _ = v.(string)
			case "priority":
				e.Priority = fmt.Sprint(v)
			case "deadline":
				switch d := v.(type) {
				case *time.Time:
					e.HasDeadline = d != nil
					if d != nil {
						e.Deadline = *d
					} else {
						e.Deadline = time.Time{}
					}
				case time.Time:
					e.HasDeadline, e.Deadline = true, d
				case nil:
					e.HasDeadline, e.Deadline = false, time.Time{}
				}
			case "updated_at":
			default:
				return apperrors.Validation(fmt.Sprintf("unsupported board field %q", k))
			}
		}
		return nil
	})
}

func (r *datastoreBoardRepo) SetMembers(ctx context.Context, id uuid.UUID, name string, members []models.Member) error {
	var b models.Board
	b.SetMembers(members)
	return r.mutate(ctx, id, "Failed to update members", func(e *boardEntity) error {
		e.Members = b.Members
		e.MemberIDs = b.MemberIDs
		if name != "" {
			e.Name = name
		}
		return nil
	})
}

func (r *datastoreBoardRepo) UpdateDerived(ctx context.Context, id uuid.UUID, completion int, status models.BoardStatus) error {
	return r.mutate(ctx, id, "Failed to update board status", func(e *boardEntity) error {
		e.CompletionPercentage = completion
		e.Status = string(status)
		return nil
	})
}

func (r *datastoreBoardRepo) AppendDocuments(ctx context.Context, id uuid.UUID, docs []models.Document) error {
	add := toBoardEntity(&models.Board{Documents: docs}).Documents
	return r.mutate(ctx, id, "Failed to save documents", func(e *boardEntity) error {
		e.Documents = append(e.Documents, add...)
		return nil
	})
}

func (r *datastoreBoardRepo) RemoveDocument(ctx context.Context, id uuid.UUID, path string) (*models.Document, error) {
	var removed *models.Document
	err := r.mutate(ctx, id, "Failed to remove document", func(e *boardEntity) error {
		kept := e.Documents[:0:0]
		for _, d := range e.Documents {
			if d.Path == path && removed == nil {
				removed = &models.Document{
					Name: d.Name, URL: d.URL, Path: d.Path, Type: d.Type, UploadedAt: d.UploadedAt,
					UploadedBy: models.Uploader{ID: d.UploaderID, Name: d.UploaderName, Email: d.UploaderEmail},
				}
				continue
			}
			kept = append(kept, d)
		}
		if removed == nil {
			return apperrors.NotFound("Document not found")
		}
		e.Documents = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *datastoreBoardRepo) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	var e boardEntity
	if err := r.ds.Get(ctx, boardKey(id), &e); err != nil {
		return dsReadErr(err, "Board not found")
	}
	return writeErr(r.ds.Delete(ctx, boardKey(id)), "Failed to delete board")
}

type taskEntity struct {
	Title     string                 `datastore:"title"`
	Status    string                 `datastore:"status"`
	Checklist []models.ChecklistItem `datastore:"checklist,noindex"`
	CreatedAt time.Time              `datastore:"createdAt"`
	UpdatedAt time.Time              `datastore:"updatedAt"`
}

func (e *taskEntity) toModel(boardID uuid.UUID, key *datastore.Key) (models.Task, bool) {
	id, err := uuid.Parse(key.Name)
	if err != nil {
		return models.Task{}, false
	}
	checklist := e.Checklist
	if checklist == nil {
		checklist = []models.ChecklistItem{}
	}
	return models.Task{
		ID:        id,
		BoardID:   boardID,
		Title:     e.Title,
		Status:    models.TaskStatus(e.Status),
		Checklist: checklist,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, true
}

type datastoreTaskRepo struct {
	ds *datastore.Client
}

func (r *datastoreTaskRepo) CreateTask(ctx context.Context, task *models.Task) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Checklist == nil {
		task.Checklist = []models.ChecklistItem{}
	}
	_, err := r.ds.Put(ctx, taskKey(task.BoardID, id), &taskEntity{
		Title:     task.Title,
		Status:    string(task.Status),
		Checklist: task.Checklist,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return id, writeErr(err, "Failed to add task")
}

func (r *datastoreTaskRepo) GetTask(ctx context.Context, boardID, taskID uuid.UUID) (*models.Task, error) {
	key := taskKey(boardID, taskID)
	var e taskEntity
	if err := r.ds.Get(ctx, key, &e); err != nil {
		return nil, dsReadErr(err, "Task not found")
	}
	task, ok := e.toModel(boardID, key)
	if !ok {
		return nil, apperrors.NotFound("Task not found")
	}
	return &task, nil
}

func (r *datastoreTaskRepo) ListTasksByBoard(ctx context.Context, boardID uuid.UUID) ([]models.Task, error) {
	q := datastore.NewQuery(KindTask).Ancestor(boardKey(boardID)).Order("createdAt")
	var entities []taskEntity
	keys, err := r.ds.GetAll(ctx, q, &entities)
	if err != nil {
		return nil, dsReadErr(err, "")
	}
	tasks := make([]models.Task, 0, len(keys))
	for i, key := range keys {
		if t, ok := entities[i].toModel(boardID, key); ok {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (r *datastoreTaskRepo) mutate(ctx context.Context, boardID, taskID uuid.UUID, msg string, fn func(e *taskEntity)) error {
	key := taskKey(boardID, taskID)
	_, err := r.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e taskEntity
		if err := tx.Get(key, &e); err != nil {
			return dsReadErr(err, "Task not found")
		}
		fn(&e)
		_, err := tx.Put(key, &e)
		return err
	})
	return writeErr(err, msg)
}

func (r *datastoreTaskRepo) UpdateTitle(ctx context.Context, boardID, taskID uuid.UUID, title string, at time.Time) error {
	return r.mutate(ctx, boardID, taskID, "Failed to update task", func(e *taskEntity) {
		e.Title, e.UpdatedAt = title, at
	})
}

func (r *datastoreTaskRepo) UpdateStatus(ctx context.Context, boardID, taskID uuid.UUID, status models.TaskStatus, at time.Time) error {
	if !status.Valid() {
		return apperrors.New(apperrors.KindInvalidStatus, "Invalid task status")
	}
	return r.mutate(ctx, boardID, taskID, "Failed to move task", func(e *taskEntity) {
		e.Status, e.UpdatedAt = string(status), at
	})
}

func (r *datastoreTaskRepo) UpdateChecklist(ctx context.Context, boardID, taskID uuid.UUID, items []models.ChecklistItem, at time.Time) error {
	return r.mutate(ctx, boardID, taskID, "Failed to update checklist", func(e *taskEntity) {
		e.Checklist, e.UpdatedAt = items, at
	})
}

func (r *datastoreTaskRepo) DeleteTask(ctx context.Context, boardID, taskID uuid.UUID) error {
	key := taskKey(boardID, taskID)
	var e taskEntity
	if err := r.ds.Get(ctx, key, &e); err != nil {
		return dsReadErr(err, "Task not found")
	}
	return writeErr(r.ds.Delete(ctx, key), "Failed to delete task")
}

func (r *datastoreTaskRepo) DeleteTasksByBoard(ctx context.Context, boardID uuid.UUID) error {
	keys, err := r.ds.GetAll(ctx, datastore.NewQuery(KindTask).Ancestor(boardKey(boardID)).KeysOnly(), nil)
	if err != nil {
		return dsReadErr(err, "")
	}
	return writeErr(r.ds.DeleteMulti(ctx, keys), "Failed to delete board tasks")
}

type userEntity struct {
	FirstName string    `datastore:"firstName"`
	Surname   string    `datastore:"surname"`
	Email     string    `datastore:"email"`
	CreatedAt time.Time `datastore:"createdAt"`
	UpdatedAt time.Time `datastore:"updatedAt"`
}

func (e *userEntity) toModel(id string) models.User {
	return models.User{ID: id, FirstName: e.FirstName, Surname: e.Surname, Email: e.Email, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

type datastoreUserRepo struct {
	ds *datastore.Client
}

func (r *datastoreUserRepo) UpsertUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	_, err := r.ds.Put(ctx, datastore.NameKey(KindUser, user.ID, nil), &userEntity{
		FirstName: user.FirstName, Surname: user.Surname, Email: user.Email,
		CreatedAt: user.CreatedAt, UpdatedAt: user.UpdatedAt,
	})
	return writeErr(err, "Failed to save user")
}

func (r *datastoreUserRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	var e userEntity
	if err := r.ds.Get(ctx, datastore.NameKey(KindUser, id, nil), &e); err != nil {
		return nil, dsReadErr(err, "User not found")
	}
	u := e.toModel(id)
	return &u, nil
}

func (r *datastoreUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	q := datastore.NewQuery(KindUser).FilterField("email", "=", email).Limit(1)
	var entities []userEntity
	keys, err := r.ds.GetAll(ctx, q, &entities)
	if err != nil {
		return nil, dsReadErr(err, "")
	}
	if len(keys) == 0 {
		return nil, apperrors.NotFound("User not found")
	}
	u := entities[0].toModel(keys[0].Name)
	return &u, nil
}

func (r *datastoreUserRepo) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	keys := make([]*datastore.Key, len(ids))
	for i, id := range ids {
		keys[i] = datastore.NameKey(KindUser, id, nil)
	}
	entities := make([]userEntity, len(ids))
	err := r.ds.GetMulti(ctx, keys, entities)
	var multi datastore.MultiError
	if err != nil && !errors.As(err, &multi) {
		return nil, dsReadErr(err, "")
	}
	users := make([]models.User, 0, len(ids))
	for i, id := range ids {
		if multi != nil && multi[i] != nil {
			continue
		}
		users = append(users, entities[i].toModel(id))
	}
	return users, nil
}

func (r *datastoreUserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var entities []userEntity
	keys, err := r.ds.GetAll(ctx, datastore.NewQuery(KindUser).Order("firstName"), &entities)
	if err != nil {
		return nil, dsReadErr(err, "")
	}
	users := make([]models.User, 0, len(keys))
	for i, key := range keys {
		users = append(users, entities[i].toModel(key.Name))
	}
	return users, nil
}
