package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"
	"collabrio-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []map[string]string
	fail map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, params map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[params["to_email"]] {
		return errors.New("emailjs status 400: bad template")
	}
	m.sent = append(m.sent, params)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.sent {
		out = append(out, p["to_email"])
	}
	return out
}

type pushed struct {
	boardID string
	payload []byte
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []pushed
}

func (p *recordingPublisher) Publish(_ context.Context, boardID string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, pushed{boardID: boardID, payload: payload})
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

// countingTasks counts status writes and can be told to fail them.
type countingTasks struct {
	repo.TaskRepoInterface
	statusWrites int
	failStatus   error
}

func (c *countingTasks) UpdateStatus(ctx context.Context, boardID, taskID uuid.UUID, status models.TaskStatus, at time.Time) error {
	c.statusWrites++
	if c.failStatus != nil {
		return c.failStatus
	}
	return c.TaskRepoInterface.UpdateStatus(ctx, boardID, taskID, status, at)
}

type flakyBoards struct {
	repo.BoardRepoInterface
	failDerived error
}

func (f *flakyBoards) UpdateDerived(ctx context.Context, id uuid.UUID, completion int, status models.BoardStatus) error {
	if f.failDerived != nil {
		return f.failDerived
	}
	return f.BoardRepoInterface.UpdateDerived(ctx, id, completion, status)
}

// flakyBlobs fails uploads whose path contains "broken".
type flakyBlobs struct {
	libraries.BlobStore
	mu      sync.Mutex
	deleted []string
}

func (f *flakyBlobs) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	if strings.Contains(path, "broken") {
		return "", errors.New("bucket unavailable")
	}
	return f.BlobStore.Upload(ctx, path, contentType, r)
}

func (f *flakyBlobs) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, path)
	f.mu.Unlock()
	return f.BlobStore.Delete(ctx, path)
}

type harness struct {
	boards    *flakyBoards
	tasks     *countingTasks
	users     repo.UserRepoInterface
	blobs     *flakyBlobs
	blobDir   string
	bus       *kanban.Bus
	mailer    *recordingMailer
	publisher *recordingPublisher

	Boards    *BoardService
	Tasks     *TaskService
	Documents *DocumentService
	Reports   *ReportService
}

type harnessOptions struct {
	cascadeDelete  bool
	uploadRollback bool
}

func newHarness(t *testing.T, opts ...harnessOptions) *harness {
	t.Helper()
	var o harnessOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	db := testutil.NewSQLiteDB(t)
	h := &harness{
		boards:    &flakyBoards{BoardRepoInterface: repo.NewBoardRepository(db)},
		tasks:     &countingTasks{TaskRepoInterface: repo.NewTaskRepository(db)},
		users:     repo.NewUserRepository(db),
		bus:       kanban.NewBus(),
		mailer:    &recordingMailer{fail: map[string]bool{}},
		publisher: &recordingPublisher{},
		blobDir:   t.TempDir(),
	}
	fs, err := libraries.NewFileBlobStore(h.blobDir, "http://localhost:3000/files")
	require.NoError(t, err)
	h.blobs = &flakyBlobs{BlobStore: fs}

	h.bus.Subscribe(NewAggregator(h.boards, h.tasks).Handle)
	h.bus.Subscribe(NewPushNotifier(h.boards, h.publisher).Handle)

	notifications := NewNotificationService(h.mailer, h.users, NotificationConfig{
		AppBaseURL:   "https://collabrio.test/",
		CompanyName:  "Collabrio",
		SupportEmail: "support@collabrio.com",
	})
	h.Documents = NewDocumentService(h.boards, h.users, h.blobs, h.bus, o.uploadRollback)
	h.Boards = NewBoardService(h.boards, h.tasks, h.users, h.Documents, notifications, h.bus, o.cascadeDelete)
	h.Tasks = NewTaskService(h.boards, h.tasks, h.bus)
	h.Reports = NewReportService(h.boards, h.tasks, h.users)

	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "admin", FirstName: "Ada", Surname: "Lovelace", Email: "ada@example.com"},
		{ID: "bob", FirstName: "Bob", Surname: "Builder", Email: "bob@example.com"},
		{ID: "cy", FirstName: "Cy", Surname: "Young", Email: "cy@example.com"},
	} {
		u := u
		require.NoError(t, h.users.UpsertUser(ctx, &u))
	}
	return h
}

func (h *harness) createBoard(t *testing.T, members ...string) *models.Board {
	t.Helper()
	deadline := time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)
	res, err := h.Boards.Create(context.Background(), "admin", CreateBoardInput{
		Name:        "Launch",
		Description: "Ship the launch",
		Priority:    models.PriorityHigh,
		Deadline:    &deadline,
		MemberIDs:   members,
	})
	require.NoError(t, err)
	return res.Board
}

func (h *harness) board(t *testing.T, id uuid.UUID) *models.Board {
	t.Helper()
	b, err := h.boards.GetBoard(context.Background(), id)
	require.NoError(t, err)
	return b
}

func textFile(name, body string) FileUpload {
	return FileUpload{
		Name:        name,
		ContentType: "text/plain",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func decodeBoardUpdate(payload []byte) (BoardUpdate, error) {
	var msg struct {
		Data BoardUpdate `json:"data"`
	}
	err := json.Unmarshal(payload, &msg)
	return msg.Data, err
}
