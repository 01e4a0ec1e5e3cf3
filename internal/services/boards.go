package services

import (
	"context"
	"strings"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type BoardService struct {
	boards        repo.BoardRepoInterface
	tasks         repo.TaskRepoInterface
	users         repo.UserRepoInterface
	documents     *DocumentService
	notifications *NotificationService
	bus           *kanban.Bus
	cascadeDelete bool
}

func NewBoardService(
	boards repo.BoardRepoInterface,
	tasks repo.TaskRepoInterface,
	users repo.UserRepoInterface,
	documents *DocumentService,
	notifications *NotificationService,
	bus *kanban.Bus,
	cascadeDelete bool,
) *BoardService {
	return &BoardService{
		boards:        boards,
		tasks:         tasks,
		users:         users,
		documents:     documents,
		notifications: notifications,
		bus:           bus,
		cascadeDelete: cascadeDelete,
	}
}

type CreateBoardInput struct {
	Name        string
	Description string
	Priority    models.Priority
	Deadline    *time.Time
	NoDeadline  bool
	MemberIDs   []string
	Files       []FileUpload
}

// BoardResult carries non-fatal problems next to the saved board.
type BoardResult struct {
	Board    *models.Board `json:"board"`
	Warnings []string      `json:"warnings,omitempty"`
}

func (in *CreateBoardInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return apperrors.Validation("Board name is required")
	}
	if in.Description == "" {
		return apperrors.Validation("Description is required")
	}
	if !in.Priority.Valid() {
		return apperrors.Validation("Priority must be High, Medium or Low")
	}
	if in.NoDeadline {
		in.Deadline = nil
	} else if in.Deadline == nil {
		return apperrors.Validation("Deadline is required")
	}
	return nil
}

// Create saves a new board with the caller as admin and first member.
func (s *BoardService) Create(ctx context.Context, userID string, in CreateBoardInput) (*BoardResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	for _, f := range in.Files {
		if !allowedDocument(f.Name) {
			return nil, apperrors.Validation("invalid document type: " + f.Name)
		}
	}

	creator := actorMember(ctx, s.users, userID)
	members, err := s.resolveMembers(ctx, []models.Member{creator}, in.MemberIDs)
	if err != nil {
		return nil, err
	}

	board := &models.Board{
		Name:                 in.Name,
		Description:          in.Description,
		Priority:             in.Priority,
		Deadline:             in.Deadline,
		CreatedBy:            userID,
		CreatedByName:        creator.Name,
		Status:               models.BoardToDo,
		CompletionPercentage: 0,
	}
	board.SetMembers(members)

	if _, err := s.boards.CreateBoard(ctx, board); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"board_id": board.ID, "user_id": userID}).Info("Board created")

	result := &BoardResult{Board: board}
	if len(in.Files) > 0 {
		docs, err := s.documents.attach(ctx, board, creator, in.Files)
		if err != nil {
			result.Warnings = append(result.Warnings, apperrors.Message(err))
		} else {
			board.Documents = append(board.Documents, docs...)
		}
	}

	if err := s.notifications.InviteMembers(ctx, board, creator, board.Members); err != nil {
		result.Warnings = append(result.Warnings, apperrors.Message(err))
	}
	return result, nil
}

// resolveMembers keeps the given members and adds the directory entries for
// ids; unknown ids are dropped.
func (s *BoardService) resolveMembers(ctx context.Context, keep []models.Member, ids []string) ([]models.Member, error) {
	members := append([]models.Member{}, keep...)
	if len(ids) == 0 {
		return members, nil
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		members = append(members, users[i].AsMember())
	}
	return members, nil
}

func (s *BoardService) List(ctx context.Context, userID string, opts repo.ListOptions) ([]models.Board, int64, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, 0, apperrors.Validation("Invalid board status filter")
	}
	return s.boards.ListBoardsForMember(ctx, userID, opts.Normalize())
}

func (s *BoardService) Get(ctx context.Context, userID string, boardID uuid.UUID) (*models.Board, error) {
	return memberBoard(ctx, s.boards, boardID, userID)
}

// CanWatch gates websocket subscriptions.
func (s *BoardService) CanWatch(ctx context.Context, userID, boardID string) error {
	id, err := uuid.Parse(boardID)
	if err != nil {
		return apperrors.Validation("Invalid board id")
	}
	_, err = memberBoard(ctx, s.boards, id, userID)
	return err
}

// Delete removes the board. Tasks and blobs are only removed when cascading
// deletes are enabled.
func (s *BoardService) Delete(ctx context.Context, userID string, boardID uuid.UUID) error {
	board, err := adminBoard(ctx, s.boards, boardID, userID, "delete the board")
	if err != nil {
		return err
	}
	if s.cascadeDelete {
		if err := s.tasks.DeleteTasksByBoard(ctx, boardID); err != nil {
			return err
		}
		if err := s.documents.purge(ctx, board); err != nil {
			log.WithFields(log.Fields{"board_id": boardID, "err": err}).Warn("Failed to delete board documents")
		}
	}
	if err := s.boards.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"board_id": boardID, "user_id": userID, "cascade": s.cascadeDelete}).Info("Board deleted")
	return nil
}

type UpdateMembersInput struct {
	Name      string
	MemberIDs []string
}

// UpdateMembers replaces the member set. The creator must stay a member and
// newly added members are invited by email.
func (s *BoardService) UpdateMembers(ctx context.Context, userID string, boardID uuid.UUID, in UpdateMembersInput) (*BoardResult, error) {
	board, err := adminBoard(ctx, s.boards, boardID, userID, "edit members")
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(in.MemberIDs))
	for _, id := range in.MemberIDs {
		requested[id] = true
	}
	if !requested[board.CreatedBy] {
		return nil, apperrors.Validation("Cannot remove board creator")
	}

	existing := make(map[string]bool, len(board.MemberIDs))
	var keep []models.Member
	for _, m := range board.Members {
		existing[m.ID] = true
		if requested[m.ID] {
			keep = append(keep, m)
		}
	}
	var added []string
	for _, id := range in.MemberIDs {
		if !existing[id] {
			added = append(added, id)
		}
	}

	members, err := s.resolveMembers(ctx, keep, added)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := s.boards.SetMembers(ctx, boardID, name, members); err != nil {
		return nil, err
	}

	oldIDs := board.MemberIDs
	board.SetMembers(members)
	if name != "" {
		board.Name = name
	}

	result := &BoardResult{Board: board}
	if err := s.bus.Publish(ctx, kanban.Event{Type: kanban.BoardUpdated, BoardID: boardID, ActorID: userID}); err != nil {
		return nil, err
	}

	newcomers := newMembers(oldIDs, board.Members)
	if len(newcomers) > 0 {
		inviter := actorMember(ctx, s.users, userID)
		if err := s.notifications.InviteMembers(ctx, board, inviter, newcomers); err != nil {
			result.Warnings = append(result.Warnings, apperrors.Message(err))
		}
	}
	return result, nil
}

func newMembers(oldIDs []string, members []models.Member) []models.Member {
	old := make(map[string]bool, len(oldIDs))
	for _, id := range oldIDs {
		old[id] = true
	}
	var out []models.Member
	for _, m := range members {
		if !old[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// UpdateDeadline sets or clears (nil) the deadline.
func (s *BoardService) UpdateDeadline(ctx context.Context, userID string, boardID uuid.UUID, deadline *time.Time) (*models.Board, error) {
	board, err := adminBoard(ctx, s.boards, boardID, userID, "edit the deadline")
	if err != nil {
		return nil, err
	}
	var value interface{}
	if deadline != nil {
		value = *deadline
	}
	if err := s.boards.UpdateBoard(ctx, boardID, map[string]interface{}{"deadline": value}); err != nil {
		return nil, err
	}
	board.Deadline = deadline
	if err := s.bus.Publish(ctx, kanban.Event{Type: kanban.BoardUpdated, BoardID: boardID, ActorID: userID}); err != nil {
		return nil, err
	}
	return board, nil
}
