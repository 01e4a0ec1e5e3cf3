package repo

import (
	"context"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoardRepo represents the repository for the board model
type BoardRepo struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) BoardRepoInterface {
	return &BoardRepo{db: db}
}

// CreateBoard creates a new board and its member index rows in one transaction.
func (r *BoardRepo) CreateBoard(ctx context.Context, board *models.Board) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now().UTC()
	board.ID = id
	board.CreatedAt = now
	board.UpdatedAt = now
	if board.Status == "" {
		board.Status = models.BoardToDo
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}
		return syncMemberIndex(tx, id, board.MemberIDs)
	})
	return id, writeErr(err, "Failed to create board")
}

func (r *BoardRepo) GetBoard(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	var board models.Board
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error
	if err != nil {
		return nil, readErr(err, "Board not found")
	}
	return &board, nil
}

// ListBoardsForMember returns the boards userID belongs to, newest first, with the total match count.
func (r *BoardRepo) ListBoardsForMember(ctx context.Context, userID string, opts ListOptions) ([]models.Board, int64, error) {
	opts = opts.Normalize()
	var boards []models.Board
	var total int64

	base := r.db.WithContext(ctx).Model(&models.Board{}).
		Joins("JOIN board_members ON board_members.board_id = boards.id").
		Where("board_members.user_id = ?", userID)
	if opts.Status != "" {
		base = base.Where("boards.status = ?", opts.Status)
	}
	if opts.CreatedFrom != nil {
		base = base.Where("boards.created_at >= ?", *opts.CreatedFrom)
	}
	if opts.CreatedTo != nil {
		base = base.Where("boards.created_at <= ?", *opts.CreatedTo)
	}
	base = base.Session(&gorm.Session{})

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, readErr(err, "")
	}

	query := base.Select("boards.*").Order("boards.created_at desc")
	if opts.PageSize > 0 {
		query = query.Limit(opts.PageSize).Offset((opts.Page - 1) * opts.PageSize)
	}
	if err := query.Find(&boards).Error; err != nil {
		return nil, 0, readErr(err, "")
	}
	return boards, total, nil
}

// UpdateBoard merges fields into the board record.
func (r *BoardRepo) UpdateBoard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return writeErr(res.Error, "Failed to update board")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Board not found")
	}
	return nil
}

func (r *BoardRepo) SetMembers(ctx context.Context, id uuid.UUID, name string, members []models.Member) error {
	var b models.Board
	b.SetMembers(members)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"members":    b.Members,
			"member_ids": b.MemberIDs,
			"updated_at": time.Now(),
		}
		if name != "" {
			fields["name"] = name
		}
		res := tx.Model(&models.Board{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Board not found")
		}
		return syncMemberIndex(tx, id, b.MemberIDs)
	})
	return writeErr(err, "Failed to update members")
}

func (r *BoardRepo) UpdateDerived(ctx context.Context, id uuid.UUID, completion int, status models.BoardStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", id).Updates(map[string]interface{}{
		"completion_percentage": completion,
		"status":                status,
	})
	if res.Error != nil {
		return writeErr(res.Error, "Failed to update board status")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Board not found")
	}
	return nil
}

// AppendDocuments adds docs after the existing attachments.
func (r *BoardRepo) AppendDocuments(ctx context.Context, id uuid.UUID, docs []models.Document) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board models.Board
		if err := tx.Select("id", "documents").Where("id = ?", id).First(&board).Error; err != nil {
			return readErr(err, "Board not found")
		}
		all := append(board.Documents, docs...)
		return tx.Model(&models.Board{}).Where("id = ?", id).Updates(map[string]interface{}{
			"documents":  all,
			"updated_at": time.Now(),
		}).Error
	})
	return writeErr(err, "Failed to save documents")
}

func (r *BoardRepo) RemoveDocument(ctx context.Context, id uuid.UUID, path string) (*models.Document, error) {
	var removed *models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board models.Board
		if err := tx.Select("id", "documents").Where("id = ?", id).First(&board).Error; err != nil {
			return readErr(err, "Board not found")
		}
		kept := make([]models.Document, 0, len(board.Documents))
		for _, d := range board.Documents {
			if d.Path == path && removed == nil {
				d := d
				removed = &d
				continue
			}
			kept = append(kept, d)
		}
		if removed == nil {
			return apperrors.NotFound("Document not found")
		}
		return tx.Model(&models.Board{}).Where("id = ?", id).Updates(map[string]interface{}{
			"documents":  kept,
			"updated_at": time.Now(),
		}).Error
	})
	if err != nil {
		return nil, writeErr(err, "Failed to remove document")
	}
	return removed, nil
}

func (r *BoardRepo) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", id).Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Board{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("Board not found")
		}
		return nil
	})
	return writeErr(err, "Failed to delete board")
}

func syncMemberIndex(tx *gorm.DB, boardID uuid.UUID, memberIDs []string) error {
	if err := tx.Where("board_id = ?", boardID).Delete(&models.BoardMember{}).Error; err != nil {
		return err
	}
	if len(memberIDs) == 0 {
		return nil
	}
	rows := make([]models.BoardMember, 0, len(memberIDs))
	for _, uid := range memberIDs {
		rows = append(rows, models.BoardMember{BoardID: boardID, UserID: uid})
	}
	return tx.Create(&rows).Error
}
