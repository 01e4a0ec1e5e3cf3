// Package services orchestrates the board, task, document, notification and
// report flows on top of the stores, the blob store and the event bus.
package services

import (
	"context"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Clock is swapped out in tests.
type Clock func() time.Time

func memberBoard(ctx context.Context, boards repo.BoardRepoInterface, boardID uuid.UUID, userID string) (*models.Board, error) {
	board, err := boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !board.HasMember(userID) {
		return nil, apperrors.NotAuthorized("You are not a member of this board")
	}
	return board, nil
}

func adminBoard(ctx context.Context, boards repo.BoardRepoInterface, boardID uuid.UUID, userID, action string) (*models.Board, error) {
	board, err := boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !board.IsAdmin(userID) {
		log.WithFields(log.Fields{"board_id": boardID, "user_id": userID, "action": action}).
			Warn("Rejected non-admin board change")
		return nil, apperrors.NotAuthorized("Only the board admin can " + action)
	}
	return board, nil
}

// actorMember resolves the acting user's profile, falling back to the bare id
// when the user has not saved a profile yet.
func actorMember(ctx context.Context, users repo.UserRepoInterface, userID string) models.Member {
	u, err := users.GetUser(ctx, userID)
	if err != nil {
		return models.Member{ID: userID, Name: userID}
	}
	return u.AsMember()
}
