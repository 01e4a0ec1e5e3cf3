package services

import (
	"context"

	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	log "github.com/sirupsen/logrus"
)

// UpdatePublisher ships a websocket payload to everyone watching a board.
// Both the local hub and the Redis fan-out satisfy it.
type UpdatePublisher interface {
	Publish(ctx context.Context, boardID string, payload []byte) error
}

// BoardUpdate is the data of a board_updated websocket message.
type BoardUpdate struct {
	Event                kanban.Event       `json:"event"`
	CompletionPercentage int                `json:"completionPercentage"`
	Status               models.BoardStatus `json:"status"`
}

// PushNotifier turns bus events into board_updated messages. It must be
// subscribed after the Aggregator so it reads fresh derived fields.
type PushNotifier struct {
	boards    repo.BoardRepoInterface
	publisher UpdatePublisher
}

func NewPushNotifier(boards repo.BoardRepoInterface, publisher UpdatePublisher) *PushNotifier {
	return &PushNotifier{boards: boards, publisher: publisher}
}

// Handle never fails the originating request; push is best effort.
func (n *PushNotifier) Handle(ctx context.Context, ev kanban.Event) error {
	update := BoardUpdate{Event: ev}
	if board, err := n.boards.GetBoard(ctx, ev.BoardID); err == nil {
		update.CompletionPercentage = board.CompletionPercentage
		update.Status = board.Status
	}

	payload := libraries.BoardUpdatedMessage(update)
	if payload == nil {
		return nil
	}
	if err := n.publisher.Publish(ctx, ev.BoardID.String(), payload); err != nil {
		log.WithFields(log.Fields{"board_id": ev.BoardID, "event": ev.Type, "err": err}).Warn("Failed to push board update")
	}
	return nil
}
