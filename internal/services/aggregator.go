package services

import (
	"context"

	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/repo"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Aggregator keeps a board's completion percentage and status in step with its tasks.
type Aggregator struct {
	boards repo.BoardRepoInterface
	tasks  repo.TaskRepoInterface
}

func NewAggregator(boards repo.BoardRepoInterface, tasks repo.TaskRepoInterface) *Aggregator {
	return &Aggregator{boards: boards, tasks: tasks}
}

// Recompute reloads every task of the board and persists the derived fields.
func (a *Aggregator) Recompute(ctx context.Context, boardID uuid.UUID) (kanban.Summary, error) {
	tasks, err := a.tasks.ListTasksByBoard(ctx, boardID)
	if err != nil {
		return kanban.Summary{}, err
	}
	summary := kanban.Summarize(tasks)
	if err := a.boards.UpdateDerived(ctx, boardID, summary.CompletionPercentage, summary.Status); err != nil {
		log.WithFields(log.Fields{"board_id": boardID, "err": err}).Error("Failed to persist board status")
		return summary, err
	}
	log.WithFields(log.Fields{
		"board_id":   boardID,
		"completion": summary.CompletionPercentage,
		"status":     summary.Status,
	}).Debug("Board status recomputed")
	return summary, nil
}

// Handle is the bus subscriber; only task events change the derived fields.
func (a *Aggregator) Handle(ctx context.Context, ev kanban.Event) error {
	if !ev.Type.IsTaskEvent() {
		return nil
	}
	_, err := a.Recompute(ctx, ev.BoardID)
	return err
}
