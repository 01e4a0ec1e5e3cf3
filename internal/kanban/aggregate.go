// Package kanban holds the board/task rules that do not depend on any store:
// status aggregation, the column view used for transitions and the task event bus.
package kanban

import (
	"math"

	"collabrio-backend/internal/models"
)

// Summary is the derived state of a board.
type Summary struct {
	Total                int                       `json:"total"`
	Unplaced             int                       `json:"unplaced,omitempty"`
	Counts               map[models.TaskStatus]int `json:"counts"`
	CompletionPercentage int                       `json:"completionPercentage"`
	Status               models.BoardStatus        `json:"status"`
}

// Summarize derives completion and status from the full task set of a board.
// Tasks whose status is not a column are left out of every count, the total
// included.
func Summarize(tasks []models.Task) Summary {
	counts := make(map[models.TaskStatus]int, len(models.Columns))
	unplaced := 0
	for _, t := range tasks {
		if !t.Status.Valid() {
			unplaced++
			continue
		}
		counts[t.Status]++
	}
	total := len(tasks) - unplaced
	return Summary{
		Total:                total,
		Unplaced:             unplaced,
		Counts:               counts,
		CompletionPercentage: completion(total, counts[models.StatusDone]),
		Status:               status(total, counts[models.StatusDone], counts[models.StatusDoing]),
	}
}

// CompletionPercentage returns round(100*done/total), 0 for an empty set.
func CompletionPercentage(tasks []models.Task) int {
	return Summarize(tasks).CompletionPercentage
}

// Status returns the coarse board status for a task set.
func Status(tasks []models.Task) models.BoardStatus {
	return Summarize(tasks).Status
}

func completion(total, done int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

func status(total, done, doing int) models.BoardStatus {
	switch {
	case doing > 0 || (done > 0 && total > done):
		return models.BoardInProgress
	case total > 0 && done == total:
		return models.BoardCompleted
	default:
		return models.BoardToDo
	}
}
