package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "02 Jan 2006"

type NotificationConfig struct {
	AppBaseURL   string
	CompanyName  string
	SupportEmail string
}

// NotificationService emails board invitations to newly added members.
type NotificationService struct {
	mailer libraries.Mailer
	users  repo.UserRepoInterface
	cfg    NotificationConfig
}

func NewNotificationService(mailer libraries.Mailer, users repo.UserRepoInterface, cfg NotificationConfig) *NotificationService {
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	return &NotificationService{mailer: mailer, users: users, cfg: cfg}
}

// InviteMembers sends one email per recipient, skipping the inviter. Every
// send is attempted; failures come back as a single EmailDeliveryFailure.
func (s *NotificationService) InviteMembers(ctx context.Context, board *models.Board, inviter models.Member, recipients []models.Member) error {
	var (
		mu     sync.Mutex
		failed []string
		causes []error
	)

	var g errgroup.Group
	g.SetLimit(4)
	for _, m := range recipients {
		if m.ID == inviter.ID || m.Email == "" {
			continue
		}
		m := m
		g.Go(func() error {
			params := s.templateParams(ctx, board, inviter, m)
			if err := s.mailer.Send(ctx, params); err != nil {
				log.WithFields(log.Fields{"board_id": board.ID, "to": m.Email, "err": err}).Error("Failed to send invitation email")
				mu.Lock()
				failed = append(failed, m.Email)
				causes = append(causes, err)
				mu.Unlock()
				return nil
			}
			log.WithFields(log.Fields{"board_id": board.ID, "to": m.Email}).Info("Invitation email sent")
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return nil
	}
	return apperrors.Wrap(apperrors.KindEmailDeliveryFailure,
		"Failed to send emails to: "+strings.Join(failed, ", "), errors.Join(causes...))
}

func (s *NotificationService) templateParams(ctx context.Context, board *models.Board, inviter, to models.Member) map[string]string {
	actionURL := s.cfg.AppBaseURL + "/login"
	if _, err := s.users.GetUserByEmail(ctx, to.Email); err == nil {
		actionURL = fmt.Sprintf("%s/boards/%s", s.cfg.AppBaseURL, board.ID)
	}

	boardName := orDefault(board.Name, "New Board")
	fromName := orDefault(inviter.Name, "Team Member")
	fromEmail := orDefault(inviter.Email, s.cfg.SupportEmail)
	deadline := "No deadline set"
	if board.Deadline != nil {
		deadline = board.Deadline.Format(dateLayout)
	}

	return map[string]string{
		"to_name":           orDefault(to.Name, "User"),
		"to_email":          to.Email,
		"from_name":         fromName,
		"from_email":        fromEmail,
		"reply_to":          fromEmail,
		"board_name":        boardName,
		"board_description": orDefault(board.Description, "No description provided"),
		"board_priority":    orDefault(string(board.Priority), string(models.PriorityMedium)),
		"deadline":          deadline,
		"action_url":        actionURL,
		"company_name":      s.cfg.CompanyName,
		"support_email":     s.cfg.SupportEmail,
		"message":           fmt.Sprintf("You have been invited to join the board %q by %s.", boardName, orDefault(inviter.Name, "a team member")),
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
