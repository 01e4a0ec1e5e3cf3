package services

import (
	"context"
	"testing"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteMembersTemplateParams(t *testing.T) {
	h := newHarness(t)
	svc := NewNotificationService(h.mailer, h.users, NotificationConfig{
		AppBaseURL:   "https://collabrio.test",
		CompanyName:  "Collabrio",
		SupportEmail: "support@collabrio.com",
	})
	deadline := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	board := &models.Board{ID: uuid.New(), Name: "Launch", Priority: models.PriorityHigh, Deadline: &deadline}
	inviter := models.Member{ID: "admin", Name: "Ada Lovelace", Email: "ada@example.com"}

	err := svc.InviteMembers(context.Background(), board, inviter, []models.Member{
		inviter,
		{ID: "bob", Name: "Bob Builder", Email: "bob@example.com"},
		{ID: "stranger", Email: "new@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, h.mailer.sent, 2)

	byEmail := map[string]map[string]string{}
	for _, p := range h.mailer.sent {
		byEmail[p["to_email"]] = p
	}

	bob := byEmail["bob@example.com"]
	assert.Equal(t, "Bob Builder", bob["to_name"])
	assert.Equal(t, "Ada Lovelace", bob["from_name"])
	assert.Equal(t, "ada@example.com", bob["reply_to"])
	assert.Equal(t, "09 Mar 2024", bob["deadline"])
	assert.Equal(t, "No description provided", bob["board_description"])
	assert.Equal(t, "High", bob["board_priority"])
	assert.Equal(t, "https://collabrio.test/boards/"+board.ID.String(), bob["action_url"])
	assert.Equal(t, `You have been invited to join the board "Launch" by Ada Lovelace.`, bob["message"])

	stranger := byEmail["new@example.com"]
	assert.Equal(t, "User", stranger["to_name"])
	assert.Equal(t, "https://collabrio.test/login", stranger["action_url"])
}

func TestInviteMembersCollectsFailures(t *testing.T) {
	h := newHarness(t)
	h.mailer.fail["bob@example.com"] = true
	svc := NewNotificationService(h.mailer, h.users, NotificationConfig{SupportEmail: "support@collabrio.com"})
	board := &models.Board{ID: uuid.New(), Name: "Launch"}

	err := svc.InviteMembers(context.Background(), board, models.Member{ID: "admin"}, []models.Member{
		{ID: "bob", Email: "bob@example.com"},
		{ID: "cy", Email: "cy@example.com"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindEmailDeliveryFailure, apperrors.KindOf(err))
	assert.Contains(t, apperrors.Message(err), "bob@example.com")
	assert.Equal(t, []string{"cy@example.com"}, h.mailer.recipients(), "remaining sends still run")

	assert.Equal(t, "No deadline set", svc.templateParams(context.Background(), board, models.Member{}, models.Member{Email: "cy@example.com"})["deadline"])
}
