package services

import (
	"context"
	"immigration_crm_go/events"
	"immigration_crm_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "notify@despacho.es", models.RoleStaff)

	sub := env.bus.Subscribe(events.UserTopic(user.ID), "session-1")
	defer sub.Close()

	n, err := env.notifications.Create(ctx, NotificationInput{
		UserID:  user.ID,
		Type:    models.NotificationTypeDocumentRequired,
		Title:   "Falta el certificado",
		Message: "Solicitar certificado de empadronamiento",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationPriorityMedium, n.Priority)
	assert.False(t, n.IsRead)

	select {
	case evt := <-sub.Events():
		assert.Equal(t, events.TypeNotificationCreated, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("notification was not pushed on the user topic")
	}
	assert.Zero(t, env.mailer.count())

	t.Run("high priority is emailed", func(t *testing.T) {
		_, err := env.notifications.Create(ctx, NotificationInput{
			UserID:   user.ID,
			Type:     models.NotificationTypeSystem,
			Priority: models.NotificationPriorityHigh,
			Title:    "Urgente",
		})
		require.NoError(t, err)
		require.Equal(t, 1, env.mailer.count())
		assert.Equal(t, "notify@despacho.es", env.mailer.sent[0].to.Email)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := env.notifications.Create(ctx, NotificationInput{UserID: user.ID, Type: "reminder", Title: "x"})
		assert.True(t, IsValidationError(err))
		_, err = env.notifications.Create(ctx, NotificationInput{UserID: user.ID, Type: models.NotificationTypeSystem, Priority: "urgent", Title: "x"})
		assert.True(t, IsValidationError(err))
		_, err = env.notifications.Create(ctx, NotificationInput{Type: models.NotificationTypeSystem, Title: "x"})
		assert.True(t, IsValidationError(err))
	})
}

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "inbox@despacho.es", models.RoleStaff)
	other := env.createUser(t, "other@despacho.es", models.RoleStaff)

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := env.notifications.Create(ctx, NotificationInput{UserID: user.ID, Type: models.NotificationTypeSystem, Title: "Aviso"})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	count, err := env.notifications.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, env.notifications.MarkAsRead(ctx, user.ID, ids[0]))
	assert.ErrorIs(t, env.notifications.MarkAsRead(ctx, other.ID, ids[1]), ErrNotificationNotFound)

	unread, err := env.notifications.ListForUser(ctx, user.ID, true, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	limited, err := env.notifications.ListForUser(ctx, user.ID, false, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	marked, err := env.notifications.MarkAllAsRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	count, err = env.notifications.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, env.notifications.Delete(ctx, user.ID, ids[2]))
	assert.ErrorIs(t, env.notifications.Delete(ctx, user.ID, ids[2]), ErrNotificationNotFound)
}

func notificationsOf(t *testing.T, env *testEnv, userID, notificationType string) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, env.db.Where("user_id = ? AND type = ?", userID, notificationType).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func TestNotificationFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "admin@despacho.es", models.RoleAdmin)
	lawyer := env.createUser(t, "abogada@despacho.es", models.RoleLawyer)
	cancel := env.notifications.Attach(env.bus)
	defer cancel()

	client := env.createClient(t, "fanout@example.com")
	service := env.createService(t, "Residencia",
		MilestoneTemplateInput{Name: "Entrevista", OrderNumber: 1, IsPaymentRequired: true, PaymentPercentage: floatPtr(100)},
	)

	t.Run("client created goes to admins", func(t *testing.T) {
		rows := notificationsOf(t, env, admin.ID, models.NotificationTypeClientCreated)
		require.Len(t, rows, 1)
		assert.Equal(t, models.NotificationPriorityLow, rows[0].Priority)
		assert.Contains(t, rows[0].Message, "Amina Benali")
		assert.Equal(t, client.ID, *rows[0].RelatedID)
		assert.Empty(t, notificationsOf(t, env, lawyer.ID, models.NotificationTypeClientCreated))
	})

	withLawyer := env.createCase(t, client.ID, service.ID, 1000, 0, march2026, &lawyer.ID)
	env.createCase(t, client.ID, service.ID, 500, 0, march2026, nil)

	t.Run("service assigned goes to the lawyer, or admins when unassigned", func(t *testing.T) {
		rows := notificationsOf(t, env, lawyer.ID, models.NotificationTypeServiceAssigned)
		require.Len(t, rows, 1)
		assert.Equal(t, withLawyer.ID, *rows[0].RelatedID)
		assert.Equal(t, models.NotificationPriorityMedium, rows[0].Priority)
		assert.Len(t, notificationsOf(t, env, admin.ID, models.NotificationTypeServiceAssigned), 1)
	})

	milestoneID := withLawyer.Milestones[0].ID
	_, err := env.milestones.CompleteMilestone(ctx, milestoneID, nil)
	require.NoError(t, err)
	_, err = env.milestones.MarkPaymentAsCollected(ctx, milestoneID, nil)
	require.NoError(t, err)

	t.Run("milestone completed goes to the lawyer", func(t *testing.T) {
		rows := notificationsOf(t, env, lawyer.ID, models.NotificationTypeMilestoneCompleted)
		require.Len(t, rows, 1)
		assert.Contains(t, rows[0].Message, "Entrevista")
	})

	t.Run("payment collected goes to admins", func(t *testing.T) {
		rows := notificationsOf(t, env, admin.ID, models.NotificationTypeSystem)
		require.Len(t, rows, 1)
		assert.Contains(t, rows[0].Message, "1000.00")
		assert.Equal(t, models.NotificationPriorityLow, rows[0].Priority)
	})

	cancel()
	env.createClient(t, "after-cancel@example.com")
	assert.Len(t, notificationsOf(t, env, admin.ID, models.NotificationTypeClientCreated), 1)
}

func TestGenerateAutomaticNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2026, time.March, 20, 8, 0, 0, 0, time.UTC)
	lawyer := env.createUser(t, "auto@despacho.es", models.RoleLawyer)
	client := env.createClient(t, "auto@example.com")
	service := env.createService(t, "Nacionalidad",
		MilestoneTemplateInput{Name: "Tasa", OrderNumber: 1, IsPaymentRequired: true, DefaultPaymentAmount: floatPtr(104)},
		MilestoneTemplateInput{Name: "Examen DELE", OrderNumber: 2},
		MilestoneTemplateInput{Name: "Jura", OrderNumber: 3},
	)
	c := env.createCase(t, client.ID, service.ID, 900, 0, march2026, &lawyer.ID)

	soon := now.Add(48 * time.Hour)
	later := now.Add(10 * 24 * time.Hour)
	_, err := env.milestones.UpdateMilestone(ctx, c.Milestones[0].ID, MilestoneUpdate{DueDate: &soon})
	require.NoError(t, err)
	_, err = env.milestones.UpdateMilestone(ctx, c.Milestones[1].ID, MilestoneUpdate{DueDate: &soon})
	require.NoError(t, err)
	_, err = env.milestones.UpdateMilestone(ctx, c.Milestones[2].ID, MilestoneUpdate{DueDate: &later})
	require.NoError(t, err)

	created, err := env.notifications.GenerateAutomaticNotifications(ctx, now)
	require.NoError(t, err)
	// payment_due for the fee, milestone_due for the fee and the exam
	assert.Equal(t, 3, created)

	paymentDue := notificationsOf(t, env, lawyer.ID, models.NotificationTypePaymentDue)
	require.Len(t, paymentDue, 1)
	assert.Equal(t, models.NotificationPriorityHigh, paymentDue[0].Priority)
	assert.Contains(t, paymentDue[0].Message, "104.00")
	assert.Contains(t, paymentDue[0].Message, "22/03/2026")
	assert.Equal(t, 1, env.mailer.count())
	assert.Len(t, notificationsOf(t, env, lawyer.ID, models.NotificationTypeMilestoneDue), 2)

	t.Run("unread notifications are not duplicated", func(t *testing.T) {
		again, err := env.notifications.GenerateAutomaticNotifications(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, again)
	})

	t.Run("read notifications are raised again", func(t *testing.T) {
		require.NoError(t, env.notifications.MarkAsRead(ctx, lawyer.ID, paymentDue[0].ID))
		again, err := env.notifications.GenerateAutomaticNotifications(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, again)
	})

	t.Run("collected and completed milestones are quiet", func(t *testing.T) {
		_, err := env.notifications.MarkAllAsRead(ctx, lawyer.ID)
		require.NoError(t, err)
		_, err = env.milestones.UpdateMilestone(ctx, c.Milestones[0].ID, MilestoneUpdate{IsCompleted: boolPtr(true), IsPaymentCollected: boolPtr(true)})
		require.NoError(t, err)
		_, err = env.milestones.CompleteMilestone(ctx, c.Milestones[1].ID, nil)
		require.NoError(t, err)

		again, err := env.notifications.GenerateAutomaticNotifications(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, again)
	})

	t.Run("cancelled cases are skipped", func(t *testing.T) {
		_, err := env.milestones.UpdateMilestone(ctx, c.Milestones[1].ID, MilestoneUpdate{IsCompleted: boolPtr(false)})
		require.NoError(t, err)
		_, err = env.cases.ChangeStatus(ctx, c.ID, models.CaseStatusCancelled)
		require.NoError(t, err)

		again, err := env.notifications.GenerateAutomaticNotifications(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, again)
	})
}

func TestGenerateWithoutLawyerTargetsAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC)
	admin := env.createUser(t, "admin-auto@despacho.es", models.RoleAdmin)
	client := env.createClient(t, "no-lawyer@example.com")
	service := env.createService(t, "Visado", MilestoneTemplateInput{Name: "Cita", OrderNumber: 1})
	c := env.createCase(t, client.ID, service.ID, 300, 0, march2026, nil)

	due := now.Add(-time.Hour)
	_, err := env.milestones.UpdateMilestone(ctx, c.Milestones[0].ID, MilestoneUpdate{DueDate: &due})
	require.NoError(t, err)

	created, err := env.notifications.GenerateAutomaticNotifications(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, notificationsOf(t, env, admin.ID, models.NotificationTypeMilestoneDue), 1)
}
