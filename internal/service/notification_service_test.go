package service

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-chat-moderation/internal/core/metrics"
	"go-gin-chat-moderation/internal/domain"
)

func TestNotifyAndList(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice", domain.RoleUser)

	for i := 1; i <= 12; i++ {
		_, err := f.notes.Notify(ctx, u.ID, domain.NotifyWarning, fmt.Sprintf("note %d", i))
		require.NoError(t, err)
	}

	list, err := f.notes.List(ctx, u.ID, false, 0)
	require.NoError(t, err)
	require.Len(t, list, 10, "default limit")
	assert.Equal(t, "note 12", list[0].Message, "newest first")

	list, err = f.notes.List(ctx, u.ID, false, 1000)
	require.NoError(t, err)
	assert.Len(t, list, 12)

	_, err = f.notes.Notify(ctx, u.ID, "", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMarkReadIsIdempotentAndOwnerScoped(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", domain.RoleUser)
	bob := f.user(t, "bob", domain.RoleUser)

	n, err := f.notes.Notify(ctx, alice.ID, domain.NotifyWarning, "hello")
	require.NoError(t, err)

	ok, err := f.notes.MarkRead(ctx, bob.ID, n.ID)
	require.NoError(t, err)
	assert.False(t, ok, "not the owner")

	for i := 0; i < 2; i++ {
		ok, err = f.notes.MarkRead(ctx, alice.ID, n.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err = f.notes.MarkRead(ctx, alice.ID, 9999)
	require.NoError(t, err)
	assert.False(t, ok)

	unread, err := f.notes.List(ctx, alice.ID, true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice", domain.RoleUser)
	for i := 0; i < 3; i++ {
		_, err := f.notes.Notify(ctx, u.ID, domain.NotifyWarning, "x")
		require.NoError(t, err)
	}

	n, err := f.notes.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	changed, err := f.notes.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, changed)

	n, err = f.notes.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteNotification(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice", domain.RoleUser)
	n, err := f.notes.Notify(ctx, u.ID, domain.NotifyWarning, "x")
	require.NoError(t, err)

	ok, err := f.notes.Delete(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.notes.Delete(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := f.notes.ListAll(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTryNotifySwallowsStoreErrors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&domain.Notification{}))
	before := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues(domain.NotifyBan))

	f.notes.TryNotify(ctx, 1, domain.NotifyBan, "x")

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues(domain.NotifyBan)))
	assert.Equal(t, 1, f.logs.FilterMessage("notification dropped").Len())
}
