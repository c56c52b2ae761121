package service

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-gin-chat-moderation/internal/domain"
)

func TestSubmitFlagNotifiesReporterAndAdmins(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	reporter := f.user(t, "reporter", domain.RoleUser)
	f.user(t, "admin1", domain.RoleAdmin)
	f.user(t, "admin2", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "buy cheap stuff")

	flag, err := f.mod.SubmitFlag(ctx, m.ID, reporter.ID, "  spam ")
	require.NoError(t, err)
	assert.False(t, flag.Reviewed)
	assert.Equal(t, "spam", flag.Reason)

	assert.EqualValues(t, 1, f.count(t, &domain.FlaggedContent{}, "reviewed = ?", false))
	assert.EqualValues(t, 3, f.count(t, &domain.Notification{}, ""), "admins+1")

	notes, err := f.notes.List(ctx, reporter.ID, false, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotifyFlaggedContent, notes[0].Type)
	assert.Contains(t, notes[0].Message, "Reason: spam")
	assert.EqualValues(t, 2, f.count(t, &domain.Notification{}, "type = ?", domain.NotifyAdminAlert))
}

func TestSubmitFlagAdminFanOutCanBeDisabled(t *testing.T) {
	f := newFixture(t)
	f.mod.cfg.NotifyAdminsOnFlag = false
	sender := f.user(t, "sender", domain.RoleUser)
	f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "hi")

	_, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.count(t, &domain.Notification{}, ""))
}

func TestSubmitFlagValidation(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	m := f.message(t, 0, sender.ID, "hi")

	_, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.mod.SubmitFlag(ctx, 404, sender.ID, "spam")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.db.Model(m).Update("deleted", true).Error)
	_, err = f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	assert.ErrorIs(t, err, domain.ErrNotFound, "deleted messages cannot be flagged")

	assert.Zero(t, f.count(t, &domain.FlaggedContent{}, ""))
}

func TestSubmitFlagSurvivesNotificationFailure(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "hi")
	require.NoError(t, f.db.Migrator().DropTable(&domain.Notification{}))

	flag, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	require.NoError(t, err)
	assert.NotZero(t, flag.ID)
	assert.EqualValues(t, 1, f.count(t, &domain.FlaggedContent{}, ""))
}

func TestReviewDeleteIsAtomic(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	reporter := f.user(t, "reporter", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "rude")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, reporter.ID, "abuse")
	require.NoError(t, err)

	res, err := f.mod.ReviewFlag(ctx, flag.ID, admin.ID, "delete")
	require.NoError(t, err)
	assert.Equal(t, "delete", res.Action)
	assert.Equal(t, "Message deleted", res.Description)

	_, err = f.messages.Get(ctx, sender.ID, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var got domain.FlaggedContent
	f.reload(t, &got, flag.ID)
	assert.True(t, got.Reviewed)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, admin.ID, *got.ReviewedBy)
	assert.Equal(t, "delete", got.Action)

	logs, err := f.audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, admin.ID, logs[0].UserID)
	assert.Equal(t, "Action 'delete' on message "+itoa(m.ID), logs[0].Action)

	assert.EqualValues(t, 1, f.count(t, &domain.Notification{}, "user_id = ? AND type = ?", sender.ID, domain.NotifyMessageDeleted))
	assert.EqualValues(t, 1, f.count(t, &domain.Notification{}, "user_id = ? AND type = ?", reporter.ID, domain.NotifyFlagResolved))
	assert.EqualValues(t, 1, f.count(t, &domain.Notification{}, "user_id = ? AND type = ?", admin.ID, domain.NotifyAdminAction))
}

func TestReviewRollsBackWhenAuditFails(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "rude")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "abuse")
	require.NoError(t, err)
	require.NoError(t, f.db.Migrator().DropTable(&domain.ActivityLog{}))

	_, err = f.mod.ReviewFlag(ctx, flag.ID, admin.ID, "delete")
	require.ErrorIs(t, err, domain.ErrStore)

	_, err = f.messages.Get(ctx, sender.ID, m.ID)
	assert.NoError(t, err, "message still readable")
	var got domain.FlaggedContent
	f.reload(t, &got, flag.ID)
	assert.False(t, got.Reviewed)
	assert.Nil(t, got.ReviewedBy)
}

func TestReviewRejectsWithoutMutation(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "hi")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	require.NoError(t, err)

	cases := []struct {
		name    string
		flagID  uint
		adminID uint
		action  string
		want    error
	}{
		{"missing flag", 999, admin.ID, "delete", domain.ErrNotFound},
		{"unknown action", flag.ID, admin.ID, "frobnicate", domain.ErrInvalidAction},
		{"non admin", flag.ID, sender.ID, "delete", domain.ErrUnauthorized},
		{"unknown admin", flag.ID, 12345, "delete", domain.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.mod.ReviewFlag(ctx, tc.flagID, tc.adminID, tc.action)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var got domain.FlaggedContent
	f.reload(t, &got, flag.ID)
	assert.False(t, got.Reviewed)
	_, err = f.messages.Get(ctx, sender.ID, m.ID)
	assert.NoError(t, err)
	assert.Zero(t, f.count(t, &domain.ActivityLog{}, ""))
}

func TestReviewActionIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "hi")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	require.NoError(t, err)

	res, err := f.mod.ReviewFlag(ctx, flag.ID, admin.ID, " Warn ")
	require.NoError(t, err)
	assert.Equal(t, "User warned", res.Description)
	assert.EqualValues(t, 1, f.count(t, &domain.Notification{}, "user_id = ? AND type = ?", sender.ID, domain.NotifyWarning))
}

func TestSecondReviewIsRejected(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "hi")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	require.NoError(t, err)

	_, err = f.mod.ReviewFlag(ctx, flag.ID, admin.ID, "ignore")
	require.NoError(t, err)
	_, err = f.mod.ReviewFlag(ctx, flag.ID, admin.ID, "ban")
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)

	var u domain.User
	f.reload(t, &u, sender.ID)
	assert.False(t, u.IsBanned, "second action had no effect")
	var got domain.FlaggedContent
	f.reload(t, &got, flag.ID)
	assert.Equal(t, "ignore", got.Action)
	assert.EqualValues(t, 1, f.count(t, &domain.ActivityLog{}, ""))
}

func TestConcurrentReviewsExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	admins := []*domain.User{
		f.user(t, "admin1", domain.RoleAdmin),
		f.user(t, "admin2", domain.RoleAdmin),
		f.user(t, "admin3", domain.RoleAdmin),
	}
	m := f.message(t, 0, sender.ID, "hi")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	require.NoError(t, err)

	errs := make([]error, len(admins))
	var wg sync.WaitGroup
	for i, a := range admins {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = f.mod.ReviewFlag(ctx, flag.ID, id, "warn")
		}(i, a.ID)
	}
	wg.Wait()

	var winner uint
	wins := 0
	for i, err := range errs {
		if err == nil {
			wins++
			winner = admins[i].ID
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrAlreadyReviewed), "unexpected error: %v", err)
	}
	require.Equal(t, 1, wins)

	var got domain.FlaggedContent
	f.reload(t, &got, flag.ID)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, winner, *got.ReviewedBy)
	assert.EqualValues(t, 1, f.count(t, &domain.ActivityLog{}, ""))
}

func TestBanScenario(t *testing.T) {
	f := newFixture(t)
	u := f.userWithID(t, 7, "u", domain.RoleUser)
	v := f.user(t, "v", domain.RoleUser)
	a := f.user(t, "a", domain.RoleAdmin)
	m := f.message(t, 42, u.ID, "nonsense")

	flag, err := f.mod.SubmitFlag(ctx, m.ID, v.ID, "spam")
	require.NoError(t, err)
	_, err = f.mod.ReviewFlag(ctx, flag.ID, a.ID, "ban")
	require.NoError(t, err)

	var banned domain.User
	f.reload(t, &banned, 7)
	assert.True(t, banned.IsBanned)

	var got domain.FlaggedContent
	f.reload(t, &got, flag.ID)
	assert.True(t, got.Reviewed)
	assert.Equal(t, a.ID, *got.ReviewedBy)

	assert.EqualValues(t, 1, f.count(t, &domain.ActivityLog{}, "user_id = ?", a.ID))
	assert.Positive(t, f.count(t, &domain.Notification{}, "user_id = ?", v.ID))
	assert.EqualValues(t, 1, f.count(t, &domain.Notification{}, "user_id = ? AND type = ?", 7, domain.NotifyBan))

	_, err = f.auth.Authenticate(ctx, "u", "password123")
	assert.ErrorIs(t, err, domain.ErrBanned)
}

func TestBanUnbanSuspend(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	bob := f.user(t, "bob", domain.RoleUser)

	u, err := f.mod.BanUser(ctx, admin.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, u.IsBanned)

	u, err = f.mod.UnbanUser(ctx, admin.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, u.IsBanned)

	u, err = f.mod.SuspendUser(ctx, admin.ID, bob.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, u.SuspendedUntil)
	assert.True(t, u.SuspendedUntil.Equal(testNow.AddDate(0, 0, 30)))

	_, err = f.auth.Authenticate(ctx, "bob", "password123")
	assert.ErrorIs(t, err, domain.ErrSuspended)

	logs, err := f.audit.ForAdmin(ctx, admin.ID, testNow.AddDate(0, 0, -1))
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{"Banned user bob", "Unbanned user bob", "Suspended user bob for 30 days"}, actions)
	assert.EqualValues(t, 1, f.count(t, &domain.Notification{}, "user_id = ? AND type = ?", bob.ID, domain.NotifySuspend))
}

func TestAccountActionsRejected(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	bob := f.user(t, "bob", domain.RoleUser)

	_, err := f.mod.BanUser(ctx, admin.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.mod.BanUser(ctx, bob.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.mod.BanUser(ctx, admin.ID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.mod.SuspendUser(ctx, admin.ID, bob.ID, 3651)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var u domain.User
	f.reload(t, &u, bob.ID)
	assert.False(t, u.IsBanned)
	assert.Nil(t, u.SuspendedUntil)
}

func TestPendingFlags(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "hi")
	first, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "one")
	require.NoError(t, err)
	_, err = f.mod.SubmitFlag(ctx, m.ID, sender.ID, "two")
	require.NoError(t, err)
	_, err = f.mod.ReviewFlag(ctx, first.ID, admin.ID, "ignore")
	require.NoError(t, err)

	flags, total, err := f.mod.PendingFlags(ctx, admin.ID, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, flags, 1)
	assert.Equal(t, "two", flags[0].Reason)

	_, _, err = f.mod.PendingFlags(ctx, sender.ID, 0, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// A reviewer that read the flag as open but lost the conditional claim to
// another admin must back out without applying its action.
func TestReviewLosingTheClaimHasNoEffect(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	rival := f.user(t, "rival", domain.RoleAdmin)
	m := f.message(t, 0, sender.ID, "hi")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, "spam")
	require.NoError(t, err)

	// another admin closes the flag right after the reviewer has read it
	var closeErr error
	fired := false
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:close_flag", func(db *gorm.DB) {
		if _, ok := db.Statement.Dest.(*domain.FlaggedContent); !ok || fired {
			return
		}
		fired = true
		closeErr = db.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE flagged_content SET reviewed = ?, reviewed_by = ?, action = ? WHERE id = ?",
				true, rival.ID, "ignore", flag.ID).Error
	}))

	_, err = f.mod.ReviewFlag(ctx, flag.ID, admin.ID, "ban")
	require.True(t, fired)
	require.NoError(t, closeErr)
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)

	var u domain.User
	f.reload(t, &u, sender.ID)
	assert.False(t, u.IsBanned)
	var msg domain.Message
	f.reload(t, &msg, m.ID)
	assert.False(t, msg.Deleted)
	assert.Zero(t, f.count(t, &domain.ActivityLog{}, ""))
	assert.Zero(t, f.count(t, &domain.Notification{}, "type = ?", domain.NotifyBan))
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	bob := f.user(t, "bob", domain.RoleUser)

	u, err := f.mod.SetRole(ctx, admin.ID, bob.ID, "Admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	_, err = f.auth.RequireAdmin(ctx, bob.ID)
	require.NoError(t, err, "promoted user passes the admin gate")

	u, err = f.mod.SetRole(ctx, admin.ID, bob.ID, domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	_, err = f.auth.RequireAdmin(ctx, bob.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	logs, err := f.audit.ForAdmin(ctx, admin.ID, testNow.AddDate(0, 0, -1))
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{
		"Changed role of user bob from user to admin",
		"Changed role of user bob from admin to user",
	}, actions)
	assert.EqualValues(t, 2, f.count(t, &domain.Notification{}, "user_id = ? AND type = ?", bob.ID, domain.NotifyRoleChange))
}

func TestSetRoleRejected(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	bob := f.user(t, "bob", domain.RoleUser)

	_, err := f.mod.SetRole(ctx, admin.ID, bob.ID, "owner")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.mod.SetRole(ctx, admin.ID, admin.ID, domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.mod.SetRole(ctx, bob.ID, bob.ID, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.mod.SetRole(ctx, admin.ID, 999, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var u domain.User
	f.reload(t, &u, bob.ID)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Zero(t, f.count(t, &domain.ActivityLog{}, ""))
}

func TestSuspendedAdminCannotModerate(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin", domain.RoleAdmin)
	other := f.user(t, "other", domain.RoleAdmin)
	bob := f.user(t, "bob", domain.RoleUser)
	until := testNow.Add(24 * time.Hour)
	require.NoError(t, f.db.Model(&domain.User{}).Where("id = ?", admin.ID).Update("suspended_until", until).Error)

	m := f.message(t, 0, bob.ID, "hi")
	flag, err := f.mod.SubmitFlag(ctx, m.ID, bob.ID, "spam")
	require.NoError(t, err)

	_, err = f.mod.ReviewFlag(ctx, flag.ID, admin.ID, "ban")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.mod.BanUser(ctx, admin.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	var u domain.User
	f.reload(t, &u, bob.ID)
	assert.False(t, u.IsBanned)

	_, err = f.mod.UnbanUser(ctx, other.ID, bob.ID)
	require.NoError(t, err, "an active admin is unaffected")
}

func TestSubmitFlagReasonLimitCountsCharacters(t *testing.T) {
	f := newFixture(t)
	sender := f.user(t, "sender", domain.RoleUser)
	m := f.message(t, 0, sender.ID, "hi")

	_, err := f.mod.SubmitFlag(ctx, m.ID, sender.ID, strings.Repeat("垃", 255))
	require.NoError(t, err, "255 multi-byte characters fit")

	_, err = f.mod.SubmitFlag(ctx, m.ID, sender.ID, strings.Repeat("垃", 256))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
