package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewAction(t *testing.T) {
	for _, name := range ReviewActionNames() {
		a, err := ParseReviewAction(name)
		require.NoError(t, err)
		assert.Equal(t, name, a.String())
	}

	a, err := ParseReviewAction("  BAN ")
	require.NoError(t, err)
	assert.Equal(t, ActionBan, a)

	_, err = ParseReviewAction("frobnicate")
	assert.True(t, errors.Is(err, ErrInvalidAction))
}

func TestReviewActionOutcome(t *testing.T) {
	assert.Equal(t, "Message deleted", ActionDelete.Outcome())
	assert.Equal(t, "User warned", ActionWarn.Outcome())
	assert.Equal(t, "User banned", ActionBan.Outcome())
	assert.Equal(t, "Flag ignored", ActionIgnore.Outcome())
	assert.Equal(t, "unknown", ReviewAction(0).Outcome())
}

func TestStoreErrKeepsBothCauses(t *testing.T) {
	cause := errors.New("connection reset")
	err := StoreErr("load flag", cause)
	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, StoreErr("noop", nil))
}
