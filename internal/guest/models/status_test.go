package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "convene/pkg/domain-errors"
)

func TestStatusTransitionTable(t *testing.T) {
	all := []Status{StatusInvited, StatusConfirmed, StatusCheckedIn, StatusNoShow, StatusCancelled}

	allowed := map[Status]map[Status]bool{
		StatusInvited: {StatusCheckedIn: true, StatusNoShow: true},
		StatusNoShow:  {StatusCheckedIn: true},
	}

	// The table is closed: every pair not listed above is rejected,
	// including checked_in back to anything.
	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)

			err := ValidateStatusTransition(from, to)
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				require.Error(t, err, "%s -> %s", from, to)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("no_show")
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, got)

	_, err = ParseStatus("")
	require.Error(t, err)

	_, err = ParseStatus("teleported")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
