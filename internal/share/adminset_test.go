package share

import (
	"testing"

	"github.com/nanumsa/server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdminSet(t *testing.T) {
	set, err := ParseAdminSet("3,7,9")
	require.NoError(t, err)
	assert.Equal(t, AdminSet{3, 7, 9}, set)

	set, err = ParseAdminSet("")
	require.NoError(t, err)
	assert.Empty(t, set)

	set, err = ParseAdminSet(" 5 , 12 ")
	require.NoError(t, err)
	assert.Equal(t, AdminSet{5, 12}, set)

	// Duplicates collapse, first occurrence wins.
	set, err = ParseAdminSet("3,7,3,9,7")
	require.NoError(t, err)
	assert.Equal(t, AdminSet{3, 7, 9}, set)
}

func TestParseAdminSet_CorruptEntry(t *testing.T) {
	_, err := ParseAdminSet("3,abc,9")
	assert.ErrorIs(t, err, apperr.ErrCorruptAdminSet)

	_, err = ParseAdminSet("3,,9")
	assert.ErrorIs(t, err, apperr.ErrCorruptAdminSet)
}

func TestAdminSet_RoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "3,7,9", "42,1,100000"} {
		set, err := ParseAdminSet(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, set.String())
	}
}

func TestAdminSet_Contains(t *testing.T) {
	set, err := ParseAdminSet("3,7,9")
	require.NoError(t, err)

	assert.True(t, set.Contains(7))
	assert.False(t, set.Contains(8))
}

func TestAdminSet_AddIsIdempotent(t *testing.T) {
	set := AdminSet{3, 7}

	set = set.Add(9)
	assert.Equal(t, "3,7,9", set.String())

	set = set.Add(7)
	assert.Equal(t, "3,7,9", set.String())
}

func TestAdminSet_RemovePreservesOrder(t *testing.T) {
	set, err := ParseAdminSet("3,7,9")
	require.NoError(t, err)

	set, err = set.Remove(7)
	require.NoError(t, err)
	assert.Equal(t, "3,9", set.String())
}

func TestAdminSet_RemoveLastAdminRefused(t *testing.T) {
	set, err := ParseAdminSet("5")
	require.NoError(t, err)

	got, err := set.Remove(5)
	assert.ErrorIs(t, err, apperr.ErrLastAdmin)
	assert.Equal(t, "5", got.String(), "set must be left unchanged")
}

func TestAdminSet_RemoveAbsentIsNoop(t *testing.T) {
	set := AdminSet{3, 9}

	got, err := set.Remove(7)
	require.NoError(t, err)
	assert.Equal(t, "3,9", got.String())
}

func TestAuthorize(t *testing.T) {
	_, err := authorize("3,7,9", 7)
	assert.NoError(t, err)

	_, err = authorize("3,7,9", 8)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = authorize("3,x,9", 3)
	assert.ErrorIs(t, err, apperr.ErrCorruptAdminSet)
}

func TestAdminSet_RemoveAnyIgnoresLastAdminRule(t *testing.T) {
	set := AdminSet{5}
	assert.Empty(t, set.removeAny(5))
}
