package services

import (
	"errors"
	"testing"

	"fuelsync-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInScope(t *testing.T) {
	assert.True(t, inScope(nil, "s1"), "nil scope allows every station")
	assert.False(t, inScope([]string{}, "s1"), "attendant without stations sees none")
	assert.True(t, inScope([]string{"s0", "s1"}, "s1"))
	assert.False(t, inScope([]string{"s0"}, "s1"))
}

func TestCheckLimit(t *testing.T) {
	require.NoError(t, checkLimit(0, 50, "stations"), "zero limit is unlimited")
	require.NoError(t, checkLimit(-1, 50, "stations"))
	require.NoError(t, checkLimit(3, 2, "stations"))

	err := checkLimit(3, 3, "stations")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrPlanLimit))
	assert.Contains(t, err.Error(), "at most 3 stations")
}

func TestRequireManager(t *testing.T) {
	for _, role := range []string{models.RoleOwner, models.RoleManager, models.RoleSuperAdmin} {
		assert.NoError(t, requireManager(models.Actor{Role: role}), role)
	}
	err := requireManager(models.Actor{Role: models.RoleAttendant})
	assert.True(t, errors.Is(err, models.ErrForbidden))
}
