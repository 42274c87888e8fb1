package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"client", "courier", "manager", "admin"} {
		r, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}
	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
	_, err = ParseRole("Client")
	assert.Error(t, err, "role matching is case sensitive")
}

func TestCapabilities(t *testing.T) {
	assert.True(t, RoleClient.Can(CapCreateShipment))
	assert.True(t, RoleClient.Can(CapViewShipment))
	assert.False(t, RoleClient.Can(CapUpdateStatus))
	assert.False(t, RoleClient.Can(CapAssignCourier))

	assert.True(t, RoleCourier.Can(CapUpdateStatus))
	assert.False(t, RoleCourier.Can(CapCreateShipment))
	assert.False(t, RoleCourier.Can(CapAssignCourier))

	assert.True(t, RoleManager.Can(CapAssignCourier))
	assert.False(t, RoleManager.Can(CapCreateShipment))

	for _, c := range []Capability{CapCreateShipment, CapViewShipment, CapUpdateStatus, CapAssignCourier} {
		assert.True(t, RoleAdmin.Can(c))
	}

	// unknown roles hold no grants
	assert.False(t, Role("superuser").Can(CapViewShipment))
}

func TestSessionRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	want := Session{UserID: uuid.New(), Role: RoleCourier}
	ctx := WithSession(context.Background(), want)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
