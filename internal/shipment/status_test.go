package shipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	known := []string{
		"ready_for_pickup", "out_for_delivery", "delivered",
		"failed_attempt", "returned_to_sender", "lost", "damaged",
	}
	for _, s := range known {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), st)
	}

	for _, s := range []string{"", "teleported", "Delivered", "in_transit"} {
		_, err := ParseStatus(s)
		assert.Error(t, err, "status %q must be rejected", s)
	}
}
