package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithIsolatedRole(t *testing.T) {
	out, err := WithIsolatedRole("postgres://app:secret@db:5432/bookings?sslmode=disable", "Runner7", "42")
	require.NoError(t, err)
	assert.Equal(t, "postgres://runner7-42:secret@db:5432/bookings?sslmode=disable", out)

	_, err = WithIsolatedRole("postgres://app@db/bookings", "", "1")
	assert.Error(t, err)

	_, err = WithIsolatedRole("mysql://app@db/bookings", "r", "1")
	assert.Error(t, err)
}
