package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farecast/internal/types"
)

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("40.7484, -73.9876")
	require.NoError(t, err)
	assert.Equal(t, types.Point{Lat: 40.7484, Lng: -73.9876}, p)

	for _, bad := range []string{"", "40.7", "north,-73", "40.7,west"} {
		_, err := parsePoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestFmtPoint(t *testing.T) {
	assert.Equal(t, "-", fmtPoint(nil))
	assert.Equal(t, "40.74840, -73.98760", fmtPoint(&types.Point{Lat: 40.7484, Lng: -73.9876}))
}
