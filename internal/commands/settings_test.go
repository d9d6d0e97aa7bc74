package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidZone(t *testing.T) {
	assert.True(t, validZone("UTC"))
	assert.True(t, validZone("Australia/Sydney"))
	assert.True(t, validZone("America/New_York"))

	assert.False(t, validZone(""))
	assert.False(t, validZone("local"), "host-relative zones mean nothing to readers")
	assert.False(t, validZone("Local"))
	assert.False(t, validZone("Mars/Olympus_Mons"))
	assert.False(t, validZone("sydney"))
}

func TestCommonZonesAreValid(t *testing.T) {
	for _, zone := range commonZones {
		assert.True(t, validZone(zone), "autocomplete offers %q but it does not load", zone)
	}
}
