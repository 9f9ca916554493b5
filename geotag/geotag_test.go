package geotag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNonImageYieldsNoCoordinates(t *testing.T) {
	coords, err := Extract(bytes.NewReader([]byte("not a jpeg at all")))

	assert.NoError(t, err)
	assert.Nil(t, coords)
}

func TestExtractEmptyInput(t *testing.T) {
	coords, err := Extract(bytes.NewReader(nil))

	assert.NoError(t, err)
	assert.Nil(t, coords)
}
