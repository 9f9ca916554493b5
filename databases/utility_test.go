package databases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMongoPaginate(t *testing.T) {
	opts := NewMongoPaginate(10, 3)

	require.NotNil(t, opts.Limit)
	require.NotNil(t, opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)
}

func TestNewMongoPaginateFirstPage(t *testing.T) {
	opts := NewMongoPaginate(25, 0)

	require.NotNil(t, opts.Skip)
	assert.Equal(t, int64(0), *opts.Skip, "page zero must not produce a negative skip")
}
