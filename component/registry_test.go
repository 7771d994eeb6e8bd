package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	Register("test.registry", func(params Parameters) (any, error) {
		if params["fail"] == true {
			return nil, errors.New("boom")
		}
		return &echo{}, nil
	})

	assert.Contains(t, Names(), "test.registry")
	assert.PanicsWithValue(t, "component 'test.registry' already registered", func() {
		Register("test.registry", nil)
	})

	c, err := New("test.registry", nil)
	require.NoError(t, err)
	assert.IsType(t, &echo{}, c)

	_, err = New("test.registry", Parameters{"fail": true})
	assert.EqualError(t, err, "failed to create component 'test.registry': boom")

	_, err = New("missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
