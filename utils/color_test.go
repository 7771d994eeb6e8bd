package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorize(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.Equal(t, "\x1b[90m[rest]\x1b[0m", Colorize("[rest]", ColorDarkGray))
	assert.Equal(t, "[rest]", Colorize("[rest]", 0))

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "[rest]", Colorize("[rest]", ColorDarkGray))
}
