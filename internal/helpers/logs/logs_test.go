package logs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugEnabled(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "on", "TRUE"} {
		assert.True(t, DebugEnabled(v), v)
	}
	for _, v := range []string{"", "0", "false"} {
		assert.False(t, DebugEnabled(v), v)
	}
}
