package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCmdLine(t *testing.T) {
	cmdLine := ToCmdLine("CLUSTER", "SLOTS")
	assert.Equal(t, [][]byte{[]byte("CLUSTER"), []byte("SLOTS")}, cmdLine)
	assert.Equal(t, "CLUSTER SLOTS", CmdString(cmdLine))
	assert.Equal(t, "", CmdString(nil))
}
