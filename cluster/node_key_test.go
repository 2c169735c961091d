package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildNodeKey(t *testing.T) {
	assert.Equal(t, "10.0.0.1:7000", BuildNodeKey("10.0.0.1", 7000))
	// no validation at this layer
	assert.Equal(t, "not-an-ip:-1", BuildNodeKey("not-an-ip", -1))
}

func TestSplitNodeKey(t *testing.T) {
	host, port := SplitNodeKey("10.0.0.1:7000")
	assert.Equal(t, "10.0.0.1", host)
	assert.Equal(t, "7000", port)

	host, port = SplitNodeKey("::1:7000")
	assert.Equal(t, "::1", host)
	assert.Equal(t, "7000", port)

	host, port = SplitNodeKey("localhost")
	assert.Equal(t, "localhost", host)
	assert.Equal(t, "", port)
}

func TestStringifyNodeKey(t *testing.T) {
	assert.Equal(t, "10.0.0.9:7000", stringifyNodeKey("", 7000, "10.0.0.9"))
	assert.Equal(t, "10.0.0.1:7000", stringifyNodeKey("10.0.0.1", 7000, "10.0.0.9"))
	assert.Equal(t, stringifyNodeKey("h1", 7000, "x"), stringifyNodeKey("h1", 7000, "y"))
}
