package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16(t *testing.T) {
	// reference value from the redis cluster specification
	assert.Equal(t, uint16(0x31C3), checksum([]byte("123456789")))
}

func TestKeySlot(t *testing.T) {
	assert.Equal(t, 12182, KeySlot("foo"))
	assert.Equal(t, 12739, KeySlot("123456789"))
	assert.Equal(t, KeySlot("{user1000}.following"), KeySlot("{user1000}.followers"))
	assert.Equal(t, KeySlot("user1000"), KeySlot("{user1000}.following"))
}

func TestGetPartitionKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"foo", "foo"},
		{"{user1000}.following", "user1000"},
		{"foo{}{bar}", "foo{}{bar}"},
		{"foo{{bar}}zap", "{bar"},
		{"foo{bar}{zap}", "bar"},
		{"}foo{bar}", "bar"},
		{"foo{bar", "foo{bar"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getPartitionKey(tt.key), tt.key)
	}
}
