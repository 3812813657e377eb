package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionID(t *testing.T) {
	sid := NewSessionID()
	assert.True(t, strings.HasPrefix(string(sid), "kern_"))
}

func TestNewChildID(t *testing.T) {
	cid := NewChildID()
	assert.True(t, strings.HasPrefix(string(cid), "proc_"))
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[ChildID]bool)
	for i := 0; i < 1000; i++ {
		cid := NewChildID()
		assert.False(t, seen[cid], "duplicate id %s", cid)
		seen[cid] = true
	}
}

func TestGeneratorOrdering(t *testing.T) {
	g := NewGenerator()
	first := g.Generate()
	second := g.Generate()

	// ULIDs are k-sortable; two generated in sequence never sort backwards.
	assert.LessOrEqual(t, first.String(), second.String())
}
