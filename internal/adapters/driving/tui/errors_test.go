package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrNoMigration.Error(), ErrViewClosed.Error())
	assert.Contains(t, ErrNoMigration.Error(), "tui:")
	assert.Contains(t, ErrViewClosed.Error(), "before the migration finished")
}
