package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fredricrylander/itemid"
	"github.com/fredricrylander/itemid/postgres"
)

// The dialect layout is an alias of the root model, so the migration can
// never drift from what the itemid package mints.
func TestDefaultLayoutMatchesRoot(t *testing.T) {
	assert.Equal(t, itemid.DefaultLayout(), postgres.DefaultLayout())

	var l postgres.Layout = itemid.DefaultLayout() // same type, not a copy
	assert.Equal(t, 20, l.TimestampShift())
}
