package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/clausecode/internal/domain/history"
)

func TestFilterClause(t *testing.T) {
	where, args := filterClause(history.Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = filterClause(history.Filter{Agent: "Lawyer", UserID: "u1", Limit: 5})
	assert.Equal(t, " WHERE agent=? AND user_id=?", where)
	assert.Equal(t, []any{"Lawyer", "u1"}, args)
}

func TestStringOrDash(t *testing.T) {
	assert.Equal(t, "-", stringOrDash("  "))
	assert.Equal(t, "x", stringOrDash("x"))
}
