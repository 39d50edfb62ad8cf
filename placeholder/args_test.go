package placeholder

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

func TestArgs(t *testing.T) {
	p := Parse("a = :id OR b = ? OR c = :id AND d = :name", sqlx.QUESTION)

	args, err := p.Args(map[string]any{":id": 7, "name": "x", "unused": 1}, []any{"pos"})
	require.NoError(t, err)
	assert.Equal(t, []any{7, "pos", 7, "x"}, args)

	_, err = p.Args(map[string]any{"id": 7}, []any{"pos"})
	assert.ErrorIs(t, err, dberr.ErrUnknownParameter)

	_, err = p.Args(map[string]any{"id": 7, "name": "x"}, nil)
	assert.ErrorIs(t, err, dberr.ErrPositionMismatch)

	args, err = Parse("SELECT 1", sqlx.QUESTION).Args(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestExpand(t *testing.T) {
	p := Parse("SELECT * FROM t WHERE s = ':x' AND id IN (:ids) AND n = :n", sqlx.QUESTION)
	args, err := p.Args(map[string]any{"ids": []int{1, 2, 3}, "n": "a"}, nil)
	require.NoError(t, err)

	q, flat, err := p.Expand(args, sqlx.QUESTION)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE s = ':x' AND id IN (?, ?, ?) AND n = ?", q)
	assert.Equal(t, []any{1, 2, 3, "a"}, flat)

	q, flat, err = p.Expand(args, sqlx.DOLLAR)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE s = ':x' AND id IN ($1, $2, $3) AND n = $4", q)
	assert.Len(t, flat, 4)

	// []byte 不展开
	q, flat, err = p.Expand([]any{[]byte("ab"), "a"}, sqlx.DOLLAR)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE s = ':x' AND id IN ($1) AND n = $2", q)
	assert.Equal(t, []any{[]byte("ab"), "a"}, flat)

	_, _, err = p.Expand([]any{[]int{}, "a"}, sqlx.QUESTION)
	assert.ErrorIs(t, err, dberr.ErrInvalidSpec)
	_, _, err = p.Expand([]any{1}, sqlx.QUESTION)
	assert.ErrorIs(t, err, dberr.ErrPositionMismatch)
}

func TestExpandKeepsQuotedQuestionMarks(t *testing.T) {
	p := Parse("SELECT '?' AS q, a FROM t WHERE a = ? AND b::text = :b", sqlx.QUESTION)
	assert.Equal(t, "SELECT '?' AS q, a FROM t WHERE a = ? AND b::text = ?", p.Text)

	q, flat, err := p.Expand([]any{1, "x"}, sqlx.DOLLAR)
	require.NoError(t, err)
	assert.Equal(t, "SELECT '?' AS q, a FROM t WHERE a = $1 AND b::text = $2", q)
	assert.Equal(t, []any{1, "x"}, flat)
}
