package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

func TestDecodeYAMLKeepsOrder(t *testing.T) {
	spec, err := DecodeYAML([]byte(`{status: active, age: [">=", 18], 0: OR, name: ["LIKE%", Jo]}`))
	require.NoError(t, err)
	assert.Equal(t, Map{
		{"status", "active"},
		{"age", List{">=", int64(18)}},
		{"", "OR"},
		{"name", List{"LIKE%", "Jo"}},
	}, spec)
	assert.Equal(t, "(`status` = 'active' OR `age` >= 18 OR `name` LIKE 'Jo%')", where(t, mysqlish, spec))
}

func TestDecodeYAML(t *testing.T) {
	doc := `
id: !param id
created_at: ["<", !raw NOW()]
score: 1.5
deleted: false
note: null
`
	spec, err := DecodeYAML([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "`id` = :id AND `created_at` < NOW() AND `score` = 1.5 AND `deleted` = 0 AND `note` IS NULL", where(t, mysqlish, spec))
}

func TestDecodeYAMLPositions(t *testing.T) {
	spec, err := DecodeYAML([]byte(`{0: id, 1: DESC}`))
	require.NoError(t, err)
	assert.Equal(t, List{"id", "DESC"}, spec)

	// 位置 0 缺失: [nil, 5]
	spec, err = DecodeYAML([]byte(`{age: {1: 5}}`))
	require.NoError(t, err)
	assert.Equal(t, Map{{"age", List{nil, int64(5)}}}, spec)
	_, err = New(mysqlish).Where(spec)
	assert.ErrorIs(t, err, dberr.ErrInvalidSpec)
}

func TestDecodeYAMLPositionBounds(t *testing.T) {
	for _, doc := range []string{
		"9223372036854775807: a",
		"1000000000: a",
		"{0: a, 3: b}",
		"-1: a",
		"{a: 1, 5: OR}",
	} {
		_, err := DecodeYAML([]byte(doc))
		assert.ErrorIs(t, err, dberr.ErrInvalidSpec, doc)
	}

	spec, err := DecodeYAML([]byte("{1: b, 0: a}"))
	require.NoError(t, err)
	assert.Equal(t, List{"a", "b"}, spec)
}

func TestDecodeYAMLRecords(t *testing.T) {
	spec, err := DecodeYAML([]byte("- {a: 1, b: 2}\n- {a: 3, b: 4}\n"))
	require.NoError(t, err)
	q, err := New(plain).CreateInsert("t", spec)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (1,2)\n,(3,4)", q)
}

func TestDecodeYAMLEmptyAndInvalid(t *testing.T) {
	spec, err := DecodeYAML(nil)
	require.NoError(t, err)
	assert.Nil(t, spec)

	_, err = DecodeYAML([]byte("a: [1, 2"))
	assert.ErrorIs(t, err, dberr.ErrInvalidSpec)

	_, err = DecodeYAML([]byte("? [a, b]\n: 1\n"))
	assert.ErrorIs(t, err, dberr.ErrInvalidSpec)
}
