package builder

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preceeder/go.db.sqlkit/dberr"
)

type status string

func TestRender(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	n := 7
	var nilPtr *int

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, "NULL"},
		{"true", true, "1"},
		{"false", false, "0"},
		{"int", 42, "42"},
		{"negative", int64(-3), "-3"},
		{"float", 1.5, "1.5"},
		{"text", "abc", "'abc'"},
		{"quote", "it's", `'it\'s'`},
		{"bytes", []byte("raw"), "'raw'"},
		{"datetime", at, "'2024-01-02 03:04:05'"},
		{"expr", Raw("NOW()"), "NOW()"},
		{"param", Param("id"), ":id"},
		{"param with colon", Param(":id"), ":id"},
		{"positional", Param(""), "?"},
		{"named", Arg("uid", 1), ":uid"},
		{"named type", status("on"), "'on'"},
		{"pointer", &n, "7"},
		{"nil pointer", nilPtr, "NULL"},
		{"huge uint", uint64(math.MaxUint64), "'18446744073709551615'"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := ValueOf(c.in)
			require.NoError(t, err)
			got, err := Render(v, mysqlish)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestValueOfRejects(t *testing.T) {
	for _, in := range []any{math.NaN(), math.Inf(1), []int{1}, map[string]int{}, struct{}{}} {
		_, err := ValueOf(in)
		assert.ErrorIs(t, err, dberr.ErrInvalidSpec, "%T", in)
	}
}

func TestRenderList(t *testing.T) {
	values, err := Values([]any{1, "a", nil})
	require.NoError(t, err)
	got, err := RenderList(values, mysqlish)
	require.NoError(t, err)
	assert.Equal(t, "1,'a',NULL", got)

	_, err = Values("not a list")
	assert.ErrorIs(t, err, dberr.ErrInvalidSpec)
}

func TestEscapeFailure(t *testing.T) {
	d := &testDialect{failEscape: true}
	v, err := ValueOf("x")
	require.NoError(t, err)

	_, err = Render(v, d)
	assert.ErrorIs(t, err, dberr.ErrEscapeFailure)

	_, err = New(d).Where(Map{{"name", List{"%LIKE%", "x"}}})
	assert.ErrorIs(t, err, dberr.ErrEscapeFailure)
}

func TestBindValue(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		in    any
		typ   BindType
		value any
	}{
		{true, BindInt, int64(1)},
		{false, BindInt, int64(0)},
		{int32(5), BindInt, int64(5)},
		{uint8(5), BindInt, int64(5)},
		{2.5, BindFloat, 2.5},
		{"s", BindText, "s"},
		{status("on"), BindText, "on"},
		{at, BindText, "2024-01-02 03:04:05"},
		{nil, BindText, nil},
	}
	for _, c := range cases {
		typ, value := BindValue(c.in)
		assert.Equal(t, c.typ, typ, "%v", c.in)
		assert.Equal(t, c.value, value, "%v", c.in)
	}
}

func TestKindString(t *testing.T) {
	v, _ := ValueOf(1.5)
	assert.Equal(t, "float", v.Kind().String())
	assert.Equal(t, "param", Param("x").Kind().String())
	assert.True(t, Null.IsNull())
}
