package sqlkit

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Column types for struct scanning. Each also implements driver.Valuer, so
// it can be passed to the builder as a literal or bound as a parameter.

// Date 将 date 类型转化为 unix 秒
type Date int64

func (g *Date) Scan(src any) error {
	var source string
	switch v := src.(type) {
	case nil:
		*g = 0
		return nil
	case string:
		source = v
	case []byte:
		source = string(v)
	case time.Time:
		*g = Date(v.Unix())
		return nil
	default:
		return errors.Errorf("incompatible type %T for Date", src)
	}
	v, err := time.ParseInLocation(time.DateOnly, source, time.Local)
	if err != nil {
		return errors.WithStack(err)
	}
	*g = Date(v.Unix())
	return nil
}

func (g Date) Value() (driver.Value, error) {
	return g.Date().Format(time.DateOnly), nil
}

func (g Date) Date() time.Time {
	return time.Unix(int64(g), 0)
}

// DateTime renders and parses as "2006-01-02 15:04:05".
type DateTime time.Time

func (g *DateTime) Scan(src any) error {
	var source string
	switch v := src.(type) {
	case nil:
		*g = DateTime{}
		return nil
	case string:
		source = v
	case []byte:
		source = string(v)
	case time.Time:
		*g = DateTime(v)
		return nil
	default:
		return errors.Errorf("incompatible type %T for DateTime", src)
	}
	v, err := time.ParseInLocation(time.DateTime, source, time.Local)
	if err != nil {
		return errors.WithStack(err)
	}
	*g = DateTime(v)
	return nil
}

func (g DateTime) Value() (driver.Value, error) {
	return time.Time(g), nil
}

func (g DateTime) Datetime() time.Time {
	return time.Time(g)
}

// MarshalJSON 格式化为 "2006-01-02 15:04:05"
func (g DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + g.Datetime().Format(time.DateTime) + `"`), nil
}

// UnmarshalJSON 从字符串解析时间
func (g *DateTime) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	parsed, err := time.ParseInLocation(time.DateTime, str, time.Local)
	if err != nil {
		return errors.WithStack(err)
	}
	*g = DateTime(parsed)
	return nil
}

// Json is a JSON object column.
type Json map[string]any

func (j *Json) Scan(src any) error {
	return scanJSON(src, j)
}

func (j Json) Value() (driver.Value, error) {
	return valueJSON(j)
}

// JsonSlice is a JSON array-of-objects column.
type JsonSlice []map[string]any

func (j *JsonSlice) Scan(src any) error {
	return scanJSON(src, j)
}

func (j JsonSlice) Value() (driver.Value, error) {
	return valueJSON(j)
}

func scanJSON(src any, dest any) error {
	var source []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		source = []byte(v)
	case []byte:
		source = v
	default:
		return errors.Errorf("incompatible type %T for json column", src)
	}
	if err := json.Unmarshal(source, dest); err != nil {
		return errors.Wrap(err, "json column")
	}
	return nil
}

func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(b), nil
}

// NullString scans NULL as "".
type NullString string

func (i *NullString) Scan(src any) error {
	if t, ok := src.(time.Time); ok {
		*i = NullString(t.Format(time.DateTime))
		return nil
	}
	var ns sql.NullString
	if err := ns.Scan(src); err != nil {
		return err
	}
	*i = NullString(ns.String)
	return nil
}

func (i NullString) Value() (driver.Value, error) {
	return string(i), nil
}

func (i NullString) String() string {
	return string(i)
}

// NullInt64 scans NULL as 0.
type NullInt64 int64

func (i *NullInt64) Scan(src any) error {
	var n sql.NullInt64
	if err := n.Scan(src); err != nil {
		return err
	}
	*i = NullInt64(n.Int64)
	return nil
}

func (i NullInt64) Value() (driver.Value, error) {
	return int64(i), nil
}

func (i NullInt64) Int64() int64 {
	return int64(i)
}

func (i NullInt64) Int() int {
	return int(i)
}

// NullFloat64 scans NULL as 0.
type NullFloat64 float64

func (i *NullFloat64) Scan(src any) error {
	var n sql.NullFloat64
	if err := n.Scan(src); err != nil {
		return err
	}
	*i = NullFloat64(n.Float64)
	return nil
}

func (i NullFloat64) Value() (driver.Value, error) {
	return float64(i), nil
}

func (i NullFloat64) Float64() float64 {
	return float64(i)
}

// NullBool scans NULL as false; integers are true when non-zero.
type NullBool bool

func (i *NullBool) Scan(src any) error {
	if n, ok := src.(int64); ok {
		*i = n != 0
		return nil
	}
	var b sql.NullBool
	if err := b.Scan(src); err != nil {
		return err
	}
	*i = NullBool(b.Bool)
	return nil
}

func (i NullBool) Value() (driver.Value, error) {
	return bool(i), nil
}

func (i NullBool) Bool() bool {
	return bool(i)
}
