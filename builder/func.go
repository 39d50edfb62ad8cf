package builder

import (
	"strings"
)

func column(field any) any {
	if s, ok := field.(string); ok {
		return NewField(s)
	}
	return field
}

// If 判断
func If(cond any, v1, v2 any) Fd {
	return fn("IF(%s, %s, %s)", cond, v1, v2)
}

// IfNull 判断, field 为 NULL 时返回 v
func IfNull(field any, v any) Fd {
	return fn("IFNULL(%s, %s)", column(field), v)
}

// Coalesce 返回第一个非 NULL 值
func Coalesce(values ...any) Fd {
	return fn("COALESCE("+placeholders(len(values))+")", values...)
}

// Sum
// field 字段名或 Fd
func Sum(field any) Fd {
	return fn("SUM(%s)", column(field))
}

// Count 传 "*" 时为 COUNT(*)
func Count(field any) Fd {
	if field == "*" {
		return fn("COUNT(*)")
	}
	return fn("COUNT(%s)", column(field))
}

func Min(field any) Fd {
	return fn("MIN(%s)", column(field))
}

func Max(field any) Fd {
	return fn("MAX(%s)", column(field))
}

func Avg(field any) Fd {
	return fn("AVG(%s)", column(field))
}

func Round(field any, num int) Fd {
	return fn("ROUND(%s, %s)", column(field), num)
}

// Lower 小写
func Lower(field any) Fd {
	return fn("LOWER(%s)", column(field))
}

func Upper(field any) Fd {
	return fn("UPPER(%s)", column(field))
}

// Concat 字符串参数作为字面量, Fd 作为字段
func Concat(values ...any) Fd {
	return fn("CONCAT("+placeholders(len(values))+")", values...)
}

// Distinct 多个字段去重
func Distinct(fields ...any) Fd {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, column(f))
	}
	return fn("DISTINCT "+placeholders(len(args)), args...)
}

func Now() Fd {
	return fn("NOW()")
}

func CurDate() Fd {
	return fn("CURDATE()")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("%s, ", n), ", ")
}
