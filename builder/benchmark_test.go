package builder

import (
	"testing"
)

// BenchmarkSimpleQuery 测试简单查询性能
func BenchmarkSimpleQuery(b *testing.B) {
	c := New(mysqlish)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tu := Table("t_user")
		_, _, _ = tu.Select(tu.Field("id"), tu.Field("name")).
			Where(tu.Field("id").Eq(1)).
			Limit(10).
			Query(c)
	}
}

// BenchmarkComplexQuery 测试复杂查询性能
func BenchmarkComplexQuery(b *testing.B) {
	c := New(mysqlish)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tu := Table("t_user").As("u")
		ti := Table("t_user_info").As("t")

		_, _, _ = tu.Select(tu.Field("id"), tu.Field("name"), ti.Field("age")).
			LeftJoin(ti, tu.Field("id").Eq(ti.Field("user_id"))).
			Where(
				tu.Field("id").Gt(0),
				Or(
					And(tu.Field("name").Eq("test"), tu.Field("age").Gte(18)),
					tu.Field("status").Eq(1),
				),
			).
			Group(tu.Field("status")).
			Having(Sum(tu.Field("age")).Gt(100)).
			Order(tu.Field("id").Desc()).
			Limit(10).
			Offset(5).
			Query(c)
	}
}

// BenchmarkWhereSpec 测试字面量条件的编译性能
func BenchmarkWhereSpec(b *testing.B) {
	c := New(mysqlish)
	spec := Map{
		{"status", "active"},
		{"age", List{">=", 18}},
		{"", "OR"},
		{"name", List{"LIKE%", "Jo"}},
		{"id", List{"IN", []int{1, 2, 3, 4, 5}}},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Where(spec)
	}
}

// BenchmarkMultiRowInsert 测试多行插入语句的生成
func BenchmarkMultiRowInsert(b *testing.B) {
	c := New(mysqlish)
	rows := make(List, 0, 100)
	for i := 0; i < 100; i++ {
		rows = append(rows, Map{{"id", i}, {"name", "user"}, {"score", 1.5}})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.CreateInsert("t_user", rows)
	}
}

// BenchmarkFieldOperations 测试字段操作性能
func BenchmarkFieldOperations(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		field := NewField("age")
		_, _ = field.Add(10).Mul(2).Div(3).Count().Max().As("calculated_age").Name.(Fd).render(mysqlish)
	}
}
