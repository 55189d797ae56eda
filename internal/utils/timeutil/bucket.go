package timeutil

import "time"

// 所有粒度的桶起点截断规则统一定义在本包：
// 小时=整点，天=本地零点，周=周一零点，月=当月1日零点。
// 导出层做跨平台 join 时依赖各表使用同一套规则，不允许各处自行截断。

// StartOfHour 小时桶起点
func StartOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// StartOfDay 天桶起点（本地零点）
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek 周桶起点（周一零点）
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	// Go 的 Weekday 周日=0，转成周一=0 的偏移
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth 月桶起点（当月1日零点）
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
