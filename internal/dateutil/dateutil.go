package dateutil

import "time"

// Season 表示气象学意义上的季节
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
	SeasonWinter Season = "winter"
)

// Normalize 将时间截断到 UTC 零点，调度器内部所有日期都经过此处理
// 统一时区后日期比较与 SQLite 往返才是精确的
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays 返回 date 之后 n 天的日期，n 可为负数
// time.AddDate 按公历处理月份、年份与闰年的进位
func AddDays(date time.Time, n int) time.Time {
	return Normalize(date).AddDate(0, 0, n)
}

// DaysBetween 返回带符号的天数差 b - a
func DaysBetween(a, b time.Time) int {
	return int(Normalize(b).Sub(Normalize(a)).Hours() / 24)
}

// SeasonForDate 按固定月份边界返回日期所属季节（12-2 冬，3-5 春，6-8 夏，9-11 秋）
// 仅支持北半球划分，南半球用户需注意季节相反——当前为已知限制而非可配置项
func SeasonForDate(date time.Time) Season {
	switch date.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonFall
	default:
		return SeasonWinter
	}
}

// NextSeason 返回给定季节的下一个季节，用于备耕推荐
func NextSeason(s Season) Season {
	switch s {
	case SeasonSpring:
		return SeasonSummer
	case SeasonSummer:
		return SeasonFall
	case SeasonFall:
		return SeasonWinter
	default:
		return SeasonSpring
	}
}
