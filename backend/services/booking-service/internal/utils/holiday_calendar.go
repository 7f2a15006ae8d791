package utils

import (
	"time"

	cal "github.com/rickar/cal/v2"
)

// Russian non-working public holidays. rickar/cal ships no RU package, so
// the fixed-date ones are declared here.
var (
	ruNewYearHolidays = func() []*cal.Holiday {
		out := make([]*cal.Holiday, 0, 8)
		for d := 1; d <= 8; d++ {
			name := "New Year Holidays"
			if d == 7 {
				name = "Orthodox Christmas"
			}
			out = append(out, &cal.Holiday{
				Name:  name,
				Type:  cal.ObservancePublic,
				Month: time.January,
				Day:   d,
				Func:  cal.CalcDayOfMonth,
			})
		}
		return out
	}()

	ruDefenderDay = &cal.Holiday{Name: "Defender of the Fatherland Day", Type: cal.ObservancePublic, Month: time.February, Day: 23, Func: cal.CalcDayOfMonth}
	ruWomensDay   = &cal.Holiday{Name: "International Women's Day", Type: cal.ObservancePublic, Month: time.March, Day: 8, Func: cal.CalcDayOfMonth}
	ruLabourDay   = &cal.Holiday{Name: "Spring and Labour Day", Type: cal.ObservancePublic, Month: time.May, Day: 1, Func: cal.CalcDayOfMonth}
	ruVictoryDay  = &cal.Holiday{Name: "Victory Day", Type: cal.ObservancePublic, Month: time.May, Day: 9, Func: cal.CalcDayOfMonth}
	ruRussiaDay   = &cal.Holiday{Name: "Russia Day", Type: cal.ObservancePublic, Month: time.June, Day: 12, Func: cal.CalcDayOfMonth}
	ruUnityDay    = &cal.Holiday{Name: "Unity Day", Type: cal.ObservancePublic, Month: time.November, Day: 4, Func: cal.CalcDayOfMonth}
)

// create once at init
var ruCalendar = cal.NewBusinessCalendar()

func init() {
	ruCalendar.AddHoliday(ruNewYearHolidays...)
	ruCalendar.AddHoliday(
		ruDefenderDay,
		ruWomensDay,
		ruLabourDay,
		ruVictoryDay,
		ruRussiaDay,
		ruUnityDay,
	)
}

// HolidayName returns the public holiday on t's date, or "".
func HolidayName(t time.Time) string {
	actual, _, h := ruCalendar.IsHoliday(t)
	if !actual || h == nil {
		return ""
	}
	return h.Name
}

func IsHoliday(t time.Time) bool {
	actual, _, _ := ruCalendar.IsHoliday(t)
	return actual
}
