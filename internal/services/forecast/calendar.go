package forecast

import (
	"fmt"
	"time"
)

// Calendar selects which days forecast dates fall on.
type Calendar string

const (
	CalendarDaily       Calendar = "daily"
	CalendarTradingDays Calendar = "trading_days"
)

// Alignment selects whether the first forecast date is the last observed
// date or the day after it.
type Alignment string

const (
	AlignInclusive Alignment = "inclusive"
	AlignNextDay   Alignment = "next_day"
)

// FutureDates labels steps forecast values. With the inclusive alignment the
// first label is last itself; trading-day calendars skip weekends after it.
func FutureDates(last time.Time, steps int, cal Calendar, align Alignment) ([]time.Time, error) {
	switch cal {
	case CalendarDaily, CalendarTradingDays:
	default:
		return nil, fmt.Errorf("unknown calendar %q", cal)
	}
	day := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
	switch align {
	case AlignInclusive:
	case AlignNextDay:
		day = next(day, cal)
	default:
		return nil, fmt.Errorf("unknown date alignment %q", align)
	}
	out := make([]time.Time, 0, max(steps, 0))
	for i := 0; i < steps; i++ {
		if i > 0 {
			day = next(day, cal)
		}
		out = append(out, day)
	}
	return out, nil
}

func next(day time.Time, cal Calendar) time.Time {
	day = day.AddDate(0, 0, 1)
	if cal == CalendarTradingDays {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
	}
	return day
}
