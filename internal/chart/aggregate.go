package chart

import (
	"sort"
	"time"

	"github.com/sabarim/cryptodash/internal/historical"
)

// Window is the lookback span applied before charting
type Window string

const (
	Window7d  Window = "7d"
	Window1m  Window = "1m"
	Window1y  Window = "1y"
	WindowAll Window = "All"
)

// Windows lists the selectable windows in display order
var Windows = []Window{Window7d, Window1m, Window1y, WindowAll}

var windowDays = map[Window]int{
	Window7d: 7,
	Window1m: 30,
	Window1y: 365,
}

// ParseWindow maps a user-supplied string to a Window; unknown values mean All
func ParseWindow(s string) Window {
	w := Window(s)
	if _, ok := windowDays[w]; ok {
		return w
	}
	return WindowAll
}

// Start returns the earliest date kept for a series ending at end.
// The second value is false when the window has no lower bound.
func (w Window) Start(end time.Time) (time.Time, bool) {
	days, ok := windowDays[w]
	if !ok {
		return time.Time{}, false
	}
	return end.AddDate(0, 0, -days), true
}

// DailyPrice is the mean price of one asset on one calendar day
type DailyPrice struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// FilterWindow keeps entries on or after the window start, measured from the
// latest date present in entries
func FilterWindow(entries historical.History, w Window) historical.History {
	end, ok := entries.LatestDate()
	if !ok {
		return nil
	}
	start, bounded := w.Start(end)
	if !bounded {
		return entries
	}

	var out historical.History
	for _, e := range entries {
		if !e.Date.Before(start) {
			out = append(out, e)
		}
	}
	return out
}

// DailyAverages groups entries by date and averages current_price per day,
// sorted ascending by date
func DailyAverages(entries historical.History) []DailyPrice {
	type acc struct {
		sum   float64
		count int
	}
	byDate := make(map[time.Time]*acc)
	for _, e := range entries {
		if !e.CurrentPrice.Valid {
			continue
		}
		a, ok := byDate[e.Date]
		if !ok {
			a = &acc{}
			byDate[e.Date] = a
		}
		a.sum += e.CurrentPrice.Value
		a.count++
	}

	out := make([]DailyPrice, 0, len(byDate))
	for date, a := range byDate {
		out = append(out, DailyPrice{Date: date, Price: a.sum / float64(a.count)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// MovingAverage returns the trailing mean over window points. The first
// window-1 values average however many points are available.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		return out
	}

	for i := range values {
		from := i - window + 1
		if from < 0 {
			from = 0
		}
		sum := 0.0
		for _, v := range values[from : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-from)
	}
	return out
}
