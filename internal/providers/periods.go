package providers

import "time"

// Period is an inclusive date range used for month-bucketed searches.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) String() string {
	return p.Start.Format(dateLayout) + "," + p.End.Format(dateLayout)
}

// MonthRanges splits [start, end] into per-month periods clamped to the
// window. A window inside a single month yields one period; end before
// start yields none.
func MonthRanges(start, end time.Time) []Period {
	if end.Before(start) {
		return nil
	}

	var periods []Period
	cursor := start
	for !cursor.After(end) {
		monthEnd := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, cursor.Location()).
			AddDate(0, 1, -1)
		periodEnd := monthEnd
		if periodEnd.After(end) {
			periodEnd = end
		}
		periods = append(periods, Period{Start: cursor, End: periodEnd})
		cursor = monthEnd.AddDate(0, 0, 1)
	}
	return periods
}

// Months lists the distinct months covered by [start, end] as "2006-01"
// strings, in order.
func Months(start, end time.Time) []string {
	var months []string
	for _, p := range MonthRanges(start, end) {
		months = append(months, p.Start.Format("2006-01"))
	}
	return months
}
