package domain

import (
	"fmt"
	"time"
)

// Seoul is the calendar zone for every day-boundary computation. Booking
// days are Seoul calendar days regardless of where the request came from.
var Seoul = loadSeoul()

func loadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		// KST has no DST, so a fixed offset is an exact substitute when
		// tzdata is unavailable.
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Day identifies one Seoul calendar day as the epoch-second value of its
// local midnight. It is a date, not an instant; sub-day precision is never
// meaningful.
type Day int64

// DayOf truncates an instant to the Seoul calendar day containing it.
func DayOf(t time.Time) Day {
	local := t.In(Seoul)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Seoul)
	return Day(midnight.Unix())
}

// Time returns the day's local midnight in the Seoul zone.
func (d Day) Time() time.Time {
	return time.Unix(int64(d), 0).In(Seoul)
}

func (d Day) Unix() int64 {
	return int64(d)
}

func (d Day) YearMonth() YearMonth {
	t := d.Time()
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// YearMonth is one Seoul calendar month, the partition unit of the booking
// store.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MonthBounds returns the half-open day interval [monthStart, nextMonthStart)
// covering the given Seoul calendar month.
func MonthBounds(year int, month time.Month) (Day, Day) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, Seoul)
	next := time.Date(year, month+1, 1, 0, 0, 0, 0, Seoul)
	return Day(start.Unix()), Day(next.Unix())
}

// SplitRange decomposes the half-open instant interval [from, to) into the
// ordered sequence of Seoul calendar days it covers. The day count is the
// number of whole days between the two local dates, so a "to" at local
// midnight of the day after the last intended day yields an exact count of
// nights. A zero or negative count yields nil.
func SplitRange(from, to time.Time) []Day {
	fromLocal := from.In(Seoul)
	toLocal := to.In(Seoul)

	count := daysBetween(fromLocal, toLocal)
	if count <= 0 {
		return nil
	}

	out := make([]Day, 0, count)
	for i := 0; i < count; i++ {
		d := time.Date(fromLocal.Year(), fromLocal.Month(), fromLocal.Day()+i, 0, 0, 0, 0, Seoul)
		out = append(out, Day(d.Unix()))
	}
	return out
}

// daysBetween counts whole calendar days from a's date to b's date. Dates
// are re-anchored in UTC so the subtraction is immune to zone offsets.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}
