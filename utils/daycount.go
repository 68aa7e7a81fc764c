package utils

import (
	"fmt"
	"strings"
	"time"
)

// DayCounter converts a date span into a year fraction.
type DayCounter interface {
	YearFraction(start, end time.Time) float64
}

// DayCount names a day count convention and implements DayCounter.
type DayCount string

const (
	ActAct  DayCount = "ACT/ACT"
	Act360  DayCount = "ACT/360"
	Act365F DayCount = "ACT/365F"
	Dc30360 DayCount = "30/360"
)

// ParseDayCount maps a convention name (case-insensitive, common aliases
// accepted) to a DayCount.
func ParseDayCount(s string) (DayCount, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACT/ACT", "ACTUAL/ACTUAL", "ACT/ACT ISDA":
		return ActAct, nil
	case "ACT/360", "ACTUAL/360":
		return Act360, nil
	case "ACT/365F", "ACT/365", "ACTUAL/365":
		return Act365F, nil
	case "30/360", "30E/360":
		return Dc30360, nil
	default:
		return "", fmt.Errorf("unknown day count %q", s)
	}
}

// YearFraction implements DayCounter. A reversed span yields a negative fraction.
func (dc DayCount) YearFraction(start, end time.Time) float64 {
	return YearFraction(start, end, string(dc))
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/ACT (ISDA), ACT/360, ACT/365F, 30E/360, 30/360
func YearFraction(start, end time.Time, convention string) float64 {
	if end.Before(start) {
		return -YearFraction(end, start, convention)
	}
	switch convention {
	case "ACT/ACT":
		return actActISDA(start, end)
	case "ACT/360":
		return Days(start, end) / 360.0
	case "ACT/365F":
		return Days(start, end) / 365.0
	case "30E/360", "30/360":
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}

// actActISDA splits the span at calendar-year boundaries and divides each
// piece by the length of its own year. Whole calendar years contribute exactly 1.
func actActISDA(start, end time.Time) float64 {
	start, end = DateOnly(start), DateOnly(end)
	if start.Year() == end.Year() {
		return Days(start, end) / daysInYear(start.Year())
	}
	yearEnd := time.Date(start.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
	frac := Days(start, yearEnd) / daysInYear(start.Year())
	frac += float64(end.Year() - start.Year() - 1)
	yearStart := time.Date(end.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	frac += Days(yearStart, end) / daysInYear(end.Year())
	return frac
}

func daysInYear(year int) float64 {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}
