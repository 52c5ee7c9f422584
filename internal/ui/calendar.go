package ui

import (
	"fmt"
	"strings"
	"time"
)

const calendarCellWidth = 14

// DayCell is one rendered calendar day: a few preview lines plus a count
// of entries that did not fit.
type DayCell struct {
	Lines []string
	More  int
}

// MonthGrid renders a Sunday-first month calendar. cells maps day-of-month
// to its preview; days absent from the map render empty. The today marker
// is applied when the month matches.
func MonthGrid(year int, month time.Month, cells map[int]DayCell, today time.Time) string {
	var sb strings.Builder

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	startOffset := int(first.Weekday())

	title := StyleTitle.Render(first.Format("January 2006"))
	sb.WriteString(" " + title + "\n\n")

	for i, name := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(StyleSubtle.Render(padRight(name, calendarCellWidth)))
	}
	sb.WriteString("\n")
	sb.WriteString(StyleSubtle.Render(strings.Repeat("─", 7*calendarCellWidth+6)) + "\n")

	// Lay the month out as week rows of seven cells.
	var weeks [][]int
	week := make([]int, 0, 7)
	for i := 0; i < startOffset; i++ {
		week = append(week, 0)
	}
	for day := 1; day <= daysInMonth; day++ {
		week = append(week, day)
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]int, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, 0)
		}
		weeks = append(weeks, week)
	}

	isToday := func(day int) bool {
		return day == today.Day() && month == today.Month() && year == today.Year()
	}

	for _, week := range weeks {
		// Row height: the day-number line plus the tallest cell body.
		height := 1
		for _, day := range week {
			if cell, ok := cells[day]; ok {
				lines := len(cell.Lines)
				if cell.More > 0 {
					lines++
				}
				if lines+1 > height {
					height = lines + 1
				}
			}
		}

		for line := 0; line < height; line++ {
			for i, day := range week {
				if i > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(renderCellLine(day, cells[day], line, isToday(day)))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(StyleSubtle.Render(strings.Repeat("─", 7*calendarCellWidth+6)) + "\n")
	}

	return sb.String()
}

func renderCellLine(day int, cell DayCell, line int, today bool) string {
	if day == 0 {
		return strings.Repeat(" ", calendarCellWidth)
	}
	if line == 0 {
		label := fmt.Sprintf("%2d", day)
		if today {
			return StylePrimary.Bold(true).Render(padRight(label+"*", calendarCellWidth))
		}
		return StyleText.Render(padRight(label, calendarCellWidth))
	}
	body := line - 1
	if body < len(cell.Lines) {
		return StyleSubtle.Render(padRight(Truncate(cell.Lines[body], calendarCellWidth-1), calendarCellWidth))
	}
	if body == len(cell.Lines) && cell.More > 0 {
		return StyleSubtle.Render(padRight(fmt.Sprintf("+%d more", cell.More), calendarCellWidth))
	}
	return strings.Repeat(" ", calendarCellWidth)
}
