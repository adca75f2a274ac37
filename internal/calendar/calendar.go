// ABOUTME: Monday-based week bucketing for session lists and calendar grids.
// ABOUTME: Groups are sparse: only weeks containing a session produce output.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/cledger/internal/models"
)

// WeekStart returns the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
}

// WeekKey returns the YYYY-MM-DD Monday of the week containing date.
// Unparseable dates are returned unchanged.
func WeekKey(date string) string {
	t, err := models.ParseDate(date)
	if err != nil {
		return date
	}
	return models.FormatDate(WeekStart(t))
}

// WeekLabel renders "Jan 26 – Feb 1" for the week starting monday.
func WeekLabel(monday time.Time) string {
	sunday := monday.AddDate(0, 0, 6)
	return fmt.Sprintf("%s %d – %s %d", monday.Format("Jan"), monday.Day(), sunday.Format("Jan"), sunday.Day())
}

// WeekGroup is one week of sessions for the list view.
type WeekGroup struct {
	WeekStart string            `json:"weekStart"`
	Label     string            `json:"label"`
	Sessions  []*models.Session `json:"sessions"`
}

// GroupByWeek buckets sessions by week key. Groups appear in the order their
// first session was encountered and keep input order within each group.
func GroupByWeek(sessions []*models.Session) []WeekGroup {
	var groups []WeekGroup
	index := make(map[string]int)

	for _, s := range sessions {
		key := WeekKey(s.Date)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, WeekGroup{WeekStart: key, Label: labelForKey(key)})
		}
		groups[i].Sessions = append(groups[i].Sessions, s)
	}
	return groups
}

// DayCell is one day of a calendar row.
type DayCell struct {
	Date     string            `json:"date"`
	Sessions []*models.Session `json:"sessions"`
	IsToday  bool              `json:"isToday"`
}

// CalendarRow is one Monday-to-Sunday week of the calendar view.
type CalendarRow struct {
	WeekStart string     `json:"weekStart"`
	Label     string     `json:"label"`
	Days      [7]DayCell `json:"days"`
}

// CalendarRows builds one row per week that has sessions, newest week first.
// Each row has exactly seven cells, Monday through Sunday; a cell holds every
// session on that date.
func CalendarRows(sessions []*models.Session, today time.Time) []CalendarRow {
	byDate := make(map[string][]*models.Session)
	weeks := make(map[string]bool)
	for _, s := range sessions {
		byDate[s.Date] = append(byDate[s.Date], s)
		weeks[WeekKey(s.Date)] = true
	}

	keys := make([]string, 0, len(weeks))
	for k := range weeks {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	todayKey := models.FormatDate(today)
	rows := make([]CalendarRow, 0, len(keys))
	for _, key := range keys {
		row := CalendarRow{WeekStart: key, Label: labelForKey(key)}
		monday, err := models.ParseDate(key)
		if err != nil {
			continue
		}
		for i := range row.Days {
			date := models.FormatDate(monday.AddDate(0, 0, i))
			row.Days[i] = DayCell{
				Date:     date,
				Sessions: byDate[date],
				IsToday:  date == todayKey,
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func labelForKey(key string) string {
	monday, err := models.ParseDate(key)
	if err != nil {
		return key
	}
	return WeekLabel(monday)
}
