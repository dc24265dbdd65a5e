// Package export renders task lists as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fastygo/planner/domain"
)

const (
	SheetName   = "Tasks"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout  = "2006-01-02"
)

type column struct {
	header string
	width  float64
	value  func(task domain.Task, loc *time.Location) interface{}
}

var columns = []column{
	{header: "Title", width: 32, value: func(t domain.Task, _ *time.Location) interface{} { return t.Text }},
	{header: "Description", width: 48, value: func(t domain.Task, _ *time.Location) interface{} { return t.Description }},
	{header: "Priority", width: 10, value: func(t domain.Task, _ *time.Location) interface{} { return string(t.Priority) }},
	{header: "Status", width: 14, value: func(t domain.Task, _ *time.Location) interface{} { return string(t.Status) }},
	{header: "Due date", width: 12, value: func(t domain.Task, loc *time.Location) interface{} { return t.Date.In(loc).Format(dateLayout) }},
	{header: "Created", width: 20, value: func(t domain.Task, loc *time.Location) interface{} {
		return t.CreatedAt.In(loc).Format("2006-01-02 15:04")
	}},
}

// WriteTasks writes a workbook with a header row and one row per task.
func WriteTasks(w io.Writer, tasks []domain.Task, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	stream, err := file.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col.header
		if err := stream.SetColWidth(i+1, i+1, col.width); err != nil {
			return err
		}
	}
	if err := stream.SetRow("A1", header); err != nil {
		return err
	}

	for r, task := range tasks {
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			row[i] = col.value(task, loc)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := stream.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := stream.Flush(); err != nil {
		return err
	}
	return file.Write(w)
}

// FileName names an export of the given view and window.
func FileName(view domain.View, window domain.Window) string {
	return fmt.Sprintf("tasks-%s-%s.xlsx", view, window.Start.Format(dateLayout))
}
