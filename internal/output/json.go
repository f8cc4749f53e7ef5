package output

import (
	"encoding/json"

	"donelog/internal/task"
	"donelog/internal/views"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

func (f *JSONFormatter) FormatTask(t task.Task) string {
	return marshalJSON(t)
}

func (f *JSONFormatter) FormatItems(items []views.Item) string {
	return marshalJSON(toItemDocs(items))
}

func (f *JSONFormatter) FormatMetrics(m views.Metrics) string {
	return marshalJSON(m)
}

func (f *JSONFormatter) FormatTrend(points []views.TrendPoint) string {
	return marshalJSON(points)
}

func (f *JSONFormatter) FormatTimeline(groups []views.DayGroup) string {
	return marshalJSON(groups)
}

func (f *JSONFormatter) FormatError(err error) string {
	return marshalJSON(errorDoc{Error: err.Error()})
}

func (f *JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(messageDoc{Message: msg})
}
