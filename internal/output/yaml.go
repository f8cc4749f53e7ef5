package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"donelog/internal/task"
	"donelog/internal/views"
)

// YAMLFormatter formats output as YAML documents.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAMLFormatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func marshalYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %q\n", err.Error())
	}
	return string(data)
}

func (f *YAMLFormatter) FormatTask(t task.Task) string {
	return marshalYAML(t)
}

func (f *YAMLFormatter) FormatItems(items []views.Item) string {
	return marshalYAML(toItemDocs(items))
}

func (f *YAMLFormatter) FormatMetrics(m views.Metrics) string {
	return marshalYAML(m)
}

func (f *YAMLFormatter) FormatTrend(points []views.TrendPoint) string {
	return marshalYAML(points)
}

func (f *YAMLFormatter) FormatTimeline(groups []views.DayGroup) string {
	return marshalYAML(groups)
}

func (f *YAMLFormatter) FormatError(err error) string {
	return marshalYAML(errorDoc{Error: err.Error()})
}

func (f *YAMLFormatter) FormatMessage(msg string) string {
	return marshalYAML(messageDoc{Message: msg})
}
