// Package output renders CLI results as human text, JSON or YAML.
package output

import (
	"fmt"
	"time"

	"donelog/internal/task"
	"donelog/internal/views"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	FormatTask(t task.Task) string
	FormatItems(items []views.Item) string
	FormatMetrics(m views.Metrics) string
	FormatTrend(points []views.TrendPoint) string
	FormatTimeline(groups []views.DayGroup) string
	FormatError(err error) string
	FormatMessage(msg string) string
}

// Format names accepted by New.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// New returns the formatter for name. now anchors relative times in human output.
func New(name string, now time.Time) (Formatter, error) {
	switch name {
	case "", FormatHuman:
		return NewHumanFormatter(now), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// itemDoc is the structured form of a list row.
type itemDoc struct {
	task.Task   `yaml:",inline"`
	DaysOverdue int    `json:"days_overdue" yaml:"days_overdue"`
	DueLabel    string `json:"due_label" yaml:"due_label"`
}

func toItemDocs(items []views.Item) []itemDoc {
	docs := make([]itemDoc, len(items))
	for i, it := range items {
		docs[i] = itemDoc{Task: it.Task, DaysOverdue: it.DaysOverdue, DueLabel: it.DueLabel}
	}
	return docs
}

type errorDoc struct {
	Error string `json:"error" yaml:"error"`
}

type messageDoc struct {
	Message string `json:"message" yaml:"message"`
}
