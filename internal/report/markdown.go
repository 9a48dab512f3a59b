package report

import (
	"github.com/pmgledhill102/perfreport/internal/table"
)

// SummaryTemplate is the template WriteSummaryMarkdown renders.
const SummaryTemplate = "summary.md"

// Summary is the data the summary template is rendered with.
type Summary struct {
	ColumnNames []string
	Parameters  map[string]any
	Rows        []map[string]string
}

// NewSummary restricts the rows of t to columns, which must all exist, and
// pairs them with the run parameters.
func NewSummary(t *table.Table, columns []string, params map[string]any) (*Summary, error) {
	sel, err := t.Select(columns...)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		ColumnNames: columns,
		Parameters:  params,
		Rows:        make([]map[string]string, 0, sel.Len()),
	}
	for r := 0; r < sel.Len(); r++ {
		row := sel.Row(r)
		m := make(map[string]string, len(columns))
		for j, name := range columns {
			m[name] = row[j].String()
		}
		s.Rows = append(s.Rows, m)
	}
	return s, nil
}

// context exposes the summary under the keys templates refer to.
func (s *Summary) context() map[string]any {
	params := s.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return map[string]any{
		"column_names": s.ColumnNames,
		"parameters":   params,
		"rows":         s.Rows,
	}
}

// WriteSummaryMarkdown renders the summary template to path.
func WriteSummaryMarkdown(s *Summary, templates Templates, path string) error {
	return templates.Render(SummaryTemplate, s.context(), path)
}
