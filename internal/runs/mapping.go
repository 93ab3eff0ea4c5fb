package runs

import (
	"encoding/json"
	"net/url"

	"github.com/JaimeStill/moodmap/pkg/query"
	"github.com/JaimeStill/moodmap/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "runs", "r").
	Project("id", "ID").
	Project("status", "Status").
	Project("trigger", "Trigger").
	Project("collection", "Collection").
	Project("summary", "Summary").
	Project("report", "Report").
	Project("error", "Error").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt")

var defaultSort = query.SortField{Field: "StartedAt", Descending: true}

// Filters contains optional filtering criteria for run queries.
type Filters struct {
	Status     *string `json:"status,omitempty"`
	Trigger    *string `json:"trigger,omitempty"`
	Collection *string `json:"collection,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("Trigger", f.Trigger).
		WhereEquals("Collection", f.Collection)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if t := values.Get("trigger"); t != "" {
		f.Trigger = &t
	}
	if c := values.Get("collection"); c != "" {
		f.Collection = &c
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var (
		r       Run
		summary []byte
		report  []byte
	)
	err := s.Scan(
		&r.ID,
		&r.Status,
		&r.Trigger,
		&r.Collection,
		&summary,
		&report,
		&r.Error,
		&r.StartedAt,
		&r.CompletedAt,
	)
	if err != nil {
		return r, err
	}

	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &r.Summary); err != nil {
			return r, err
		}
	}
	if len(report) > 0 {
		if err := json.Unmarshal(report, &r.Report); err != nil {
			return r, err
		}
	}
	return r, nil
}

func jsonParam(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	return string(data), nil
}
