package workflow

import (
	"context"
	"fmt"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

// ReportQuery filters the report by project start date (YYYY-MM-DD).
// Empty bounds are omitted.
type ReportQuery struct {
	From string
	To   string
}

// ReportResult is a report with both distributions in fixed status order.
type ReportResult struct {
	Query    ReportQuery
	Projects []domain.StatusCount
	Tasks    []domain.StatusCount
}

// NewReportResult orders r's counts; statuses the backend left out count
// as zero.
func NewReportResult(q ReportQuery, r *domain.Report) ReportResult {
	var projects, tasks map[string]int
	if r != nil {
		projects, tasks = r.ProjectsByStatus, r.TasksByStatus
	}
	return ReportResult{
		Query:    q,
		Projects: domain.Distribution(projects, domain.ProjectStatuses),
		Tasks:    domain.Distribution(tasks, domain.TaskStatuses),
	}
}

// Run fetches the report.
func (q ReportQuery) Run(ctx context.Context, api API) (ReportResult, error) {
	r, err := api.ProjectReport(ctx, q.From, q.To)
	if err != nil {
		return ReportResult{}, fmt.Errorf("load report: %w", err)
	}
	return NewReportResult(q, r), nil
}
