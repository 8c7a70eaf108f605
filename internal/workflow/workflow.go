// Package workflow implements the project screens' behavior independently
// of how they are drawn: the create and edit forms, the paged list with its
// delete confirmation, and the status report.
package workflow

import (
	"context"
	"fmt"

	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

// API is the subset of *client.Client the workflows call.
type API interface {
	GetMe(ctx context.Context) (*domain.User, error)
	LookupCEP(ctx context.Context, cep string) (*domain.Address, error)
	ListProjects(ctx context.Context, page, perPage int) (*domain.Page, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	CreateProject(ctx context.Context, req client.CreateProjectRequest) (*domain.Project, error)
	UpdateProject(ctx context.Context, id int64, req client.UpdateProjectRequest) (*domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	ProjectReport(ctx context.Context, from, to string) (*domain.Report, error)
}

var _ API = (*client.Client)(nil)

// ValidationError blocks a submit before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
