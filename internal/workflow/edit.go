package workflow

import (
	"context"
	"fmt"

	"github.com/naveenspark/projectdesk/internal/address"
	"github.com/naveenspark/projectdesk/internal/editor"
	"github.com/naveenspark/projectdesk/internal/logging"
	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

// EditForm edits an existing project. Task removals go through the
// editor's confirmation and are sent as tasks_to_remove.
type EditForm struct {
	ID          int64
	Name        string
	Description string
	Status      string
	Address     *address.Validator
	Tasks       *editor.Editor

	original domain.Project
}

// LoadEditForm fetches project id and returns a prefilled form.
func LoadEditForm(ctx context.Context, api API, id int64) (*EditForm, error) {
	p, err := api.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load project %d: %w", id, err)
	}
	return NewEditForm(*p), nil
}

// NewEditForm prefills a form from p. A stored address counts as validated
// until the postal code is changed.
func NewEditForm(p domain.Project) *EditForm {
	v := address.New()
	v.Preload(p.Address)
	status := p.Status
	if status == "" {
		status = domain.ProjectPlanned
	}
	return &EditForm{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      status,
		Address:     v,
		Tasks:       editor.FromTasks(p.Tasks),
		original:    p,
	}
}

// Original returns the project as loaded.
func (f *EditForm) Original() domain.Project {
	return f.original
}

// Request builds the update payload, or a *ValidationError when the postal
// code is not valid.
func (f *EditForm) Request() (client.UpdateProjectRequest, error) {
	if err := checkAddress(f.Address); err != nil {
		return client.UpdateProjectRequest{}, err
	}
	return client.UpdateProjectRequest{
		Name:          f.Name,
		Description:   f.Description,
		Status:        f.Status,
		CEP:           f.Address.Normalized(),
		Tasks:         f.Tasks.Tasks(),
		TasksToRemove: f.Tasks.Removed(),
	}, nil
}

// Submit sends the update.
func (f *EditForm) Submit(ctx context.Context, api API) (*domain.Project, error) {
	req, err := f.Request()
	if err != nil {
		return nil, err
	}
	p, err := api.UpdateProject(ctx, f.ID, req)
	if err != nil {
		logging.Get().Warn("update project failed", "id", f.ID, "err", err)
		return nil, fmt.Errorf("update project %d: %w", f.ID, err)
	}
	logging.Get().Info("project updated", "id", f.ID, "tasks", len(req.Tasks), "removed", len(req.TasksToRemove))
	return p, nil
}
