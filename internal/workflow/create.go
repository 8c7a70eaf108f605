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

// CreateForm gathers a new project and its tasks.
type CreateForm struct {
	Name        string
	Description string
	Address     *address.Validator
	Tasks       *editor.Editor
}

// NewCreateForm returns an empty form with no tasks.
func NewCreateForm() *CreateForm {
	return &CreateForm{
		Address: address.New(),
		Tasks:   editor.New(),
	}
}

// Request builds the create payload, or a *ValidationError when the postal
// code has not been validated.
func (f *CreateForm) Request() (client.CreateProjectRequest, error) {
	if err := checkAddress(f.Address); err != nil {
		return client.CreateProjectRequest{}, err
	}
	return client.CreateProjectRequest{
		Name:        f.Name,
		Description: f.Description,
		CEP:         f.Address.Normalized(),
		Tasks:       f.Tasks.Tasks(),
	}, nil
}

// Submit sends the form. The form is left untouched so a failed submit can
// be retried.
func (f *CreateForm) Submit(ctx context.Context, api API) (*domain.Project, error) {
	req, err := f.Request()
	if err != nil {
		return nil, err
	}
	p, err := api.CreateProject(ctx, req)
	if err != nil {
		logging.Get().Warn("create project failed", "err", err)
		return nil, fmt.Errorf("create project: %w", err)
	}
	logging.Get().Info("project created", "id", p.ID, "tasks", len(req.Tasks))
	return p, nil
}

func checkAddress(v *address.Validator) error {
	switch {
	case v.Loading():
		return &ValidationError{Field: "cep", Message: "wait for the CEP lookup to finish"}
	case !v.Valid():
		return &ValidationError{Field: "cep", Message: "validate the CEP before saving"}
	}
	return nil
}
