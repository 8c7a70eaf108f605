package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/naveenspark/projectdesk/internal/geocode"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

var (
	ErrDeletePending   = errors.New("a delete is already awaiting confirmation")
	ErrNoDeletePending = errors.New("no delete awaiting confirmation")
	ErrUnknownProject  = errors.New("project not on this page")
)

// ProjectList is the paged project listing with a single-slot delete
// confirmation. Not safe for concurrent use.
type ProjectList struct {
	PerPage int
	MapZoom int

	page          int
	totalPages    int
	projects      []domain.Project
	me            *domain.User
	pendingDelete int64
}

// NewProjectList starts at page 1 of 1.
func NewProjectList(perPage, mapZoom int) *ProjectList {
	if perPage < 1 {
		perPage = 10
	}
	return &ProjectList{PerPage: perPage, MapZoom: mapZoom, page: 1, totalPages: 1}
}

// Page is the current page number, starting at 1.
func (l *ProjectList) Page() int { return l.page }

// TotalPages is the last known page count, at least 1.
func (l *ProjectList) TotalPages() int { return l.totalPages }

// Projects returns the projects on the current page.
func (l *ProjectList) Projects() []domain.Project { return l.projects }

// Me returns the current user, nil until loaded.
func (l *ProjectList) Me() *domain.User { return l.me }

// SetMe records the current user.
func (l *ProjectList) SetMe(u *domain.User) { l.me = u }

// ChangePage moves by delta pages. It returns false, changing nothing, when
// the target is outside 1..TotalPages. The caller fetches the new page.
func (l *ProjectList) ChangePage(delta int) bool {
	target := l.page + delta
	if delta == 0 || target < 1 || target > l.totalPages {
		return false
	}
	l.page = target
	return true
}

// ApplyPage stores a fetched page. Results for a page other than the
// current one are stale and dropped.
func (l *ProjectList) ApplyPage(page int, p *domain.Page) bool {
	if page != l.page || p == nil {
		return false
	}
	l.projects = p.Data
	l.totalPages = p.LastPage
	if l.totalPages < 1 {
		l.totalPages = 1
	}
	return true
}

// Load fetches the current user and the current page.
func (l *ProjectList) Load(ctx context.Context, api API) error {
	me, err := api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("load current user: %w", err)
	}
	l.SetMe(me)
	page := l.page
	p, err := api.ListProjects(ctx, page, l.PerPage)
	if err != nil {
		return fmt.Errorf("load projects page %d: %w", page, err)
	}
	l.ApplyPage(page, p)
	return nil
}

// CanModify reports whether the current user owns p. It only decides which
// controls are offered; the backend enforces ownership.
func (l *ProjectList) CanModify(p domain.Project) bool {
	if l.me == nil {
		return false
	}
	return p.OwnedBy(l.me.ID)
}

// Find returns the project with id on the current page.
func (l *ProjectList) Find(id int64) (domain.Project, bool) {
	for _, p := range l.projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// RequestDelete opens the confirmation for project id.
func (l *ProjectList) RequestDelete(id int64) error {
	if l.pendingDelete != 0 {
		return ErrDeletePending
	}
	if _, ok := l.Find(id); !ok {
		return ErrUnknownProject
	}
	l.pendingDelete = id
	return nil
}

// ConfirmDelete closes the confirmation and returns the id to delete.
func (l *ProjectList) ConfirmDelete() (int64, error) {
	if l.pendingDelete == 0 {
		return 0, ErrNoDeletePending
	}
	id := l.pendingDelete
	l.pendingDelete = 0
	return id, nil
}

// CancelDelete closes the confirmation without deleting.
func (l *ProjectList) CancelDelete() error {
	if l.pendingDelete == 0 {
		return ErrNoDeletePending
	}
	l.pendingDelete = 0
	return nil
}

// PendingDelete returns the project awaiting confirmation.
func (l *ProjectList) PendingDelete() (int64, bool) {
	return l.pendingDelete, l.pendingDelete != 0
}

// Deleted drops id from the current page after the backend confirmed the
// delete. Nothing is re-fetched.
func (l *ProjectList) Deleted(id int64) {
	kept := l.projects[:0]
	for _, p := range l.projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.projects = kept
}

// DeleteConfirmed runs the confirmed delete against the backend and, on
// success, drops the project from the page.
func (l *ProjectList) DeleteConfirmed(ctx context.Context, api API) (int64, error) {
	id, err := l.ConfirmDelete()
	if err != nil {
		return 0, err
	}
	if err := api.DeleteProject(ctx, id); err != nil {
		return id, fmt.Errorf("delete project %d: %w", id, err)
	}
	l.Deleted(id)
	return id, nil
}

// Geocoder resolves a free-text address.
type Geocoder interface {
	Lookup(ctx context.Context, query string) (geocode.Point, error)
}

// AddressDetail is the read-only address view of a project.
type AddressDetail struct {
	ProjectID  int64
	Name       string
	Address    *domain.Address
	Point      geocode.Point
	Located    bool
	GeocodeErr error
	Zoom       int
}

// Field is one labelled line of a detail view.
type Field struct {
	Label string
	Value string
}

// Fields lists the address lines, with "N/A" for blanks.
func (d AddressDetail) Fields() []Field {
	var a domain.Address
	if d.Address != nil {
		a = *d.Address
	}
	return []Field{
		{"CEP", na(a.CEP)},
		{"Street", na(a.Logradouro)},
		{"Complement", na(a.Complemento)},
		{"District", na(a.Bairro)},
		{"City", na(a.Localidade)},
		{"State", na(a.State())},
		{"UF", na(a.UF)},
		{"Region", na(a.Regiao)},
		{"DDD", na(a.DDD)},
	}
}

// Center is the map center: the geocoded point, or the default center.
func (d AddressDetail) Center() geocode.Point {
	if d.Located {
		return d.Point
	}
	return geocode.DefaultCenter
}

// MapURL links to the map page for this address.
func (d AddressDetail) MapURL() string {
	return geocode.MapURL(d.Center(), d.Zoom)
}

// AddressDetail builds the address view for p from already-fetched data.
// Geocoding is best-effort: a failure is recorded, never returned.
func (l *ProjectList) AddressDetail(ctx context.Context, g Geocoder, p domain.Project) AddressDetail {
	d := AddressDetail{ProjectID: p.ID, Name: p.Name, Address: p.Address, Zoom: l.MapZoom}
	if p.Address == nil {
		d.GeocodeErr = errors.New("project has no address")
		return d
	}
	if g == nil {
		d.GeocodeErr = geocode.ErrNoKey
		return d
	}
	pt, err := g.Lookup(ctx, p.Address.GeocodeQuery())
	if err != nil {
		d.GeocodeErr = err
		return d
	}
	d.Point = pt
	d.Located = true
	return d
}

// TasksDetail returns p's tasks for the read-only task view.
func (l *ProjectList) TasksDetail(p domain.Project) []domain.Task {
	out := make([]domain.Task, len(p.Tasks))
	copy(out, p.Tasks)
	return out
}

func na(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
