package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/naveenspark/projectdesk/internal/fakeapi"
	"github.com/naveenspark/projectdesk/internal/logging"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

type demoUser struct {
	id       int64
	name     string
	email    string
	password string
}

var demoUsers = []demoUser{
	{1, "Ana Souza", "ana@example.com", "secret"},
	{2, "Bruno Lima", "bruno@example.com", "secret"},
}

var demoCEPs = []domain.Address{
	{CEP: "01001000", Logradouro: "Praça da Sé", Complemento: "lado ímpar", Bairro: "Sé", Localidade: "São Paulo", Estado: "São Paulo", UF: "SP", Regiao: "Sudeste", DDD: "11", Siafi: "7107"},
	{CEP: "20040020", Logradouro: "Avenida Rio Branco", Bairro: "Centro", Localidade: "Rio de Janeiro", Estado: "Rio de Janeiro", UF: "RJ", Regiao: "Sudeste", DDD: "21", Siafi: "6001"},
	{CEP: "70040010", Logradouro: "Eixo Monumental", Bairro: "Asa Norte", Localidade: "Brasília", Estado: "Distrito Federal", UF: "DF", Regiao: "Centro-Oeste", DDD: "61", Siafi: "9701"},
}

// seedDemo fills srv with two users, a few postal codes and enough projects
// to page through.
func seedDemo(srv *fakeapi.Server) {
	for _, u := range demoUsers {
		srv.AddUser(u.id, u.name, u.email, u.password)
	}
	for _, a := range demoCEPs {
		srv.AddCEP(a)
	}
	statuses := domain.ProjectStatuses
	for i := 0; i < 14; i++ {
		addr := demoCEPs[i%len(demoCEPs)]
		owner := demoUsers[i%len(demoUsers)]
		srv.AddProject(domain.Project{
			Name:        fmt.Sprintf("Projeto %02d", i+1),
			Description: "Demo project owned by " + owner.name,
			StartDate:   time.Date(2025, time.Month(i%12+1), 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Status:      statuses[i%len(statuses)],
			Address:     &addr,
			UserID:      owner.id,
			Tasks: []domain.Task{
				{Title: "Levantamento", Description: "Reunir requisitos", Status: domain.TaskDone},
				{Title: "Execução", Status: domain.TaskStatuses[i%len(domain.TaskStatuses)]},
			},
		})
	}
}

// demoHandler serves the in-memory backend under /api, the default API root.
func demoHandler(srv *fakeapi.Server, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)
			log.Info("request", "method", req.Method, "path", req.URL.Path, "status", ww.Status(), "took", time.Since(start))
		})
	})
	r.Mount("/api", srv.Handler())
	return r
}

func (c *cli) serveDemoCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:    "demo-server",
		Short:  "Serve an in-memory API with demo data",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := fakeapi.New()
			seedDemo(srv)
			log := logging.Init(os.Stderr, c.v.GetString("log_level"), false).With("component", "demo-server")

			hs := &http.Server{Addr: addr, Handler: demoHandler(srv, log), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				hs.Shutdown(ctx) //nolint:errcheck
			}()
			printDemoBanner(c.out, "http://"+addr+"/api", demoUsers)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	return cmd
}
