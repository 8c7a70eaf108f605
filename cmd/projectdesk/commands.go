package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/naveenspark/projectdesk/internal/config"
	"github.com/naveenspark/projectdesk/internal/workflow"
	"github.com/naveenspark/projectdesk/pkg/client"
	"github.com/naveenspark/projectdesk/pkg/domain"
)

// withEnv runs fn with a wired env and closes it afterwards.
func (c *cli) withEnv(fn func(e *env) error) error {
	e, err := c.setup()
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck
	return fn(e)
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with --email and --password (or PROJECTDESK_PASSWORD).
Without credentials the interactive login screen opens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = c.v.GetString("password")
			}
			if email == "" || password == "" {
				return c.runTUI()
			}
			return c.withEnv(func(e *env) error {
				tok, err := e.client.Login(cmd.Context(), email, password)
				if err != nil {
					if client.IsUnauthorized(err) {
						return errors.New("invalid email or password")
					}
					return err
				}
				if err := e.sess.Save(tok); err != nil {
					return err
				}
				me, err := e.client.GetMe(cmd.Context())
				if err != nil {
					return err
				}
				e.log.Info("logged in", "user", me.ID)
				fmt.Fprintf(c.out, "Logged in as %s <%s>.\n", me.Name, me.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(func(e *env) error {
				if !e.sess.LoggedIn() {
					fmt.Fprintln(c.out, "Already logged out.")
					return nil
				}
				if err := e.sess.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "Logged out.")
				return nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(func(e *env) error {
				me, err := e.client.GetMe(cmd.Context())
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(me)
				}
				fmt.Fprintf(c.out, "%s <%s> (id %d)\n", me.Name, me.Email, me.ID)
				return nil
			})
		},
	}
}

func (c *cli) projectsCmd() *cobra.Command {
	prj := &cobra.Command{Use: "projects", Short: "List, show and delete projects"}
	prj.AddCommand(c.projectsListCmd())
	prj.AddCommand(c.projectsShowCmd())
	prj.AddCommand(c.projectsDeleteCmd())
	return prj
}

func (c *cli) projectsListCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(func(e *env) error {
				me, err := e.client.GetMe(cmd.Context())
				if err != nil {
					return err
				}
				p, err := e.client.ListProjects(cmd.Context(), page, e.cfg.PerPage)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(p)
				}
				tw := c.table()
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Start", "City", "Tasks", "Owner"})
				for _, pr := range p.Data {
					city := ""
					if pr.Address != nil {
						city = pr.Address.Summary()
					}
					owner := ""
					if pr.OwnedBy(me.ID) {
						owner = "you"
					}
					tw.AppendRow(table.Row{pr.ID, pr.Name, pr.Status, pr.DisplayStartDate(), city, len(pr.Tasks), owner})
				}
				tw.AppendFooter(table.Row{"", fmt.Sprintf("page %d/%d", page, max(p.LastPage, 1)), "", "", "", "", fmt.Sprintf("%d total", p.Total)})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func (c *cli) projectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project with its address and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withEnv(func(e *env) error {
				p, err := e.client.GetProject(cmd.Context(), id)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(p)
				}
				fmt.Fprintf(c.out, "%s [%s]\n", p.Name, p.Status)
				if p.Description != "" {
					fmt.Fprintln(c.out, p.Description)
				}
				fmt.Fprintf(c.out, "Start: %s\n\n", p.DisplayStartDate())

				d := workflow.AddressDetail{ProjectID: p.ID, Name: p.Name, Address: p.Address, Zoom: e.cfg.MapZoom}
				c.printAddress(cmd.Context(), e, d)

				tw := c.table()
				tw.AppendHeader(table.Row{"#", "Task", "Description", "Status"})
				for i, t := range p.Tasks {
					tw.AppendRow(table.Row{i + 1, t.Title, t.Description, t.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func (c *cli) projectsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withEnv(func(e *env) error {
				p, err := e.client.GetProject(cmd.Context(), id)
				if err != nil {
					return err
				}
				me, err := e.client.GetMe(cmd.Context())
				if err != nil {
					return err
				}
				if !p.OwnedBy(me.ID) {
					return fmt.Errorf("project %d belongs to another user", id)
				}
				if !yes && !c.confirm(fmt.Sprintf("Delete %q? This cannot be undone. [y/N] ", p.Name)) {
					fmt.Fprintln(c.out, "Cancelled.")
					return nil
				}
				if err := e.client.DeleteProject(cmd.Context(), id); err != nil {
					return err
				}
				e.log.Info("project deleted", "id", id)
				fmt.Fprintf(c.out, "Deleted project %d.\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func (c *cli) cepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cep <code>",
		Short: "Look up a postal code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := domain.NormalizeCEP(args[0])
			if code == "" {
				return errors.New("enter a CEP")
			}
			return c.withEnv(func(e *env) error {
				addr, err := e.client.LookupCEP(cmd.Context(), code)
				if err != nil {
					if client.IsNotFound(err) {
						return fmt.Errorf("invalid or unknown CEP %s", args[0])
					}
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(addr)
				}
				c.printAddress(cmd.Context(), e, workflow.AddressDetail{Address: addr, Zoom: e.cfg.MapZoom})
				return nil
			})
		},
	}
}

func (c *cli) reportCmd() *cobra.Command {
	var q workflow.ReportQuery
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show project and task counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(func(e *env) error {
				r, err := q.Run(cmd.Context(), e.client)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(map[string][]domain.StatusCount{
						"projects": r.Projects,
						"tasks":    r.Tasks,
					})
				}
				c.printDistribution("Projects", r.Projects)
				fmt.Fprintln(c.out)
				c.printDistribution("Tasks", r.Tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.From, "from", "", "start date lower bound (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.To, "to", "", "start date upper bound (YYYY-MM-DD)")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			values := map[string]string{}
			for _, key := range config.Keys {
				val, err := cfg.Get(key)
				if err != nil {
					return err
				}
				if key == "geocode_key" && val != "" {
					val = "********"
				}
				values[key] = val
			}
			if c.v.GetBool("json") {
				return c.printJSON(values)
			}
			tw := c.table()
			tw.AppendHeader(table.Row{"Key", "Value"})
			for _, key := range config.Keys {
				tw.AppendRow(table.Row{key, values[key]})
			}
			tw.AppendFooter(table.Row{"file", config.Path(cfg.Dir)})
			tw.Render()
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			printBanner(c.out, version)
		},
	}
}

// printAddress prints the address fields and, when a geocoder is
// configured, the map link. Geocoding failures only change the center.
func (c *cli) printAddress(ctx context.Context, e *env, d workflow.AddressDetail) {
	tw := c.table()
	for _, f := range d.Fields() {
		tw.AppendRow(table.Row{f.Label, f.Value})
	}
	tw.Render()

	if d.Address != nil && e.geo != nil {
		pt, err := e.geo.Lookup(ctx, d.Address.GeocodeQuery())
		if err != nil {
			e.log.Warn("geocode failed", "err", err)
		} else {
			d.Point, d.Located = pt, true
		}
	}
	note := ""
	if !d.Located {
		note = " (default center)"
	}
	fmt.Fprintf(c.out, "Map: %s%s\n\n", d.MapURL(), note)
}

func (c *cli) printDistribution(title string, dist []domain.StatusCount) {
	total := domain.Total(dist)
	tw := c.table()
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Status", "Count", "Share"})
	for _, d := range dist {
		tw.AppendRow(table.Row{d.Status, d.Count, percent(d.Count, total)})
	}
	tw.AppendFooter(table.Row{"total", total, ""})
	tw.Render()
}

func (c *cli) table() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(c.out)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// confirm asks a yes/no question on the input stream. Anything but y/yes
// is a no.
func (c *cli) confirm(prompt string) bool {
	fmt.Fprint(c.out, prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}
