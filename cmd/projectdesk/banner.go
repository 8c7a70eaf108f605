package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa")).Bold(true)
	bannerDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	bannerAccent = lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24"))
)

// printBanner prints the spaced wordmark and the running version.
func printBanner(w io.Writer, v string) {
	fmt.Fprintf(w, "\n  %s  %s\n  %s\n\n",
		bannerTitle.Render("P R O J E C T D E S K"),
		bannerAccent.Render(v),
		bannerDim.Render("projects, addresses and tasks from the terminal"),
	)
}

// printDemoBanner prints where the demo API listens and how to log in.
func printDemoBanner(w io.Writer, apiURL string, users []demoUser) {
	fmt.Fprintf(w, "\n  %s  %s\n\n", bannerTitle.Render("P R O J E C T D E S K"), bannerAccent.Render("demo api"))
	fmt.Fprintf(w, "  %s %s\n\n", bannerDim.Render("listening on"), apiURL)
	for _, u := range users {
		fmt.Fprintf(w, "  %s  %s\n", bannerDim.Render(fmt.Sprintf("%-24s", u.email)), u.password)
	}
	fmt.Fprintf(w, "\n  %s\n\n", bannerDim.Render("projectdesk --api-url "+apiURL+" login --email <email> --password <password>"))
}
