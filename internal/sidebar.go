package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SidebarBreakpoint is the width, in pixels or columns, separating the mobile
// and desktop sidebars.
const SidebarBreakpoint = 768

const (
	createGuruURLSelfHosted = "/guru/new-12hsh25ksh2"
	createGuruURLHosted     = "/guru/create?source=/g/"
)

// FindActiveGuru returns the guru whose slug matches slug case-insensitively.
func FindActiveGuru(gurus []GuruType, slug string) *GuruType {
	if len(gurus) == 0 || slug == "" {
		return nil
	}
	for i := range gurus {
		if gurus[i].SlugEquals(slug) {
			return &gurus[i]
		}
	}
	return nil
}

// FilterGurus narrows gurus to those whose name contains filter, ignoring case.
// Filters of one character or less leave the list as is.
func FilterGurus(gurus []GuruType, filter string) []GuruType {
	if len([]rune(filter)) <= 1 {
		return gurus
	}
	needle := strings.ToLower(filter)
	out := make([]GuruType, 0, len(gurus))
	for _, g := range gurus {
		if strings.Contains(strings.ToLower(g.Name), needle) {
			out = append(out, g)
		}
	}
	return out
}

// SidebarEligible reports whether the mobile (isMobile) or desktop instance
// should render at width. A width of zero or less is unknown and counts as mobile.
func SidebarEligible(width int, isMobile bool) bool {
	if width <= 0 || width < SidebarBreakpoint {
		return isMobile
	}
	return !isMobile
}

// CreateGuruURL is where the "Create a Guru" link points.
func CreateGuruURL(selfHosted bool) string {
	if selfHosted {
		return createGuruURLSelfHosted
	}
	return createGuruURLHosted
}

var (
	sidebarHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	sidebarActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("62")).
				Bold(true)

	sidebarCreateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255")).
				Background(lipgloss.Color("57")).
				Padding(0, 1).
				Bold(true)

	sidebarBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Sidebar is the guru navigation panel.
type Sidebar struct {
	Gurus      []GuruType
	ActiveSlug string
	Filter     string
	Width      int
	IsMobile   bool
	SelfHosted bool
	// MaxRows caps the guru list; zero shows everything.
	MaxRows int
}

// Active returns the guru selected by the current route.
func (s *Sidebar) Active() *GuruType {
	return FindActiveGuru(s.Gurus, s.ActiveSlug)
}

// Entries is the filtered navigation list without the active guru.
func (s *Sidebar) Entries() []GuruType {
	filtered := FilterGurus(s.Gurus, s.Filter)
	out := make([]GuruType, 0, len(filtered))
	for _, g := range filtered {
		if s.ActiveSlug != "" && g.SlugEquals(s.ActiveSlug) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Render writes the sidebar to w. An instance that is not eligible at its
// width renders a placeholder instead of the list.
func (s *Sidebar) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString(sidebarCreateStyle.Render("✨ Create a Guru"))
	b.WriteString(" " + sidebarHeaderStyle.Render(CreateGuruURL(s.SelfHosted)))
	b.WriteString("\n")
	if s.Filter != "" {
		b.WriteString(sidebarHeaderStyle.Render("Search: " + s.Filter))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !SidebarEligible(s.Width, s.IsMobile) {
		b.WriteString(sidebarHeaderStyle.Render("…"))
		_, err := fmt.Fprintln(w, sidebarBoxStyle.Render(b.String()))
		return err
	}

	b.WriteString(sidebarHeaderStyle.Render("Active"))
	b.WriteString("\n")
	if active := s.Active(); active != nil {
		b.WriteString(sidebarActiveStyle.Render(sidebarLine(*active)))
	} else {
		b.WriteString(sidebarHeaderStyle.Render("-"))
	}
	b.WriteString("\n\n")

	b.WriteString(sidebarHeaderStyle.Render("Gurus"))
	b.WriteString("\n")
	entries := s.Entries()
	shown := entries
	if s.MaxRows > 0 && len(shown) > s.MaxRows {
		shown = shown[:s.MaxRows]
	}
	for _, g := range shown {
		b.WriteString(sidebarLine(g))
		b.WriteString("\n")
	}
	if hidden := len(entries) - len(shown); hidden > 0 {
		b.WriteString(sidebarHeaderStyle.Render(fmt.Sprintf("… %d more", hidden)))
		b.WriteString("\n")
	}

	_, err := fmt.Fprintln(w, sidebarBoxStyle.Render(strings.TrimRight(b.String(), "\n")))
	return err
}

func sidebarLine(g GuruType) string {
	return fmt.Sprintf("%s  /g/%s", g.Name, g.Slug)
}
