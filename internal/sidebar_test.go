package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sidebarGurus = []GuruType{
	{Slug: "golang", Name: "Go"},
	{Slug: "kubernetes", Name: "Kubernetes"},
	{Slug: "gorm", Name: "GORM"},
	{Slug: "redis", Name: "Redis"},
}

func TestFindActiveGuru(t *testing.T) {
	tests := []struct {
		name  string
		gurus []GuruType
		slug  string
		want  string
	}{
		{"exact", sidebarGurus, "redis", "Redis"},
		{"case insensitive", sidebarGurus, "GoLang", "Go"},
		{"missing", sidebarGurus, "rust", ""},
		{"empty slug", sidebarGurus, "", ""},
		{"no gurus", nil, "golang", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindActiveGuru(tt.gurus, tt.slug)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestFilterGurus(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"Go", "Kubernetes", "GORM", "Redis"}},
		{"g", []string{"Go", "Kubernetes", "GORM", "Redis"}},
		{"go", []string{"Go", "GORM"}},
		{"RE", []string{"Redis"}},
		{"zz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			names := []string{}
			for _, g := range FilterGurus(sidebarGurus, tt.filter) {
				names = append(names, g.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSidebarEligible(t *testing.T) {
	tests := []struct {
		width    int
		isMobile bool
		want     bool
	}{
		{0, true, true},
		{0, false, false},
		{500, true, true},
		{767, false, false},
		{768, false, true},
		{768, true, false},
		{1440, false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SidebarEligible(tt.width, tt.isMobile), "width=%d mobile=%v", tt.width, tt.isMobile)
	}
}

func TestCreateGuruURL(t *testing.T) {
	assert.Equal(t, "/guru/new-12hsh25ksh2", CreateGuruURL(true))
	assert.Equal(t, "/guru/create?source=/g/", CreateGuruURL(false))
}

func TestSidebar_Entries(t *testing.T) {
	s := &Sidebar{Gurus: sidebarGurus, ActiveSlug: "GOLANG", Filter: "go"}
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "GORM", entries[0].Name)
	assert.Equal(t, "Go", s.Active().Name)
}

func TestSidebar_Render(t *testing.T) {
	s := &Sidebar{Gurus: sidebarGurus, ActiveSlug: "redis", Width: 1024, MaxRows: 2}

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "Create a Guru")
	assert.Contains(t, out, "/g/redis")
	assert.Contains(t, out, "/g/golang")
	assert.Contains(t, out, "1 more")
	assert.Equal(t, 1, strings.Count(out, "Redis"), "the active guru is not listed twice")

	mobile := &Sidebar{Gurus: sidebarGurus, Width: 1024, IsMobile: true, SelfHosted: true}
	buf.Reset()
	require.NoError(t, mobile.Render(&buf))
	assert.NotContains(t, buf.String(), "/g/golang")
	assert.Contains(t, buf.String(), "/guru/new-12hsh25ksh2")
}
