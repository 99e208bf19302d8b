package constants

import "testing"

func TestCollapseLabel(t *testing.T) {
	tests := []struct {
		id   int
		want Label
		ok   bool
	}{
		{0, LabelOther, true},
		{1, LabelHeader, true},
		{2, LabelHeader, true},
		{3, LabelQuestion, true},
		{4, LabelQuestion, true},
		{5, LabelAnswer, true},
		{6, LabelAnswer, true},
		{7, "", false},
		{-1, "", false},
	}

	for _, tt := range tests {
		got, ok := CollapseLabel(tt.id)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CollapseLabel(%d) = %q,%v, want %q,%v", tt.id, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLabelName(t *testing.T) {
	for id := 0; id < NumLabels; id++ {
		if _, ok := LabelName(id); !ok {
			t.Errorf("LabelName(%d) missing", id)
		}
	}
	if _, ok := LabelName(NumLabels); ok {
		t.Errorf("LabelName(%d) should not exist", NumLabels)
	}
}

func TestMapExtToFormat(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"pdf", PDF},
		{"png", IMAGE},
		{"jpg", IMAGE},
		{"jpeg", IMAGE},
		{"tif", IMAGE},
		{"tiff", IMAGE},
		{"bmp", ""},
		{"gif", ""},
		{"docx", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MapExtToFormat(tt.ext); got != tt.want {
			t.Errorf("MapExtToFormat(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestNormalizeExt(t *testing.T) {
	if got := NormalizeExt(".PNG"); got != "png" {
		t.Errorf("NormalizeExt(.PNG) = %q", got)
	}
	if got := NormalizeExt("pdf"); got != "pdf" {
		t.Errorf("NormalizeExt(pdf) = %q", got)
	}
}
