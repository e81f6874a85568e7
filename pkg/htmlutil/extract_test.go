package htmlutil

import "testing"

func TestMetaURL(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "canonical link",
			html: `<html><head><link rel="canonical" href="https://www.instagram.com/alice/"></head></html>`,
			want: "https://www.instagram.com/alice/",
		},
		{
			name: "canonical preferred over og:url",
			html: `<head><meta property="og:url" content="https://og.example/a"><link rel="canonical" href="https://canon.example/a"></head>`,
			want: "https://canon.example/a",
		},
		{
			name: "og:url fallback",
			html: `<head><meta property="og:url" content="https://www.tiktok.com/@alice"></head>`,
			want: "https://www.tiktok.com/@alice",
		},
		{
			name: "attribute order does not matter",
			html: `<head><link href="https://x.example/b" rel="canonical"></head>`,
			want: "https://x.example/b",
		},
		{
			name: "rel case and token list",
			html: `<head><link rel="alternate CANONICAL" href="https://x.example/c"></head>`,
			want: "https://x.example/c",
		},
		{
			name: "empty href skipped",
			html: `<head><link rel="canonical" href=""><meta property="og:url" content="https://x.example/d"></head>`,
			want: "https://x.example/d",
		},
		{
			name: "nothing declared",
			html: `<html><body><p>hello</p></body></html>`,
			want: "",
		},
		{
			name: "empty document",
			html: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MetaURL(tt.html); got != tt.want {
				t.Errorf("MetaURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>Alice</b> on <i>GitHub</i>", "Alice on GitHub"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"  spaced\n\n out ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripTags(tt.in); got != tt.want {
			t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsMarker(t *testing.T) {
	markers := []string{"Sorry, this page isn't available", "Page Not Found"}

	if m, ok := ContainsMarker("<h2>SORRY, THIS PAGE ISN'T AVAILABLE.</h2>", markers); !ok || m != markers[0] {
		t.Errorf("ContainsMarker() = %q, %v; want first marker", m, ok)
	}
	if _, ok := ContainsMarker("<title>alice (@alice)</title>", markers); ok {
		t.Error("ContainsMarker() matched a real profile page")
	}
	if _, ok := ContainsMarker("", markers); ok {
		t.Error("ContainsMarker() matched empty text")
	}
	if _, ok := ContainsMarker("anything", []string{""}); ok {
		t.Error("ContainsMarker() matched an empty marker")
	}
}
