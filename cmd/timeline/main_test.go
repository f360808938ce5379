package main

import (
	"reflect"
	"testing"
)

func TestRewriteLinkArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"timeline"},
			want: []string{"timeline"},
		},
		{
			name: "link first token",
			in:   []string{"timeline", "https://example.com/timeline/abc123"},
			want: []string{"timeline", "edit", "abc123"},
		},
		{
			name: "link with trailing slash",
			in:   []string{"timeline", "http://localhost:3000/timeline/abc123/"},
			want: []string{"timeline", "edit", "abc123"},
		},
		{
			name: "link after value flag",
			in:   []string{"timeline", "--api", "http://localhost:8000", "https://example.com/timeline/abc123"},
			want: []string{"timeline", "--api", "http://localhost:8000", "edit", "abc123"},
		},
		{
			name: "link after equals flag",
			in:   []string{"timeline", "--drafts=./tmp", "https://example.com/timeline/abc123"},
			want: []string{"timeline", "--drafts=./tmp", "edit", "abc123"},
		},
		{
			name: "link after bool flag",
			in:   []string{"timeline", "--pretty", "https://example.com/timeline/abc123"},
			want: []string{"timeline", "--pretty", "edit", "abc123"},
		},
		{
			name: "link after double dash",
			in:   []string{"timeline", "--", "https://example.com/timeline/abc123"},
			want: []string{"timeline", "--", "edit", "abc123"},
		},
		{
			name: "escaped slug",
			in:   []string{"timeline", "https://example.com/timeline/a%20b"},
			want: []string{"timeline", "edit", "a b"},
		},
		{
			name: "other path not rewritten",
			in:   []string{"timeline", "https://example.com/t/abc123"},
			want: []string{"timeline", "https://example.com/t/abc123"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"timeline", "show", "abc123"},
			want: []string{"timeline", "show", "abc123"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"timeline", "wat"},
			want: []string{"timeline", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteLinkArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteLinkArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
