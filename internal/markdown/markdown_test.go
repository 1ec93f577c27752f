package markdown

import "testing"

func TestToPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "heading and paragraph",
			in:   "# Lake Survey\n\nThe **survey** covered *Lake Erie*.",
			want: "Lake Survey\n\nThe survey covered Lake Erie.",
		},
		{
			name: "soft line breaks join",
			in:   "First line\nsecond line.",
			want: "First line second line.",
		},
		{
			name: "links keep their text",
			in:   "See [the guide](https://example.org) or <https://dfo-mpo.gc.ca>.",
			want: "See the guide or https://dfo-mpo.gc.ca.",
		},
		{
			name: "list items become paragraphs",
			in:   "- salmon\n- trout",
			want: "salmon\n\ntrout",
		},
		{
			name: "code block kept verbatim",
			in:   "Run:\n\n```\nmake build\n```",
			want: "Run:\n\nmake build",
		},
		{
			name: "html dropped",
			in:   "<div>hidden</div>\n\nVisible.",
			want: "Visible.",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPlainText([]byte(tt.in)); got != tt.want {
				t.Errorf("ToPlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}
