package render

import "testing"

// ---------------------------------------------------------------------------
// TestInjectCSS - Style Block Placement
// ---------------------------------------------------------------------------

func TestInjectCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page string
		css  string
		want string
	}{
		{
			name: "before head close",
			page: "<html><head><title>T</title></head><body/></html>",
			css:  "p{color:red}",
			want: "<html><head><title>T</title><style>p{color:red}</style></head><body/></html>",
		},
		{
			name: "uppercase head",
			page: "<HTML><HEAD></HEAD></HTML>",
			css:  "a{}",
			want: "<HTML><HEAD><style>a{}</style></HEAD></HTML>",
		},
		{
			name: "after body open",
			page: `<body class="x"><p>hi</p></body>`,
			css:  "a{}",
			want: `<body class="x"><style>a{}</style><p>hi</p></body>`,
		},
		{
			name: "fragment",
			page: "<p>hi</p>",
			css:  "a{}",
			want: "<style>a{}</style><p>hi</p>",
		},
		{
			name: "closing tag escaped",
			page: "<p/>",
			css:  "a{}</style><script>",
			want: `<style>a{}<\/style><script></style><p/>`,
		},
		{
			name: "blank css",
			page: "<p/>",
			css:  "  \n",
			want: "<p/>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := string(InjectCSS([]byte(tt.page), tt.css)); got != tt.want {
				t.Errorf("InjectCSS() = %q, want %q", got, tt.want)
			}
		})
	}
}
