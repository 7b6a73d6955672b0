package extract

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextPage(href string) []byte {
	return []byte(fmt.Sprintf(`<html><body><ul class="pager">
<li class="current">Page 1 of 50</li>
<li class="next"><a href="%s">next</a></li>
</ul></body></html>`, href))
}

func TestResolveNextMatchesURLJoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current string
		href    string
		want    string
	}{
		{"https://books.toscrape.com/", "catalogue/page-2.html", "https://books.toscrape.com/catalogue/page-2.html"},
		{"https://books.toscrape.com/catalogue/page-2.html", "page-3.html", "https://books.toscrape.com/catalogue/page-3.html"},
		{"https://books.toscrape.com/catalogue/category/books/page-1.html", "../../page-4.html", "https://books.toscrape.com/catalogue/page-4.html"},
		{"https://books.toscrape.com/catalogue/page-2.html", "./page-3.html", "https://books.toscrape.com/catalogue/page-3.html"},
		{"https://books.toscrape.com/catalogue/page-2.html", "?page=3", "https://books.toscrape.com/catalogue/page-2.html?page=3"},
		{"https://books.toscrape.com/list?page=2", "list?page=3&sort=asc", "https://books.toscrape.com/list?page=3&sort=asc"},
		{"https://books.toscrape.com/a/b", "/root.html", "https://books.toscrape.com/root.html"},
		{"https://books.toscrape.com/a/b", "https://mirror.example/page-2.html", "https://mirror.example/page-2.html"},
		{"https://books.toscrape.com/a/b", "//cdn.example/p2", "https://cdn.example/p2"},
	}
	r := NewResolver("", nil)
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()

			current, err := url.Parse(tt.current)
			require.NoError(t, err)
			ref, err := url.Parse(tt.href)
			require.NoError(t, err)

			got, ok := r.ResolveNext(nextPage(tt.href), current)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, current.ResolveReference(ref).String(), got.String())
		})
	}
}

func TestResolveNextAbsent(t *testing.T) {
	t.Parallel()

	current, err := url.Parse("https://books.toscrape.com/catalogue/page-50.html")
	require.NoError(t, err)
	r := NewResolver("", nil)

	pages := map[string][]byte{
		"no pager":     []byte(`<html><body><ul class="pager"><li class="previous"><a href="page-49.html">previous</a></li></ul></body></html>`),
		"empty href":   nextPage("   "),
		"missing href": []byte(`<html><body><li class="next"><a>next</a></li></body></html>`),
		"bad href":     nextPage("http://[::1"),
		"empty page":   nil,
	}
	for name, content := range pages {
		got, ok := r.ResolveNext(content, current)
		assert.False(t, ok, name)
		assert.Nil(t, got, name)
	}
}

func TestResolveNextCustomSelector(t *testing.T) {
	t.Parallel()

	current, err := url.Parse("https://shop.example/items?page=1")
	require.NoError(t, err)
	content := []byte(`<nav><a rel="next" href="?page=2">More</a></nav>`)

	got, ok := NewResolver(`a[rel="next"]`, nil).ResolveNext(content, current)
	require.True(t, ok)
	assert.Equal(t, "https://shop.example/items?page=2", got.String())
}
