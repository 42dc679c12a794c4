//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/threadmark"
	"github.com/fwojciec/threadmark/extract"
	"github.com/fwojciec/threadmark/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<html><head><title>Fixture</title></head><body>
<h1>Rendered thread</h1>
<div data-testid="discussions-comment" id="c1">
  <a href="/alice">Alice</a>
  <button aria-label="3 votes">3</button>
  <div class="eTCgfj"><p>Top level comment text</p></div>
  <div class="hvAeBk">
    <div data-testid="discussions-comment" id="c2">
      <a href="/bob">Bob</a>
      <div class="eTCgfj"><p>Nested reply from bob</p></div>
    </div>
  </div>
</div>
<script>
  const p = document.createElement("p");
  p.textContent = "Injected by script";
  document.body.appendChild(p);
</script>
</body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) *rod.Browser {
	t.Helper()
	b, err := rod.NewBrowser()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBrowser_Fetch(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	b := newBrowser(t)

	html, err := b.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, html, "Injected by script")
}

func TestBrowser_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	b, err := rod.NewBrowser()
	require.NoError(t, err)

	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

func TestPage_LiveCapability(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	b := newBrowser(t)
	page, err := b.NewPage()
	require.NoError(t, err)
	t.Cleanup(func() { _ = page.Close() })

	require.NoError(t, page.Navigate(context.Background(), srv.URL, threadmark.WaitIdle))

	t.Run("query returns nil when absent", func(t *testing.T) {
		el, err := page.Query("#missing")
		require.NoError(t, err)
		assert.Nil(t, el)
	})

	t.Run("counts nested container ancestors", func(t *testing.T) {
		nested, err := page.Query("#c2")
		require.NoError(t, err)
		require.NotNil(t, nested)

		n, err := nested.CountAncestors(".hvAeBk")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("prune leaves the live element intact", func(t *testing.T) {
		top, err := page.Query("#c1")
		require.NoError(t, err)

		pruned, err := top.Prune(".hvAeBk")
		require.NoError(t, err)
		text, err := pruned.Text()
		require.NoError(t, err)
		assert.NotContains(t, text, "bob")

		full, err := top.Text()
		require.NoError(t, err)
		assert.Contains(t, full, "Nested reply from bob")
	})

	t.Run("extracts classified replies", func(t *testing.T) {
		x := extract.NewExtractor(threadmark.DefaultMarkers())

		replies, err := x.Replies(page)

		require.NoError(t, err)
		require.Len(t, replies, 2)
		assert.Equal(t, "alice", replies[0].Author.Username)
		assert.Equal(t, 3, replies[0].Upvotes)
		assert.Equal(t, 0, replies[1].Parent)
	})
}
