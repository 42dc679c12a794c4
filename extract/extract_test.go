package extract_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/threadmark"
	"github.com/fwojciec/threadmark/extract"
	"github.com/fwojciec/threadmark/goquery"
	"github.com/fwojciec/threadmark/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// discussionHTML mimics a rendered discussion: a topic header and a thread
// three levels deep, with one comment whose author cannot be resolved.
const discussionHTML = `<!DOCTYPE html>
<html>
<body>
<h1>Winning solution write-up</h1>
<div data-testid="discussions-topic-header">
	<a href="/competitions/neurips">NeurIPS</a>
	<a href="/janehost">Jane Host</a>
	<span>Competition Host</span>
	<button aria-label="42 votes">42</button>
	<div class="sc-eTCgfj"><p>Welcome to the main discussion thread everyone.</p></div>
</div>
<div data-testid="discussions-comment" id="alice">
	<a href="/alice">Alice</a>
	<span>Grandmaster</span>
	<span>3rd in this Competition</span>
	<span title="Mon Jan 01 2024 10:00:00">2 days ago</span>
	<button aria-label="5 votes">5</button>
	<div class="sc-x-eTCgfj"><p>Alice shares a top level insight about features.</p><p>Reply</p></div>
	<div class="sc-gGOevJ">
		<div data-testid="discussions-comment" id="bob">
			<a href="/bob">Bob</a>
			<button>3</button>
			<div class="sc-jMpVQY"><p>Bob agrees with Alice about the features.</p></div>
			<div class="sc-gGOevJ">
				<div data-testid="discussions-comment" id="carol">
					<a href="/carol">Carol</a>
					<button aria-label="-1 votes">-1</button>
					<div class="sc-jMpVQY"><p>Carol replies to Bob at depth three.</p></div>
				</div>
			</div>
		</div>
		<div data-testid="discussions-comment" id="anon">
			<a href="/competitions/neurips">NeurIPS</a>
			<div class="sc-jMpVQY"><p>Anonymous text that must be dropped.</p></div>
		</div>
	</div>
</div>
<div data-testid="discussions-comment" id="dave">
	<a href="/dave">Dave</a>
	<div class="sc-jMpVQY"><p>Dave posts a second top level comment.</p></div>
</div>
</body>
</html>`

func newPage(t *testing.T, html string) *goquery.Page {
	t.Helper()
	page, err := goquery.NewDocumentPage(html)
	require.NoError(t, err)
	return page
}

func TestExtractor_Replies(t *testing.T) {
	t.Parallel()

	t.Run("classifies nodes by nesting level", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		nodes, err := x.Replies(newPage(t, discussionHTML))

		require.NoError(t, err)
		require.Len(t, nodes, 4)
		assert.Equal(t, "alice", nodes[0].Author.Username)
		assert.Equal(t, "bob", nodes[1].Author.Username)
		assert.Equal(t, "carol", nodes[2].Author.Username)
		assert.Equal(t, "dave", nodes[3].Author.Username)
		assert.Equal(t, []int{-1, 0, 1, -1}, parents(nodes))
		assert.Equal(t, []int{0, 1, 2, 0}, levels(nodes))
	})

	t.Run("drops nodes without a resolvable author", func(t *testing.T) {
		t.Parallel()

		var reasons []string
		x := extract.NewExtractor(threadmark.DefaultMarkers())
		x.Dropped = func(_ int, reason string) {
			reasons = append(reasons, reason)
		}

		nodes, err := x.Replies(newPage(t, discussionHTML))

		require.NoError(t, err)
		for _, n := range nodes {
			assert.NotContains(t, n.Content, "Anonymous")
		}
		assert.Equal(t, []string{"unknown author"}, reasons)
	})

	t.Run("never includes descendant content in a parent", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())
		nodes, err := x.Replies(newPage(t, discussionHTML))
		require.NoError(t, err)

		tree, err := threadmark.BuildReplyTree(nodes)

		require.NoError(t, err)
		require.NoError(t, threadmark.VerifyReplyTree(tree))
		assert.Equal(t, "Alice shares a top level insight about features.", tree[0].Content)
		assert.Equal(t, "Bob agrees with Alice about the features.", tree[0].Replies[0].Content)
		assert.Equal(t, "1.1.1", tree[0].Replies[0].Replies[0].Number)
	})

	t.Run("legacy strategy flattens depth three", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())
		x.Strategy = extract.ParentNearestTopLevel

		nodes, err := x.Replies(newPage(t, discussionHTML))
		require.NoError(t, err)
		tree, err := threadmark.BuildReplyTree(nodes)
		require.NoError(t, err)

		assert.Equal(t, []int{-1, 0, 0, -1}, parents(nodes))
		require.Len(t, tree[0].Replies, 2)
		assert.Equal(t, "1.2", tree[0].Replies[1].Number)
		assert.Equal(t, "carol", tree[0].Replies[1].Author.Username)
	})

	t.Run("returns ENOTFOUND without comment elements", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		_, err := x.Replies(newPage(t, `<html><body><h1>Empty</h1></body></html>`))

		assert.Equal(t, threadmark.ENOTFOUND, threadmark.ErrorCode(err))
	})
}

func TestExtractor_Metadata(t *testing.T) {
	t.Parallel()

	comment := func(t *testing.T, id string) threadmark.Element {
		t.Helper()
		el, err := newPage(t, discussionHTML).Query("#" + id)
		require.NoError(t, err)
		require.NotNil(t, el)
		return el
	}

	t.Run("extracts author rank badges votes and timestamp", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		meta, err := x.Metadata(comment(t, "alice"))

		require.NoError(t, err)
		assert.Equal(t, threadmark.Author{
			Name:       "Alice",
			Username:   "alice",
			Rank:       "3rd in this Competition",
			Badges:     []string{"Grandmaster"},
			ProfileURL: "https://www.kaggle.com/alice",
		}, meta.Author)
		assert.Equal(t, 5, meta.Upvotes)
		assert.True(t, meta.VotesFound)
		assert.Equal(t, "Mon Jan 01 2024 10:00:00", meta.Timestamp)
	})

	t.Run("falls back to bare integer button text", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		meta, err := x.Metadata(comment(t, "bob"))

		require.NoError(t, err)
		assert.Equal(t, 3, meta.Upvotes)
		assert.True(t, meta.VotesFound)
		assert.Empty(t, meta.Timestamp)
	})

	t.Run("parses negative vote labels", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		meta, err := x.Metadata(comment(t, "carol"))

		require.NoError(t, err)
		assert.Equal(t, -1, meta.Upvotes)
	})

	t.Run("reports missing votes", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		meta, err := x.Metadata(comment(t, "dave"))

		require.NoError(t, err)
		assert.Equal(t, 0, meta.Upvotes)
		assert.False(t, meta.VotesFound)
		assert.Nil(t, meta.Author.Badges)
	})

	t.Run("does not read metadata from descendants", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		meta, err := x.Metadata(comment(t, "bob"))

		require.NoError(t, err)
		assert.Equal(t, "bob", meta.Author.Username)
		assert.NotEqual(t, -1, meta.Upvotes)
	})

	t.Run("returns unknown author for excluded links only", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		meta, err := x.Metadata(comment(t, "anon"))

		require.NoError(t, err)
		assert.True(t, meta.Author.IsUnknown())
		assert.Empty(t, meta.Author.ProfileURL)
	})

	t.Run("uses handle when link text is empty", func(t *testing.T) {
		t.Parallel()

		page := newPage(t, `<div id="c"><a href="/quiet"><img src="x.png"></a></div>`)
		el, err := page.Query("#c")
		require.NoError(t, err)
		x := extract.NewExtractor(threadmark.DefaultMarkers())

		meta, err := x.Metadata(el)

		require.NoError(t, err)
		assert.Equal(t, "quiet", meta.Author.Name)
		assert.Equal(t, "quiet", meta.Author.Username)
	})
}

func TestExtractor_Content(t *testing.T) {
	t.Parallel()

	t.Run("drops short and chrome segments", func(t *testing.T) {
		t.Parallel()

		page := newPage(t, `<div id="c">
			<a href="/alice">Alice</a>
			<div class="sc-eTCgfj">
				<p>Posted 3 days ago</p>
				<p>Thanks!</p>
				<p>12 votes</p>
				<p>alice</p>
				<p>The validation split leaks future data.</p>
				<p>Use a time based split instead.</p>
			</div>
		</div>`)
		el, err := page.Query("#c")
		require.NoError(t, err)
		x := extract.NewExtractor(threadmark.DefaultMarkers())

		content, err := x.Content(el, threadmark.Author{Name: "Alice", Username: "alice"})

		require.NoError(t, err)
		assert.Equal(t, "The validation split leaks future data.\nUse a time based split instead.", content)
	})

	t.Run("uses container lines without paragraphs", func(t *testing.T) {
		t.Parallel()

		page := newPage(t, `<div id="c"><div class="sc-eTCgfj">First line of the body<br>Second line of the body</div></div>`)
		el, err := page.Query("#c")
		require.NoError(t, err)
		x := extract.NewExtractor(threadmark.DefaultMarkers())

		content, err := x.Content(el, threadmark.Author{})

		require.NoError(t, err)
		assert.Equal(t, "First line of the body\nSecond line of the body", content)
	})

	t.Run("falls back to capped full text", func(t *testing.T) {
		t.Parallel()

		page := newPage(t, `<div id="c">
			<a href="/eve">Eve</a>
			<div>Posted 2 days ago</div>
			<div>this line follows chrome and is skipped</div>
			<div>First meaningful line of the fallback body.</div>
			<div>short</div>
			<div>Second meaningful line of the fallback body.</div>
			<div>Third meaningful line of the fallback body.</div>
			<div>Fourth meaningful line is beyond the cap.</div>
		</div>`)
		el, err := page.Query("#c")
		require.NoError(t, err)
		x := extract.NewExtractor(threadmark.DefaultMarkers())

		content, err := x.Content(el, threadmark.Author{Name: "Eve", Username: "eve"})

		require.NoError(t, err)
		assert.Equal(t, strings.Join([]string{
			"First meaningful line of the fallback body.",
			"Second meaningful line of the fallback body.",
			"Third meaningful line of the fallback body.",
		}, "\n"), content)
	})

	t.Run("excludes nested comment text", func(t *testing.T) {
		t.Parallel()

		el, err := newPage(t, discussionHTML).Query("#alice")
		require.NoError(t, err)
		x := extract.NewExtractor(threadmark.DefaultMarkers())

		content, err := x.Content(el, threadmark.Author{Name: "Alice", Username: "alice"})

		require.NoError(t, err)
		assert.NotContains(t, content, "Bob")
		assert.NotContains(t, content, "Carol")
	})

	t.Run("returns empty when only chrome remains", func(t *testing.T) {
		t.Parallel()

		page := newPage(t, `<div id="c"><div class="sc-eTCgfj"><p>Reply</p><p>5 votes</p></div></div>`)
		el, err := page.Query("#c")
		require.NoError(t, err)
		x := extract.NewExtractor(threadmark.DefaultMarkers())

		content, err := x.Content(el, threadmark.Author{})

		require.NoError(t, err)
		assert.Empty(t, content)
	})
}

func TestExtractor_Title(t *testing.T) {
	t.Parallel()

	t.Run("uses first non-empty marker", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		title, err := x.Title(newPage(t, `<html><body><h1>  </h1><h2>Second  heading</h2></body></html>`))

		require.NoError(t, err)
		assert.Equal(t, "Second heading", title)
	})

	t.Run("falls back to unknown title", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		title, err := x.Title(newPage(t, `<html><body><p>No headings</p></body></html>`))

		require.NoError(t, err)
		assert.Equal(t, extract.UnknownTitle, title)
	})
}

func TestExtractor_MainPost(t *testing.T) {
	t.Parallel()

	t.Run("extracts the topic header", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		post, err := x.MainPost(newPage(t, discussionHTML))

		require.NoError(t, err)
		assert.Equal(t, "janehost", post.Author.Username)
		assert.Equal(t, "Jane Host", post.Author.Name)
		assert.Equal(t, []string{"Competition Host"}, post.Author.Badges)
		assert.Equal(t, 42, post.Upvotes)
		assert.Equal(t, "Welcome to the main discussion thread everyone.", post.Content)
	})

	t.Run("converts the body with the converter", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())
		x.Converter = &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				assert.Contains(t, html, "<p>Welcome")
				return "Welcome **everyone**\n", nil
			},
		}

		post, err := x.MainPost(newPage(t, discussionHTML))

		require.NoError(t, err)
		assert.Equal(t, "Welcome **everyone**", post.Content)
	})

	t.Run("uses the fallback extractor without a topic header", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())
		x.Converter = &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				return "converted: " + html, nil
			},
		}
		x.Fallback = &mock.Extractor{
			ExtractFn: func(string) (*threadmark.ExtractResult, error) {
				return &threadmark.ExtractResult{ContentHTML: "<p>body</p>"}, nil
			},
		}

		post, err := x.MainPost(newPage(t, `<html><body><p>Only a body</p></body></html>`))

		require.NoError(t, err)
		assert.True(t, post.Author.IsUnknown())
		assert.Equal(t, "converted: <p>body</p>", post.Content)
	})

	t.Run("keeps replies out of the fallback main post", func(t *testing.T) {
		t.Parallel()

		// Given a page with an article and comments but no topic header
		html := `<html><body>
<article><p>This is the opening post of the thread.</p></article>
<div data-testid="discussions-comment">
	<a href="/alice">Alice</a>
	<div class="sc-jMpVQY"><p>Alice writes a fairly long top level reply.</p></div>
	<div class="sc-gGOevJ">
		<div data-testid="discussions-comment">
			<a href="/bob">Bob</a>
			<div class="sc-jMpVQY"><p>Bob answers Alice in a nested reply.</p></div>
		</div>
	</div>
</div>
</body></html>`
		markers := threadmark.DefaultMarkers()
		markers.MainPosts = []string{`div[data-testid="discussions-topic-header"]`}
		x := extract.NewExtractor(markers)
		x.Converter = &mock.Converter{
			ConvertFn: func(html string) (string, error) { return html, nil },
		}
		x.Fallback = &mock.Extractor{
			ExtractFn: func(html string) (*threadmark.ExtractResult, error) {
				return &threadmark.ExtractResult{ContentHTML: html}, nil
			},
		}
		page := newPage(t, html)

		// When the main post is recovered by the fallback
		post, err := x.MainPost(page)

		// Then it holds the opening post and no reply text
		require.NoError(t, err)
		assert.Contains(t, post.Content, "This is the opening post of the thread.")
		assert.NotContains(t, post.Content, "Alice writes")
		assert.NotContains(t, post.Content, "Bob answers")

		// And the replies are still extracted from the page
		replies, err := x.Replies(page)
		require.NoError(t, err)
		assert.Len(t, replies, 2)
	})

	t.Run("returns unknown author without header or fallback", func(t *testing.T) {
		t.Parallel()

		x := extract.NewExtractor(threadmark.DefaultMarkers())

		post, err := x.MainPost(newPage(t, `<html><body></body></html>`))

		require.NoError(t, err)
		assert.True(t, post.Author.IsUnknown())
		assert.Empty(t, post.Content)
	})
}

func parents(nodes []threadmark.ClassifiedReply) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Parent
	}
	return out
}

func levels(nodes []threadmark.ClassifiedReply) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Level
	}
	return out
}
