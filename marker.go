package threadmark

import "strings"

// Markers is a named, versioned set of structural predicates, expressed as
// CSS selectors, that identify roles within a site's rendered markup.
// Markup drift is handled by changing markers, not code.
type Markers struct {
	Name    string `yaml:"name"`
	Version int    `yaml:"version"`

	// Comment matches every comment-like element on a discussion page.
	Comment string `yaml:"comment"`

	// NestedContainer matches containers that hold replies to a comment.
	// The number of matching ancestors is an element's nesting level.
	NestedContainer string `yaml:"nested_container"`

	// Content matches the body container of a single comment.
	Content string `yaml:"content"`

	// Segment matches paragraph-level units inside a content container.
	Segment string `yaml:"segment"`

	// ProfileLink matches candidate author links. Candidates whose path
	// starts with an excluded prefix are ignored.
	ProfileLink             string   `yaml:"profile_link"`
	ExcludedProfilePrefixes []string `yaml:"excluded_profile_prefixes"`
	ProfileBaseURL          string   `yaml:"profile_base_url"`

	VoteButton      string   `yaml:"vote_button"`
	Button          string   `yaml:"button"`
	Timestamp       string   `yaml:"timestamp"`
	TimestampAttr   string   `yaml:"timestamp_attr"`
	Badge           string   `yaml:"badge"`
	BadgeVocabulary []string `yaml:"badge_vocabulary"`

	// Titles and MainPosts are tried in order; the first non-empty match wins.
	Titles    []string `yaml:"titles"`
	MainPosts []string `yaml:"main_posts"`

	// DiscussionLink matches outbound links on a listing page.
	DiscussionLink string `yaml:"discussion_link"`
	// DiscussionPath is the path segment that identifies a discussion link.
	DiscussionPath string `yaml:"discussion_path"`
	NextPage       string `yaml:"next_page"`

	// WriteupLink and WriteupPath identify solution write-ups, which list and
	// thread like discussions under their own path.
	WriteupLink string `yaml:"writeup_link"`
	WriteupPath string `yaml:"writeup_path"`
}

// DefaultMarkers returns the markers for Kaggle competition discussions.
func DefaultMarkers() *Markers {
	return &Markers{
		Name:            "kaggle",
		Version:         1,
		Comment:         `div[data-testid="discussions-comment"]`,
		NestedContainer: `.sc-gGOevJ, .hvAeBk`,
		Content:         `div[class*="eTCgfj"], div[class*="jMpVQY"]`,
		Segment:         `p`,
		ProfileLink:     `a[href^="/"]`,
		ExcludedProfilePrefixes: []string{
			"/competitions/", "/discussion/", "/code/", "/datasets/",
		},
		ProfileBaseURL:  "https://www.kaggle.com/",
		VoteButton:      `button[aria-label*="vote"]`,
		Button:          `button`,
		Timestamp:       `span[title]`,
		TimestampAttr:   "title",
		Badge:           `span`,
		BadgeVocabulary: []string{"Host", "Expert", "Master", "Grandmaster"},
		Titles: []string{
			`h1`, `h2`, `h3[class*="kvnevz"]`, `[data-testid*="title"]`,
		},
		MainPosts: []string{
			`div[data-testid="discussions-topic-header"]`,
			`div[class*="topic-header"]`,
			`article:first-of-type`,
		},
		DiscussionLink: `a[href*="/discussion/"]`,
		DiscussionPath: "/discussion",
		NextPage:       `button[aria-label="Go to next page"], a[aria-label="Go to next page"], [data-testid="pagination-next"]`,
		WriteupLink:    `a[href*="/writeups/"]`,
		WriteupPath:    "/writeups",
	}
}

// Validate returns an error if a marker required for extraction is missing.
func (m *Markers) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"comment", m.Comment},
		{"nested_container", m.NestedContainer},
		{"content", m.Content},
		{"profile_link", m.ProfileLink},
		{"discussion_link", m.DiscussionLink},
		{"discussion_path", m.DiscussionPath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Errorf(EINVALID, "marker %q required", r.name)
		}
	}
	if len(m.MainPosts) == 0 {
		return Errorf(EINVALID, "at least one main post marker required")
	}
	return nil
}

// ProfileURL derives an author's profile reference from a username.
func (m *Markers) ProfileURL(username string) string {
	if username == "" || username == UnknownUsername {
		return ""
	}
	return strings.TrimSuffix(m.ProfileBaseURL, "/") + "/" + username
}

// Writeups returns a copy of the markers that crawls the write-up listing
// instead of the discussion listing.
func (m *Markers) Writeups() (*Markers, error) {
	if strings.TrimSpace(m.WriteupLink) == "" || strings.TrimSpace(m.WriteupPath) == "" {
		return nil, Errorf(EINVALID, "markers %q have no write-up listing", m.Name)
	}
	w := *m
	w.DiscussionLink = m.WriteupLink
	w.DiscussionPath = m.WriteupPath
	return &w, nil
}

// Pruned returns the selector matching everything that belongs to descendant
// comments: nested containers and nested comment elements.
func (m *Markers) Pruned() string {
	return m.NestedContainer + ", " + m.Comment
}
