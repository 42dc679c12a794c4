package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/fwojciec/threadmark"
)

// Ensure FileStore implements threadmark.DiscussionStore at compile time.
var _ threadmark.DiscussionStore = (*FileStore)(nil)

// Overwrite selects what happens to an existing output directory.
type Overwrite int

const (
	// OverwriteReplace writes to dir.tmp and replaces dir on Commit.
	OverwriteReplace Overwrite = iota
	// OverwriteAppend writes into dir directly and keeps existing files.
	OverwriteAppend
)

// Format is an output file format, named by its file extension.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat returns the Format for name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatMarkdown, FormatJSON:
		return f, nil
	}
	return "", threadmark.Errorf(threadmark.EINVALID, "unknown output format %q", name)
}

func (f Format) render(d *threadmark.Discussion) ([]byte, error) {
	if f == FormatJSON {
		return MarshalDiscussion(d)
	}
	return []byte(FormatDiscussion(d)), nil
}

// FileStore writes each discussion as one file per format, named after its
// position and title.
type FileStore struct {
	dir     string
	policy  Overwrite
	formats []Format
	started bool
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithFormats sets the formats written for every discussion. The first
// format's file is the path Save reports. Defaults to markdown only.
func WithFormats(formats ...Format) Option {
	return func(s *FileStore) {
		if len(formats) > 0 {
			s.formats = formats
		}
	}
}

// NewFileStore creates a FileStore writing to dir.
func NewFileStore(dir string, policy Overwrite, opts ...Option) *FileStore {
	s := &FileStore{dir: dir, policy: policy, formats: []Format{FormatMarkdown}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the final output directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) tempDir() string {
	return filepath.Clean(s.dir) + ".tmp"
}

func (s *FileStore) writeDir() string {
	if s.policy == OverwriteAppend {
		return s.dir
	}
	return s.tempDir()
}

// Save renders the discussion in every format and writes it. The returned
// path is where the first format's file lives once the store is committed.
func (s *FileStore) Save(ctx context.Context, d *threadmark.Discussion, position int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := d.Validate(); err != nil {
		return "", err
	}

	base := baseName(position, d.Title)
	dir := s.writeDir()
	if !s.started && s.policy == OverwriteReplace {
		// Leftovers of an interrupted run must not reach the output.
		if err := os.RemoveAll(dir); err != nil {
			return "", err
		}
	}
	s.started = true
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	for _, f := range s.formats {
		data, err := f.render(d)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dir, base+"."+string(f)), data, 0644); err != nil {
			return "", err
		}
	}
	return filepath.Join(s.dir, base+"."+string(s.formats[0])), nil
}

// Commit makes the run's output permanent. Under OverwriteReplace the
// previous output directory is removed and the temporary one takes its place.
func (s *FileStore) Commit() error {
	if s.policy == OverwriteAppend {
		return nil
	}
	if _, err := os.Stat(s.tempDir()); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	return os.Rename(s.tempDir(), s.dir)
}

// Abort discards pending output. Files already written under
// OverwriteAppend are kept.
func (s *FileStore) Abort() error {
	if s.policy == OverwriteAppend {
		return nil
	}
	return os.RemoveAll(s.tempDir())
}
