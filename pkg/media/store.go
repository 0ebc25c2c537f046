package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"groov/internal/domain"

	"github.com/tcolgate/mp3"
)

// Store keeps uploaded blobs on local disk under <root>/audio and
// <root>/image, mirrored by the /media static mount.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	for _, sub := range []string{"audio", "image"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("media dir %s: %w", sub, err)
		}
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

// SaveAudio writes the audio blob and returns its public URL path.
func (s *Store) SaveAudio(filename string, r io.Reader) (string, error) {
	if err := s.save("audio", filename, r); err != nil {
		return "", err
	}
	return "/media/audio/" + filename, nil
}

// SaveImage writes the image blob and returns its public URL path.
func (s *Store) SaveImage(filename string, r io.Reader) (string, error) {
	if err := s.save("image", filename, r); err != nil {
		return "", err
	}
	return "/media/image/" + filename, nil
}

func (s *Store) save(sub, filename string, r io.Reader) error {
	// filenames come from user input; anything that is not a single path
	// element could escape the media root
	if filename == "." || filename == ".." || filename != filepath.Base(filename) {
		return fmt.Errorf("%w: filename %q must be a single path element", domain.ErrInvalid, filename)
	}
	path := filepath.Join(s.root, sub, filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// AudioPath resolves the on-disk path for a stored audio file. The bool
// reports whether the file actually exists, so a record/storage desync can be
// surfaced instead of streaming nothing.
func (s *Store) AudioPath(filename string) (string, bool) {
	path := filepath.Join(s.root, "audio", filename)
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	return path, true
}

// Remove deletes a stored file given its public URL path; missing files are
// not an error.
func (s *Store) Remove(urlPath string) {
	name := filepath.Base(urlPath)
	for _, sub := range []string{"audio", "image"} {
		p := filepath.Join(s.root, sub, name)
		if _, err := os.Stat(p); err == nil {
			os.Remove(p)
			return
		}
	}
}

// AudioDuration decodes mp3 frames to compute total track length in seconds.
func AudioDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total time.Duration
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			// tolerate trailing garbage once some audio has been read
			if total > 0 {
				break
			}
			return 0, fmt.Errorf("decode mp3: %w", err)
		}
		total += frame.Duration()
	}
	return total.Seconds(), nil
}
