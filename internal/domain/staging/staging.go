// Package staging manages the per-user working directories that hold
// uploaded recordings, the retained last image, and the synthesized
// response audio.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"envisonet-server-go/internal/platform/errors"
)

const (
	// ResponseAudioName is the fixed name of the synthesized reply. Each
	// new response overwrites the previous one.
	ResponseAudioName = "responseTTS.mp3"

	// lastImageBase is the name (sans extension) under which the most
	// recent upload is kept for follow-up questions.
	lastImageBase = "lastimage"
)

var (
	audioExtensions = map[string]bool{".webm": true}
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Area is the staging root under which each user gets an isolated directory.
type Area struct {
	root string
}

func New(root string) (*Area, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "staging.new", "failed to create staging root", err)
	}
	return &Area{root: root}, nil
}

// UserDir returns (and creates) the directory for one user's files.
func (a *Area) UserDir(username string) (string, error) {
	dir := filepath.Join(a.root, "files_for_"+sanitize(username))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.KindStorage, "staging.user_dir", "failed to create user directory", err)
	}
	return dir, nil
}

// StageAudio validates the extension and writes the uploaded recording
// into the user's directory under its sanitized original name.
func (a *Area) StageAudio(username, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !audioExtensions[ext] {
		return "", errors.New(errors.KindClientInput, "staging.stage_audio",
			"invalid audio file format")
	}
	return a.write(username, sanitize(filename), src)
}

// StageImage validates the extension and writes the upload into the
// user's directory under its sanitized original name. It becomes the
// last image only once PromoteImage is called after a successful
// interpretation.
func (a *Area) StageImage(username, filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", errors.New(errors.KindClientInput, "staging.stage_image",
			"invalid image file format")
	}
	return a.write(username, sanitize(filename), src)
}

// StagedAudio returns the path of the uploaded recording waiting to be
// processed, or an empty string when none is staged.
func (a *Area) StagedAudio(username string) (string, error) {
	dir, err := a.UserDir(username)
	if err != nil {
		return "", err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.webm"))
	if err != nil {
		return "", errors.Wrap(errors.KindStorage, "staging.staged_audio", "failed to scan user directory", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0], nil
}

// StagedImage returns the path of an uploaded image waiting to be
// interpreted, or an empty string when none is staged. The retained
// last image does not count.
func (a *Area) StagedImage(username string) (string, error) {
	dir, err := a.UserDir(username)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(errors.KindStorage, "staging.staged_image", "failed to scan user directory", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, lastImageBase+".") {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(name))] {
			return filepath.Join(dir, name), nil
		}
	}
	return "", nil
}

// PromoteImage makes a staged image the user's last image, returning
// the new path for the caller to record. The rename happens before the
// previous image is removed, so there is no window with no image on
// disk; previous is the recorded path being replaced, empty when the
// user has none.
func (a *Area) PromoteImage(username, imagePath, previous string) (string, error) {
	dir, err := a.UserDir(username)
	if err != nil {
		return "", err
	}
	promoted := filepath.Join(dir, lastImageBase+strings.ToLower(filepath.Ext(imagePath)))
	if err := os.Rename(imagePath, promoted); err != nil {
		return "", errors.Wrap(errors.KindStorage, "staging.promote_image", "failed to promote image", err)
	}
	if previous != "" && previous != promoted {
		if err := os.Remove(previous); err != nil && !os.IsNotExist(err) {
			return "", errors.Wrap(errors.KindStorage, "staging.promote_image", "failed to remove old image", err)
		}
	}
	return promoted, nil
}

// Discard removes a staged file. A path that is already gone is fine.
func (a *Area) Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.KindStorage, "staging.discard", "failed to remove staged file", err)
	}
	return nil
}

// WriteResponseAudio stores the synthesized reply under its fixed name.
func (a *Area) WriteResponseAudio(username string, data []byte) (string, error) {
	dir, err := a.UserDir(username)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ResponseAudioName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(errors.KindStorage, "staging.write_response", "failed to write response audio", err)
	}
	return path, nil
}

// Cleanup removes every staged file for the user. A missing directory is
// not an error.
func (a *Area) Cleanup(username string) error {
	dir := filepath.Join(a.root, "files_for_"+sanitize(username))
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.KindStorage, "staging.cleanup", "failed to remove user directory", err)
	}
	return nil
}

func (a *Area) write(username, name string, src io.Reader) (string, error) {
	dir, err := a.UserDir(username)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.KindStorage, "staging.write", "failed to create staged file", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrap(errors.KindStorage, "staging.write", "failed to write staged file", err)
	}
	return path, nil
}

// sanitize strips path separators and anything else unsafe from a
// client-supplied filename.
func sanitize(name string) string {
	name = filepath.Base(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "unnamed"
	}
	return name
}

// DisplayName formats a staged path for logs.
func DisplayName(path string) string {
	return fmt.Sprintf("%s/%s", filepath.Base(filepath.Dir(path)), filepath.Base(path))
}
