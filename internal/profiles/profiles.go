package profiles

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extension is the file extension epsonscan2 uses for settings files.
const Extension = ".SF2"

// ErrDirectoryUnreadable reports that the profile directory could not be listed.
var ErrDirectoryUnreadable = errors.New("profile directory unreadable")

// Profile is a settings file usable for a scan.
type Profile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

var titleCaser = cases.Title(language.Und)

// DisplayName renders the profile name for menus: extension dropped,
// separators turned into spaces, words title-cased.
func (p Profile) DisplayName() string {
	base := strings.TrimSuffix(p.Name, filepath.Ext(p.Name))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return p.Name
	}
	return titleCaser.String(base)
}

// HasExtension reports whether name carries the settings file extension.
func HasExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// List returns the settings files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func List(dir string) ([]Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDirectoryUnreadable, dir, err)
	}
	profiles := make([]Profile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !HasExtension(entry.Name()) {
			continue
		}
		profiles = append(profiles, Profile{Name: entry.Name(), Path: Join(dir, entry.Name())})
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Resolve picks the profile named requested from dir. When it is absent, or
// dir cannot be listed, the default profile path is returned instead.
func Resolve(dir, requested, defaultName string) Profile {
	if requested != "" {
		if available, err := List(dir); err == nil {
			for _, profile := range available {
				if profile.Name == requested {
					return profile
				}
			}
		}
	}
	return Profile{Name: defaultName, Path: Join(dir, defaultName)}
}

// Join combines dir and name with exactly one separator, whether or not dir
// already ends with one.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	trimmed := strings.TrimRight(dir, string(filepath.Separator))
	if trimmed == "" {
		return string(filepath.Separator) + name
	}
	return trimmed + string(filepath.Separator) + name
}

// SeedDefault copies source into dir as defaultName when dir has no file by
// that name yet. It reports whether a copy was made.
func SeedDefault(dir, defaultName, source string) (bool, error) {
	if strings.TrimSpace(source) == "" {
		return false, nil
	}
	target := Join(dir, defaultName)
	if _, err := os.Stat(target); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat default profile: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create profile directory: %w", err)
	}
	in, err := os.Open(source)
	if err != nil {
		return false, fmt.Errorf("open default profile source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create default profile: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(target)
		return false, fmt.Errorf("copy default profile: %w", err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("close default profile: %w", err)
	}
	return true, nil
}
