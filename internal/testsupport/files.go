package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteProfile creates a placeholder settings profile at path and returns the
// bytes written. The body names the profile so copies can be told apart.
func WriteProfile(t testing.TB, path string) []byte {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	body := []byte(fmt.Sprintf("{\"Preset\":{\"Name\":%q,\"Resolution\":300}}\n", name))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write profile %s: %v", path, err)
	}
	return body
}
