package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/suhba/internal/config"
	"github.com/hpungsan/suhba/internal/errors"
)

func TestValidateImportPath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../fixture.yaml"},
		{"deep traversal", "../../etc/fixture.yaml"},
		{"mid-path traversal", "/tmp/../etc/fixture.yaml"},
		{"hidden in path", "/tmp/safe/../../../etc/shadow.json"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateImportPath(tc.path, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateImportPath_Extension(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	for _, name := range []string{"fixture", "fixture.jsonl", "fixture.txt", "fixture.yaml.bak"} {
		t.Run(name, func(t *testing.T) {
			err := ValidateImportPath(filepath.Join(tmpDir, name), cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}

	for _, name := range []string{"fixture.yaml", "fixture.yml", "fixture.json", "FIXTURE.YAML"} {
		t.Run(name, func(t *testing.T) {
			path := writeFixture(t, tmpDir, name, "{}")
			if err := ValidateImportPath(path, cfg); err != nil {
				t.Errorf("expected %s to be accepted, got: %v", name, err)
			}
		})
	}
}

func TestValidateImportPath_EmptyPath(t *testing.T) {
	err := ValidateImportPath("", config.DefaultConfig())
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateImportPath_DirectoryRestriction(t *testing.T) {
	cfg := config.DefaultConfig()

	// Default config only allows ~/.suhba/imports
	err := ValidateImportPath("/tmp/fixture.yaml", cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateImportPath_AllowedPaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{tmpDir, "relative/ignored"}

	path := writeFixture(t, tmpDir, "fixture.yaml", "{}")
	if err := ValidateImportPath(path, cfg); err != nil {
		t.Errorf("expected success for path in AllowedPaths, got: %v", err)
	}

	otherDir := t.TempDir()
	other := writeFixture(t, otherDir, "other.yaml", "{}")
	if err := ValidateImportPath(other, cfg); err == nil {
		t.Error("expected error for path outside AllowedPaths, got nil")
	}
}

func TestValidateImportPath_FileNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{tmpDir}

	err := ValidateImportPath(filepath.Join(tmpDir, "missing.yaml"), cfg)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got: %v", err)
	}

	cfg.AllowUnsafePaths = true
	err = ValidateImportPath(filepath.Join(tmpDir, "missing.yaml"), cfg)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound in unsafe mode, got: %v", err)
	}
}

func TestValidateImportPath_NestedPathRejected(t *testing.T) {
	allowedDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowedDir}

	subDir := filepath.Join(allowedDir, "subdir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	path := writeFixture(t, subDir, "fixture.yaml", "{}")

	err := ValidateImportPath(path, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateImportPath_SymlinkRejected(t *testing.T) {
	allowedDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowedDir}

	otherDir := t.TempDir()
	target := writeFixture(t, otherDir, "secret.yaml", "{}")

	link := filepath.Join(allowedDir, "link.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	err := ValidateImportPath(link, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateImportPath_SymlinkRejected_EvenWithUnsafePaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	target := writeFixture(t, tmpDir, "target.yaml", "{}")
	link := filepath.Join(tmpDir, "link.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	err := ValidateImportPath(link, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateImportPath_SymlinkedAllowedDir(t *testing.T) {
	realDir := t.TempDir()
	linkParent := t.TempDir()
	linkDir := filepath.Join(linkParent, "imports")
	if err := os.Symlink(realDir, linkDir); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{linkDir}

	// Through the real directory the file matches the resolved entry
	path := writeFixture(t, realDir, "fixture.yaml", "{}")
	if err := ValidateImportPath(path, cfg); err != nil {
		t.Errorf("expected success via resolved allowed dir, got: %v", err)
	}

	// Through the link the parent does not match the resolved entry
	if err := ValidateImportPath(filepath.Join(linkDir, "fixture.yaml"), cfg); err == nil {
		t.Error("expected error for path through symlinked directory, got nil")
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/fixture.yaml", false},
		{"fixture..yaml", false},
		{"../fixture.yaml", true},
		{"/a/b/../c.yaml", true},
		{"..", true},
	}
	for _, tc := range tests {
		if got := containsTraversal(tc.path); got != tc.want {
			t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsDirectlyInAllowedDir(t *testing.T) {
	allowed := []string{"/home/u/.suhba/imports", "/data/fixtures"}
	tests := []struct {
		parent string
		want   bool
	}{
		{"/home/u/.suhba/imports", true},
		{"/data/fixtures/", true},
		{"/data/fixtures/nested", false},
		{"/data", false},
	}
	for _, tc := range tests {
		if got := isDirectlyInAllowedDir(tc.parent, allowed); got != tc.want {
			t.Errorf("isDirectlyInAllowedDir(%q) = %v, want %v", tc.parent, got, tc.want)
		}
	}
}
