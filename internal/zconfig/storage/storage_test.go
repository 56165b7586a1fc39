package storage

// Tests for atomic file operations and recursive copies.
//
// Focus: CopyFile (atomic with temp files, permission preservation),
// CopyDir (mirroring and overwrite semantics), existence checks.

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/spf13/afero"

	"github.com/OpenGG/zconfig/internal/zconfig/domain"
)

// assertDirEntries checks that dir holds exactly the named entries, so no
// temp file is left behind.
func assertDirEntries(t *testing.T, fs afero.Fs, dir string, want ...string) {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	var got []string
	for _, info := range infos {
		got = append(got, info.Name())
	}
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entries of %s = %v, want %v", dir, got, want)
	}
}

func TestCopyFile_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	src := "/test/source.env"
	dst := "/test/dest.env"

	if err := afero.WriteFile(fs, src, []byte("content"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := storage.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	content, err := afero.ReadFile(fs, dst)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(content) != "content" {
		t.Errorf("expected 'content', got %q", string(content))
	}

	assertDirEntries(t, fs, "/test", "dest.env", "source.env")
}

func TestCopyFile_CreatesIntermediateDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	src := "/test/source.env"
	dst := "/deeply/nested/path/dest.env"

	if err := afero.WriteFile(fs, src, []byte("data"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := storage.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	exists, err := afero.Exists(fs, dst)
	if err != nil {
		t.Fatalf("exists check: %v", err)
	}
	if !exists {
		t.Error("destination file should exist")
	}
}

func TestCopyFile_OverwritesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	src := "/test/source.env"
	dst := "/test/dest.env"

	if err := afero.WriteFile(fs, src, []byte("new"), 0o644); err != nil {
		t.Fatalf("setup src: %v", err)
	}
	if err := afero.WriteFile(fs, dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup dst: %v", err)
	}

	if err := storage.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	content, err := afero.ReadFile(fs, dst)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(content) != "new" {
		t.Errorf("expected 'new', got %q", string(content))
	}
}

func TestCopyFile_PreservesPermissions(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	src := "/test/secret.env"
	dst := "/copy/secret.env"

	if err := afero.WriteFile(fs, src, []byte("secret"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := storage.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	info, err := fs.Stat(dst)
	if err != nil {
		t.Fatalf("stat dest: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected file mode 0600, got %o", info.Mode().Perm())
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	err := storage.CopyFile("/nonexistent", "/dest")
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist in chain, got: %v", err)
	}
}

func TestCopyDir_MirrorsTreeAndKeepsUnrelatedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	files := map[string]string{
		"/src/config.json":     "{}",
		"/src/conf/stage/.env": "A=1",
	}
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("setup %s: %v", path, err)
		}
	}
	if err := afero.WriteFile(fs, "/dst/config.json", []byte("old"), 0o644); err != nil {
		t.Fatalf("setup dst: %v", err)
	}
	if err := afero.WriteFile(fs, "/dst/README.md", []byte("readme"), 0o644); err != nil {
		t.Fatalf("setup dst: %v", err)
	}

	if err := storage.CopyDir("/src", "/dst"); err != nil {
		t.Fatalf("CopyDir failed: %v", err)
	}

	expect := map[string]string{
		"/dst/config.json":     "{}",
		"/dst/conf/stage/.env": "A=1",
		"/dst/README.md":       "readme",
	}
	for path, want := range expect {
		got, err := afero.ReadFile(fs, path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(got) != want {
			t.Errorf("%s: expected %q, got %q", path, want, string(got))
		}
	}
}

func TestCopyDir_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := storage.CopyDir("/missing", "/dst"); err == nil {
		t.Fatal("expected error for missing source directory")
	}
}

func TestIsFileAndIsDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := afero.WriteFile(fs, "/dir/file.txt", []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		path   string
		isFile bool
		isDir  bool
	}{
		{"/dir/file.txt", true, false},
		{"/dir", false, true},
		{"/missing", false, false},
	}
	for _, tt := range tests {
		isFile, err := storage.IsFile(tt.path)
		if err != nil {
			t.Fatalf("IsFile(%s): %v", tt.path, err)
		}
		isDir, err := storage.IsDir(tt.path)
		if err != nil {
			t.Fatalf("IsDir(%s): %v", tt.path, err)
		}
		if isFile != tt.isFile || isDir != tt.isDir {
			t.Errorf("%s: got file=%v dir=%v, want file=%v dir=%v", tt.path, isFile, isDir, tt.isFile, tt.isDir)
		}
	}
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/ws/config.json"
	if err := storage.WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := storage.WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(content) != "second" {
		t.Errorf("expected 'second', got %q", string(content))
	}
	assertDirEntries(t, fs, "/ws", "config.json")
}

func TestRemove_MissingFileIsNoop(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := storage.Remove("/nothing/here"); err != nil {
		t.Errorf("expected nil for missing file, got %v", err)
	}
}

func TestValidatePathSafety_NonExistentPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := storage.ValidatePathSafety("/nonexistent/file.env"); err != nil {
		t.Errorf("non-existent path should be safe: %v", err)
	}
}

func TestMkdirAll_Permissions(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/deeply/nested/path"
	if err := storage.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("path should be a directory")
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("expected mode 0755, got %o", info.Mode().Perm())
	}
}

func TestCopyFile_KeepsTmpSibling(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := afero.WriteFile(fs, "/src/app.env", []byte("A=2"), 0o644); err != nil {
		t.Fatalf("setup src: %v", err)
	}
	if err := afero.WriteFile(fs, "/dst/app.env.tmp", []byte("sibling"), 0o644); err != nil {
		t.Fatalf("setup sibling: %v", err)
	}

	if err := storage.CopyFile("/src/app.env", "/dst/app.env"); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	content, err := afero.ReadFile(fs, "/dst/app.env.tmp")
	if err != nil {
		t.Fatalf("sibling lost: %v", err)
	}
	if string(content) != "sibling" {
		t.Errorf("sibling overwritten with %q", string(content))
	}
	assertDirEntries(t, fs, "/dst", "app.env", "app.env.tmp")
}

func TestWriteFileAtomic_KeepsTmpSibling(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := afero.WriteFile(fs, "/ws/config.json.tmp", []byte("sibling"), 0o644); err != nil {
		t.Fatalf("setup sibling: %v", err)
	}
	if err := storage.WriteFileAtomic("/ws/config.json", []byte("{}")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	content, err := afero.ReadFile(fs, "/ws/config.json.tmp")
	if err != nil || string(content) != "sibling" {
		t.Fatalf("sibling changed: %q, %v", string(content), err)
	}
	info, err := fs.Stat("/ws/config.json")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("expected mode 0644, got %o", info.Mode().Perm())
	}
	assertDirEntries(t, fs, "/ws", "config.json", "config.json.tmp")
}

func TestCopyFile_RefusesSymlinkDestination(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()
	storage := New(fs)

	src := filepath.Join(dir, "src.env")
	target := filepath.Join(dir, "target.env")
	link := filepath.Join(dir, "link.env")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("setup src: %v", err)
	}
	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup target: %v", err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	err := storage.CopyFile(src, link)
	if !errors.Is(err, domain.ErrSymlink) || !domain.IsRecoverable(err) {
		t.Fatalf("expected recoverable symlink error, got %v", err)
	}
	if data, _ := os.ReadFile(target); string(data) != "old" {
		t.Errorf("symlink target modified: %q", string(data))
	}
}
