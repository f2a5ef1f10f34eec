//go:build cgo

package embeddings

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultONNXRuntimeVersion must match the onnxruntime_go release that
// fastembed-go links against.
const DefaultONNXRuntimeVersion = "1.23.0"

// onnxPathEnv is read by fastembed-go to locate the shared library.
const onnxPathEnv = "ONNX_PATH"

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// runtimeRelease identifies one ONNX runtime tarball on the GitHub releases
// page and the shared library it must contain.
type runtimeRelease struct {
	version  string
	platform string // release archive suffix, e.g. "linux-x64"
	lib      string
}

func newRuntimeRelease(version, goos, goarch string) (runtimeRelease, error) {
	platform := ""
	switch goos + "/" + goarch {
	case "linux/amd64":
		platform = "linux-x64"
	case "linux/arm64":
		platform = "linux-aarch64"
	case "darwin/amd64":
		platform = "osx-x86_64"
	case "darwin/arm64":
		platform = "osx-arm64"
	default:
		return runtimeRelease{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}
	return runtimeRelease{version: version, platform: platform, lib: libraryName(goos)}, nil
}

func (r runtimeRelease) url() string {
	return fmt.Sprintf("https://github.com/microsoft/onnxruntime/releases/download/v%[1]s/onnxruntime-%[2]s-%[1]s.tgz",
		r.version, r.platform)
}

// libDir is the archive directory holding the shared libraries.
func (r runtimeRelease) libDir() string {
	return fmt.Sprintf("onnxruntime-%s-%s/lib/", r.platform, r.version)
}

// isLibrary matches the library itself and its versioned sonames.
func (r runtimeRelease) isLibrary(filename string) bool {
	return filename == r.lib || strings.HasPrefix(filename, r.lib+".")
}

func libraryName(goos string) string {
	if goos == "darwin" {
		return "libonnxruntime.dylib"
	}
	return "libonnxruntime.so"
}

// GetONNXLibraryPath returns $ONNX_PATH when set, else the managed install
// under the user config dir when present, else "".
func GetONNXLibraryPath() string {
	if p := os.Getenv(onnxPathEnv); p != "" {
		return p
	}
	managed := filepath.Join(onnxInstallDir(), libraryName(runtime.GOOS))
	if _, err := os.Stat(managed); err != nil {
		return ""
	}
	return managed
}

func ONNXRuntimeExists() bool {
	return GetONNXLibraryPath() != ""
}

// DownloadONNXRuntime installs the runtime for this platform into the
// managed directory. An empty version means DefaultONNXRuntimeVersion.
// onProgress may be nil.
func DownloadONNXRuntime(ctx context.Context, version string, onProgress ProgressFunc) error {
	if version == "" {
		version = DefaultONNXRuntimeVersion
	}
	rel, err := newRuntimeRelease(version, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}
	return rel.install(ctx, http.DefaultClient, rel.url(), onnxInstallDir(), onProgress)
}

func (r runtimeRelease) install(ctx context.Context, client *http.Client, url, dest string, onProgress ProgressFunc) error {
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading ONNX runtime: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if onProgress != nil {
		body = &countingReader{Reader: resp.Body, total: resp.ContentLength, report: onProgress, last: -1}
	}
	if err := r.extract(body, dest); err != nil {
		return fmt.Errorf("extracting archive: %w", err)
	}
	if onProgress != nil {
		onProgress(100)
	}
	return nil
}

// countingReader reports whole percents below 100; the caller reports 100
// once extraction succeeds. Without a Content-Length it stays silent.
type countingReader struct {
	io.Reader
	total, seen int64
	last        int
	report      ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.Reader.Read(p)
	c.seen += int64(n)
	if c.total <= 0 {
		return n, err
	}
	if pct := min(int(c.seen*100/c.total), 99); pct != c.last {
		c.last = pct
		c.report(pct)
	}
	return n, err
}

// extract flattens everything under the archive's lib/ directory into dest.
// Symlinks are recreated; a failed link is ignored since its target is
// extracted as a regular file.
func (r runtimeRelease) extract(src io.Reader, dest string) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return err
	}
	defer gz.Close()

	prefix := r.libDir()
	found := false
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if hdr.Typeflag == tar.TypeDir || !strings.HasPrefix(name, prefix) {
			continue
		}
		base := filepath.Base(name)
		target := filepath.Join(dest, base)

		switch hdr.Typeflag {
		case tar.TypeSymlink:
			_ = os.Remove(target)
			if os.Symlink(hdr.Linkname, target) == nil && base == r.lib {
				found = true
			}
		default:
			if err := writeFile(target, tr); err != nil {
				return fmt.Errorf("writing %s: %w", base, err)
			}
			found = found || r.isLibrary(base)
		}
	}

	if !found {
		return fmt.Errorf("library %s not found in archive", r.lib)
	}
	return nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, r)
	return errors.Join(err, f.Close())
}

// setONNXPathEnv is swapped out in tests.
var setONNXPathEnv = func(path string) error {
	return os.Setenv(onnxPathEnv, path)
}

// EnsureONNXRuntime locates or downloads the runtime and exports its path
// for fastembed-go. It returns the library path.
func EnsureONNXRuntime(ctx context.Context, onProgress ProgressFunc) (string, error) {
	path := GetONNXLibraryPath()
	switch {
	case path != "" && onProgress != nil:
		onProgress(100)
	case path == "":
		if err := DownloadONNXRuntime(ctx, "", onProgress); err != nil {
			return "", fmt.Errorf("downloading ONNX runtime v%s for %s/%s: %w (run 'chatarchive init' or set %s)",
				DefaultONNXRuntimeVersion, runtime.GOOS, runtime.GOARCH, err, onnxPathEnv)
		}
		if path = GetONNXLibraryPath(); path == "" {
			return "", errors.New("ONNX runtime download completed but library not found")
		}
	}

	if err := setONNXPathEnv(path); err != nil {
		return "", fmt.Errorf("setting %s: %w", onnxPathEnv, err)
	}
	return path, nil
}
