package input

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	// ConversationsFile is the required member of every export.
	ConversationsFile = "conversations.json"
	// ProjectsFile is the optional member linking conversations to projects.
	ProjectsFile = "projects.json"

	maxPayloadSize = 512 * 1024 * 1024 // 512MB
)

// Data holds the raw payloads of one export. Projects is nil when the export
// carries no projects.json.
type Data struct {
	Conversations json.RawMessage
	Projects      json.RawMessage

	// Source names where Conversations was read from.
	Source string
}

// Resolver turns a filesystem path into raw export payloads.
type Resolver struct{}

// NewResolver creates a new input resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve reads the export at inputPath. Directories, .zip archives and .json
// files are supported; anything else fails with ErrUnsupportedInput.
func (r *Resolver) Resolve(ctx context.Context, inputPath string) (*Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(ErrNotFound, inputPath, nil)
		}
		return nil, newError(ErrNotFound, inputPath, err)
	}

	if info.IsDir() {
		return r.resolveDirectory(inputPath)
	}

	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".zip":
		return r.resolveZip(ctx, inputPath)
	case ".json":
		return r.resolveFile(inputPath)
	default:
		return nil, newError(ErrUnsupportedInput, inputPath,
			errors.New("provide a directory, a .json file, or a .zip file"))
	}
}

func (r *Resolver) resolveDirectory(dir string) (*Data, error) {
	convPath := filepath.Join(dir, ConversationsFile)
	if !fileExists(convPath) {
		return nil, newError(ErrMissingFile, convPath, nil)
	}

	conversations, err := readJSONFile(convPath)
	if err != nil {
		return nil, err
	}

	projects, err := readOptionalJSONFile(filepath.Join(dir, ProjectsFile))
	if err != nil {
		return nil, err
	}

	return &Data{Conversations: conversations, Projects: projects, Source: convPath}, nil
}

// resolveFile treats the file as conversations.json and looks for a
// projects.json next to it.
func (r *Resolver) resolveFile(filePath string) (*Data, error) {
	conversations, err := readJSONFile(filePath)
	if err != nil {
		return nil, err
	}

	projects, err := readOptionalJSONFile(filepath.Join(filepath.Dir(filePath), ProjectsFile))
	if err != nil {
		return nil, err
	}

	return &Data{Conversations: conversations, Projects: projects, Source: filePath}, nil
}

func (r *Resolver) resolveZip(ctx context.Context, zipPath string) (*Data, error) {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, newError(ErrParse, zipPath, fmt.Errorf("opening archive: %w", err))
	}
	defer archive.Close()

	convEntry := findEntry(archive.File, ConversationsFile)
	if convEntry == nil {
		return nil, newError(ErrMissingFile, zipPath+"!"+ConversationsFile, nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conversations, err := readJSONEntry(zipPath, convEntry)
	if err != nil {
		return nil, err
	}

	var projects json.RawMessage
	if projEntry := findEntry(archive.File, ProjectsFile); projEntry != nil {
		projects, err = readJSONEntry(zipPath, projEntry)
		if err != nil {
			return nil, err
		}
	}

	return &Data{
		Conversations: conversations,
		Projects:      projects,
		Source:        entryLabel(zipPath, convEntry),
	}, nil
}

// findEntry returns the first regular entry whose name ends with suffix.
// AppleDouble metadata entries (__MACOSX/, ._name) are not candidates.
func findEntry(files []*zip.File, suffix string) *zip.File {
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(path.Base(f.Name), "._") {
			continue
		}
		if strings.HasSuffix(f.Name, suffix) {
			return f
		}
	}
	return nil
}

func readJSONEntry(zipPath string, f *zip.File) (json.RawMessage, error) {
	label := entryLabel(zipPath, f)
	if f.UncompressedSize64 > maxPayloadSize {
		return nil, newError(ErrParse, label,
			fmt.Errorf("entry too large: %d bytes (max %d)", f.UncompressedSize64, maxPayloadSize))
	}

	rc, err := f.Open()
	if err != nil {
		return nil, newError(ErrParse, label, fmt.Errorf("opening entry: %w", err))
	}
	defer rc.Close()

	return decodeJSON(label, rc)
}

func entryLabel(zipPath string, f *zip.File) string {
	return zipPath + "!" + f.Name
}

func readJSONFile(filePath string) (json.RawMessage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, newError(ErrParse, filePath, fmt.Errorf("opening file: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, newError(ErrParse, filePath, fmt.Errorf("stat file: %w", err))
	}
	if info.Size() > maxPayloadSize {
		return nil, newError(ErrParse, filePath,
			fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxPayloadSize))
	}

	return decodeJSON(filePath, f)
}

func readOptionalJSONFile(filePath string) (json.RawMessage, error) {
	if !fileExists(filePath) {
		return nil, nil
	}
	return readJSONFile(filePath)
}

func decodeJSON(label string, r io.Reader) (json.RawMessage, error) {
	content, err := io.ReadAll(io.LimitReader(r, maxPayloadSize+1))
	if err != nil {
		return nil, newError(ErrParse, label, fmt.Errorf("reading: %w", err))
	}
	if len(content) > maxPayloadSize {
		return nil, newError(ErrParse, label, fmt.Errorf("payload exceeds %d bytes", maxPayloadSize))
	}

	var raw json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, newError(ErrParse, label, err)
	}
	return raw, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
