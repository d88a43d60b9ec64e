package parser

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// textExtensions are formats read verbatim as UTF-8 text.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".go":   true,
	".py":   true,
	".js":   true,
	".json": true,
	".xml":  true,
	".csv":  true,
}

// binaryExtensions are recognized document formats whose text extraction is
// delegated to an external converter. Until one is wired in they yield empty
// text; the caller decides whether that is fatal.
var binaryExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// LoadDocument reads a document and returns its plain text. Recognized but
// unsupported formats (PDF, DOCX) return empty text with no error; unknown
// extensions do the same.
func LoadDocument(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if textExtensions[ext] {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		return string(data), nil
	}

	if binaryExtensions[ext] {
		slog.Debug("no text extractor for format, skipping content", "path", path, "ext", ext)
		return "", nil
	}

	slog.Debug("unsupported document format", "path", path, "ext", ext)
	return "", nil
}

// LoadAndChunk loads a document and splits it into source-tagged chunks.
// The source id is the file's base name. Documents that yield no text
// produce zero chunks.
func LoadAndChunk(path string, chunkSize, overlap int) ([]Chunk, error) {
	text, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []Chunk{}, nil
	}
	return ChunkDocument(text, filepath.Base(path), chunkSize, overlap)
}

// LoadDirectory walks a directory and chunks every supported document.
// When extensions is empty the default document set is used.
func LoadDirectory(dirPath string, extensions []string, chunkSize, overlap int) ([]Chunk, error) {
	if len(extensions) == 0 {
		extensions = []string{".txt", ".md", ".pdf", ".docx"}
	}
	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		wanted[strings.ToLower(ext)] = true
	}

	var chunks []Chunk
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !wanted[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fileChunks, err := LoadAndChunk(path, chunkSize, overlap)
		if err != nil {
			slog.Warn("failed to load document", "path", path, "error", err)
			return nil
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	return chunks, nil
}
