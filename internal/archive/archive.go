// Package archive serializes cached narration audio into a single portable
// zip for bulk transfer, and imports such a zip back into the audio cache.
//
// Each audio entry is named "<text with spaces replaced by underscores>.mp3".
// Because that substitution is not reversible for text that itself contains
// an underscore, the exporter also writes a manifest entry mapping filenames
// back to their exact original text. The importer prefers the manifest and
// falls back to underscore reversal for archives produced without one.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/book-expert/logger"
	"github.com/klauspost/compress/zip"
	"github.com/namecast/namecast/internal/core"
)

// AudioExt is the extension carried by every audio entry in the archive.
const AudioExt = ".mp3"

const (
	manifestName = "manifest.json"
	spaceFiller  = "_"
)

// ErrArchive indicates that an uploaded archive cannot be opened or parsed at
// all. It aborts the entire import before any per-entry attempt.
var ErrArchive = errors.New("archive cannot be parsed")

// Entry is one named audio payload inside an archive.
type Entry struct {
	Text    string
	Payload []byte
}

// ImportSummary aggregates per-entry outcomes of one import operation.
type ImportSummary struct {
	Processed int `json:"processed"`
	Saved     int `json:"saved"`
	Errored   int `json:"errored"`
}

// EntryName converts a permutation text into its archive filename.
func EntryName(text string) string {
	return strings.ReplaceAll(text, " ", spaceFiller) + AudioExt
}

// TextFromEntryName reverses EntryName for archives without a manifest. The
// result is exact for any text containing only whitespace-separated words.
func TextFromEntryName(name string) string {
	base := strings.TrimSuffix(name, AudioExt)

	return strings.ReplaceAll(base, spaceFiller, " ")
}

// Export builds a zip archive holding one audio entry per generated item plus
// the filename manifest. The caller is responsible for excluding items that
// never reached the generated state.
func Export(entries []Entry) ([]byte, error) {
	var buffer bytes.Buffer

	zipWriter := zip.NewWriter(&buffer)
	manifest := make(map[string]string, len(entries))

	for _, entry := range entries {
		name := EntryName(entry.Text)
		manifest[name] = entry.Text

		entryWriter, err := zipWriter.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %q: %w", name, err)
		}

		_, err = entryWriter.Write(entry.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to write archive entry %q: %w", name, err)
		}
	}

	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive manifest: %w", err)
	}

	manifestWriter, err := zipWriter.Create(manifestName)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive manifest entry: %w", err)
	}

	_, err = manifestWriter.Write(manifestData)
	if err != nil {
		return nil, fmt.Errorf("failed to write archive manifest: %w", err)
	}

	err = zipWriter.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buffer.Bytes(), nil
}

// Import writes every audio entry of the archive into the store. A zip that
// cannot be opened fails the whole import with ErrArchive before any entry is
// touched; individual entry failures are counted and do not stop the rest.
func Import(ctx context.Context, data []byte, store core.AudioStore, log *logger.Logger) (ImportSummary, error) {
	summary := ImportSummary{Processed: 0, Saved: 0, Errored: 0}

	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrArchive, err)
	}

	manifest := readManifest(zipReader, log)

	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() || !strings.HasSuffix(file.Name, AudioExt) {
			continue
		}

		summary.Processed++

		text := manifest[file.Name]
		if text == "" {
			text = TextFromEntryName(file.Name)
		}

		payload, readErr := readEntry(file)
		if readErr != nil {
			summary.Errored++

			log.Error("Failed to read archive entry %q: %v", file.Name, readErr)

			continue
		}

		putErr := store.Put(ctx, text, payload)
		if putErr != nil {
			summary.Errored++

			log.Error("Failed to save imported audio for %q: %v", text, putErr)

			continue
		}

		summary.Saved++
	}

	log.Info("Archive import finished: %d processed, %d saved, %d errored",
		summary.Processed, summary.Saved, summary.Errored)

	return summary, nil
}

// readManifest loads the filename-to-text manifest when present. Archives
// produced by other tools simply lack it; that is not an error.
func readManifest(zipReader *zip.Reader, log *logger.Logger) map[string]string {
	for _, file := range zipReader.File {
		if file.Name != manifestName {
			continue
		}

		payload, err := readEntry(file)
		if err != nil {
			log.Warn("Failed to read archive manifest: %v", err)

			return nil
		}

		var manifest map[string]string

		err = json.Unmarshal(payload, &manifest)
		if err != nil {
			log.Warn("Failed to parse archive manifest: %v", err)

			return nil
		}

		return manifest
	}

	return nil
}

func readEntry(file *zip.File) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry: %w", err)
	}

	payload, readErr := io.ReadAll(reader)
	closeErr := reader.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read entry: %w", readErr)
	}

	if closeErr != nil {
		return payload, fmt.Errorf("failed to close entry: %w", closeErr)
	}

	return payload, nil
}
