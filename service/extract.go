package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/Vishnulak/PRELEX-GENAI/model"
	"github.com/Vishnulak/PRELEX-GENAI/pkg/logger"
)

// Accepted upload types
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
)

var supportedTypes = []struct {
	mime string
	ext  string
}{
	{MimePDF, ".pdf"},
	{MimeDOCX, ".docx"},
	{MimeDOC, ".doc"},
}

// ErrUnsupportedType is returned for uploads that are not PDF or Word files.
var ErrUnsupportedType = errors.New("unsupported file type")

// errEntryTooLarge rejects archive members that inflate past maxZipEntryBytes.
var errEntryTooLarge = errors.New("archive entry too large")

// maxZipEntryBytes caps the decompressed size of any single archive member.
var maxZipEntryBytes int64 = 32 << 20

// ExtractionError means a supported document yielded no usable text.
type ExtractionError struct {
	MimeType string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s: %v", e.MimeType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SupportedTypeNames lists accepted types by short name.
func SupportedTypeNames() []string {
	names := make([]string, len(supportedTypes))
	for i, t := range supportedTypes {
		names[i] = strings.TrimPrefix(t.ext, ".")
	}
	return names
}

// DetectMIME sniffs data and falls back to the filename extension when the
// content alone is not conclusive.
func DetectMIME(data []byte, filename string) (string, error) {
	detected := mimetype.Detect(data)
	for _, t := range supportedTypes {
		if detected.Is(t.mime) {
			return t.mime, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, t := range supportedTypes {
		if ext == t.ext {
			return t.mime, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, filename, detected.String())
}

// Upload is a document received for analysis.
type Upload struct {
	ID        string
	Tenant    string
	Filename  string
	MimeType  string
	Data      []byte
	SourceURL string // set when the original is archived and reachable remotely
}

// TextExtractor turns an upload into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, up *Upload) (string, error)
}

// DocumentExtractor tries an optional remote extractor first and falls back
// to local parsing. Output is capped at maxChars runes.
type DocumentExtractor struct {
	remote        TextExtractor
	remoteTimeout time.Duration
	local         TextExtractor
	maxChars      int
}

// NewDocumentExtractor builds an extractor. remote may be nil. A positive
// remoteTimeout bounds each remote attempt independently of the caller's ctx.
func NewDocumentExtractor(remote TextExtractor, remoteTimeout time.Duration, maxChars int) *DocumentExtractor {
	return &DocumentExtractor{
		remote:        remote,
		remoteTimeout: remoteTimeout,
		local:         LocalExtractor{},
		maxChars:      maxChars,
	}
}

// Extract returns the document text and the method that produced it.
func (e *DocumentExtractor) Extract(ctx context.Context, up *Upload) (string, string, error) {
	if e.remote != nil {
		text, err := e.extractRemote(ctx, up)
		if err == nil && strings.TrimSpace(text) != "" {
			return e.limit(text), model.MethodMineru, nil
		}
		// Only the caller's own cancellation is fatal; an expired remote budget
		// falls through to local parsing.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		if err == nil {
			err = errors.New("empty result")
		}
		logger.Warn(ctx, "remote extraction failed, using local parser", "error", err)
	}

	text, err := e.local.ExtractText(ctx, up)
	if err != nil {
		return "", "", err
	}
	return e.limit(text), model.MethodLocal, nil
}

func (e *DocumentExtractor) extractRemote(ctx context.Context, up *Upload) (string, error) {
	if e.remoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.remoteTimeout)
		defer cancel()
	}
	return e.remote.ExtractText(ctx, up)
}

func (e *DocumentExtractor) limit(text string) string {
	text = strings.TrimSpace(text)
	if e.maxChars > 0 && utf8.RuneCountInString(text) > e.maxChars {
		text = string([]rune(text)[:e.maxChars])
	}
	return text
}

// LocalExtractor parses PDF and DOCX files in process.
type LocalExtractor struct{}

func (LocalExtractor) ExtractText(_ context.Context, up *Upload) (string, error) {
	var (
		text string
		err  error
	)
	switch up.MimeType {
	case MimePDF:
		text, err = pdfText(up.Data)
	case MimeDOCX:
		text, err = docxText(up.Data)
	case MimeDOC:
		err = errors.New("legacy .doc files need the remote extractor")
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, up.MimeType)
	}
	if err != nil {
		return "", &ExtractionError{MimeType: up.MimeType, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{MimeType: up.MimeType, Err: errors.New("no text could be extracted from the document")}
	}
	return strings.TrimSpace(text), nil
}

func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, perr := page.GetPlainText(nil)
		if perr != nil {
			fmt.Fprintf(&b, "\n--- Page %d (extraction failed) ---\n", i)
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", i, content)
	}
	return b.String(), nil
}

// docxText reads word/document.xml and emits one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := openZipEntry(f)
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return wordprocessingText(rc)
	}
	return "", errors.New("word/document.xml not found")
}

// openZipEntry opens f with its output capped at maxZipEntryBytes. The header
// size is checked first; the cap covers members whose header understates it.
func openZipEntry(f *zip.File) (io.ReadCloser, error) {
	if f.UncompressedSize64 > uint64(maxZipEntryBytes) {
		return nil, fmt.Errorf("%s: %w (%d bytes)", f.Name, errEntryTooLarge, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	return &limitedEntry{
		Reader: io.LimitReader(rc, maxZipEntryBytes+1),
		Closer: rc,
		name:   f.Name,
	}, nil
}

type limitedEntry struct {
	io.Reader
	io.Closer
	name string
	read int64
}

func (l *limitedEntry) Read(p []byte) (int, error) {
	n, err := l.Reader.Read(p)
	l.read += int64(n)
	if l.read > maxZipEntryBytes {
		return 0, fmt.Errorf("%s: %w", l.name, errEntryTooLarge)
	}
	return n, err
}

func wordprocessingText(r io.Reader) (string, error) {
	var (
		b      strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}
