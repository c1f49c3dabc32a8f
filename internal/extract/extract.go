package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/encoding/charmap"
)

// Supported media types.
const (
	MediaTypePlain    = "text/plain"
	MediaTypeMarkdown = "text/markdown"
	MediaTypePDF      = "application/pdf"
)

var (
	// ErrUnsupportedMediaType is returned for media types without an extractor.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrExtractionFailed is returned when a supported file cannot be decoded.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// Extractor turns raw file bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

// FileExtractor dispatches on the media type of the upload.
// It implements the Extractor interface.
type FileExtractor struct {
	markdown goldmark.Markdown
}

// NewFileExtractor creates a new FileExtractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// SupportedMediaTypes lists the media types Extract accepts.
func SupportedMediaTypes() []string {
	return []string{MediaTypePlain, MediaTypeMarkdown, MediaTypePDF}
}

// IsSupported reports whether contentType can be extracted.
func IsSupported(contentType string) bool {
	switch NormalizeMediaType(contentType) {
	case MediaTypePlain, MediaTypeMarkdown, MediaTypePDF:
		return true
	}
	return false
}

// NormalizeMediaType strips parameters such as charset and lowercases the type.
func NormalizeMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// MediaTypeForFilename infers a supported media type from a file extension.
// It returns "" for unknown extensions.
func MediaTypeForFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return MediaTypePlain
	case ".md", ".markdown":
		return MediaTypeMarkdown
	case ".pdf":
		return MediaTypePDF
	}
	return ""
}

// Extract returns the whitespace-trimmed text of data.
func (e *FileExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch NormalizeMediaType(contentType) {
	case MediaTypePlain:
		return decodeText(data)
	case MediaTypeMarkdown:
		source, err := decodeText(data)
		if err != nil {
			return "", err
		}
		return e.markdownText([]byte(source)), nil
	case MediaTypePDF:
		return pdfText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}
}

// decodeText reads UTF-8, falling back to ISO-8859-1 for anything else.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return strings.TrimSpace(string(data)), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return strings.TrimSpace(string(decoded)), nil
}

// markdownText flattens the markdown AST into plain text, one block per line
// and a blank line after paragraphs and headings.
func (e *FileExtractor) markdownText(source []byte) string {
	doc := e.markdown.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() != ast.TypeBlock || n.Kind() == ast.KindDocument || n.Kind() == east.KindTableCell {
				return ast.WalkContinue, nil
			}
			newline()
			switch n.(type) {
			case *ast.Paragraph, *ast.Heading, *ast.CodeBlock, *ast.FencedCodeBlock:
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n\n") {
					b.WriteByte('\n')
				}
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.URL(source))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(source))
			}
			return ast.WalkSkipChildren, nil
		case *east.TableCell:
			if n.PreviousSibling() != nil {
				b.WriteString(" | ")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// pdfText concatenates the plain text of every page, one page per line.
func pdfText(data []byte) (out string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("%w: malformed pdf: %v", ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrExtractionFailed, i, err)
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}

	return strings.TrimSpace(b.String()), nil
}
