package document

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extract turns raw document bytes into plain text based on the file extension.
// PDF and Markdown are converted; everything else is read as UTF-8 text.
func Extract(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	case ".md", ".markdown":
		return extractMarkdown(data), nil
	default:
		return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
	}
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// extractMarkdown drops markup and keeps block structure as blank-line separated paragraphs.
func extractMarkdown(data []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(data))

	var buf strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch node := n.(type) {
			case *ast.Text:
				buf.Write(node.Segment.Value(data))
				if node.HardLineBreak() {
					buf.WriteString("\n")
				} else if node.SoftLineBreak() {
					buf.WriteString(" ")
				}
			case *ast.String:
				buf.Write(node.Value)
			case *ast.CodeBlock, *ast.FencedCodeBlock:
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(data))
				}
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		}

		switch n.(type) {
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock, *ast.CodeBlock, *ast.FencedCodeBlock:
			buf.WriteString("\n\n")
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankLines(buf.String())
}

func collapseBlankLines(s string) string {
	parts := strings.Split(s, "\n\n")
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
