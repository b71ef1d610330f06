// Package docs implements the document tool server: listing Google Drive
// files and reading the text of PDFs stored there.
package docs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/jonwraymond/toolquery/server"
)

// Server identity advertised during the MCP handshake.
const (
	Name    = "google-docs-reader"
	Version = "v0.1.0"
)

// DefaultMaxPDFBytes caps a downloaded PDF.
const DefaultMaxPDFBytes = 32 << 20

// Document is one Drive file.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink,omitempty"`
}

// Drive is the subset of Google Drive the server needs.
type Drive interface {
	List(ctx context.Context) ([]Document, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Extractor returns the plain text of a PDF.
type Extractor func(r io.ReaderAt, size int64) (string, error)

// Options configures the server.
type Options struct {
	// Drive serves the files.
	// Required.
	Drive Drive

	// Extract converts PDF bytes to text.
	// Default: ExtractText
	Extract Extractor

	// MaxPDFBytes caps a downloaded PDF.
	// Default: DefaultMaxPDFBytes
	MaxPDFBytes int64

	// Logger receives server logs.
	// Default: zerolog.Nop()
	Logger *zerolog.Logger
}

// ReadInput is the argument object of read_pdf_from_drive.
type ReadInput struct {
	FileID string `json:"file_id" jsonschema:"the ID of the PDF file on Google Drive"`
}

// ReadOutput is the result object of read_pdf_from_drive.
type ReadOutput struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListOutput is the result object of list_documents.
type ListOutput struct {
	Success   bool       `json:"success"`
	Documents []Document `json:"documents"`
	Error     string     `json:"error,omitempty"`
}

type handlers struct {
	drive   Drive
	extract Extractor
	maxSize int64
	log     zerolog.Logger
}

// NewServer returns an MCP server exposing list_documents and
// read_pdf_from_drive.
func NewServer(opts Options) (*mcp.Server, error) {
	if opts.Drive == nil {
		return nil, fmt.Errorf("docs: Drive is required")
	}
	h := &handlers{drive: opts.Drive, extract: opts.Extract, maxSize: opts.MaxPDFBytes, log: zerolog.Nop()}
	if h.extract == nil {
		h.extract = ExtractText
	}
	if h.maxSize <= 0 {
		h.maxSize = DefaultMaxPDFBytes
	}
	if opts.Logger != nil {
		h.log = *opts.Logger
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents available on Google Drive.",
	}, h.list)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "read_pdf_from_drive",
		Description: "Download a PDF from Google Drive and return its text content.",
	}, h.read)
	return srv, nil
}

func (h *handlers) list(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	docs, err := h.drive.List(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("list documents failed")
		return server.JSON(ListOutput{Error: err.Error()})
	}
	if docs == nil {
		docs = []Document{}
	}
	return server.JSON(ListOutput{Success: true, Documents: docs})
}

func (h *handlers) read(ctx context.Context, _ *mcp.CallToolRequest, in ReadInput) (*mcp.CallToolResult, any, error) {
	text, err := h.readPDF(ctx, strings.TrimSpace(in.FileID))
	if err != nil {
		h.log.Warn().Err(err).Str("file_id", in.FileID).Msg("read pdf failed")
		return server.JSON(ReadOutput{Error: err.Error()})
	}
	return server.JSON(ReadOutput{Success: true, Text: text})
}

func (h *handlers) readPDF(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("file_id is required")
	}
	body, err := h.drive.Download(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", fileID, err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, h.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("download %s: %w", fileID, err)
	}
	if int64(len(data)) > h.maxSize {
		return "", fmt.Errorf("file %s exceeds %d bytes", fileID, h.maxSize)
	}
	return h.extract(bytes.NewReader(data), int64(len(data)))
}

// ExtractText returns the plain text of every page of a PDF.
func ExtractText(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed documents.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("parse pdf: %v", p)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return buf.String(), nil
}

// GoogleDrive reads files through the Drive v3 API.
type GoogleDrive struct {
	svc *drive.Service
}

// NewGoogleDrive creates a Drive client with read-only scope. opts typically
// carry option.WithCredentialsFile or option.WithAPIKey; with none,
// Application Default Credentials are used.
func NewGoogleDrive(ctx context.Context, opts ...option.ClientOption) (*GoogleDrive, error) {
	opts = append([]option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &GoogleDrive{svc: svc}, nil
}

// List implements Drive.
func (g *GoogleDrive) List(ctx context.Context) ([]Document, error) {
	res, err := g.svc.Files.List().Fields("files(id, name, mimeType, webViewLink)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	out := make([]Document, 0, len(res.Files))
	for _, f := range res.Files {
		out = append(out, Document{ID: f.Id, Name: f.Name, MimeType: f.MimeType, WebViewLink: f.WebViewLink})
	}
	return out, nil
}

// Download implements Drive.
func (g *GoogleDrive) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := g.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
