package catalog

// Description is how the orchestrator describes one backend tool to the model.
type Description struct {
	// Text is the model-facing description, before the backend prefix.
	Text string

	// Parameters is the JSON schema object for the arguments.
	// If nil, the schema advertised by the backend is used.
	Parameters map[string]any
}

// Table maps a backend tool name to its description. Only tools present in
// the table are advertised to the model.
type Table map[string]Description

// Clone returns a copy of t that can be modified independently.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// DefaultTable returns the descriptions for the tools served by the docs and
// search servers.
func DefaultTable() Table {
	return Table{
		"read_pdf_from_drive": {
			Text: "Read PDF content from Google Drive. Use this when the user wants to read or extract text from a PDF file stored in Google Drive.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"file_id": map[string]any{"type": "string", "description": "Google Drive file ID"},
				},
			},
		},
		"web_search": {
			Text: "Search the web for information, news, trends, or general knowledge. Use this when the user wants to find information from the internet.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Search query"},
					"search_type": map[string]any{
						"type":        "string",
						"description": "Type of search",
						"enum":        []any{"general", "trends", "regulatory", "benchmarks"},
					},
				},
				"required": []any{"query"},
			},
		},
		"list_documents": {
			Text: "List the documents available in Google Drive with their ids. Use this to find the file id of a document before reading it.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}
