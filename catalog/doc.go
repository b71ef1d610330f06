// Package catalog merges the tools of connected backend sessions into one
// namespaced catalog for a model's function-calling interface.
//
// Every entry is named {backend}_{tool} and its description is prefixed with
// the upper-cased backend name:
//
//	docs_read_pdf_from_drive   [DOCS] Read PDF content from Google Drive...
//	search_web_search          [SEARCH] Search the web for information...
//
// Only tools present in the description Table are advertised. A backend may
// offer more tools than the catalog exposes; this is a filtering policy, not
// an error.
//
// The catalog also records the (backend, tool) pair behind every qualified
// name, so dispatch does not depend on splitting names that may themselves
// contain the separator.
//
// # Search
//
// Search ranks entries with the BM25 searcher from tooldiscovery. The index is
// built lazily on the first call.
package catalog
