package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/jonwraymond/toolquery/llm"
)

// Separator joins a backend name and a tool name into a qualified name.
const Separator = "_"

// Ref identifies a tool on a specific backend.
type Ref struct {
	Backend string
	Tool    string
}

// QualifiedName returns backend + Separator + tool.
func (r Ref) QualifiedName() string {
	return r.Backend + Separator + r.Tool
}

// Entry is one tool as exposed to the model.
type Entry struct {
	QualifiedName string         `json:"qualified_name"`
	Backend       string         `json:"backend"`
	Tool          string         `json:"tool"`
	Description   string         `json:"description"`
	Parameters    map[string]any `json:"parameters,omitempty"`
}

// Ref returns the (backend, tool) pair of the entry.
func (e Entry) Ref() Ref {
	return Ref{Backend: e.Backend, Tool: e.Tool}
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger zerolog.Logger
}

// WithLogger logs omitted and shadowed tools.
func WithLogger(l zerolog.Logger) Option {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// Catalog is an immutable, flat view of the tools of a set of sessions.
//
// Qualified names are unique. If two sessions produce the same qualified
// name (only possible when backend or tool names contain the separator, or
// two sessions share a name), the later session in iteration order wins and
// the entry keeps the position of the first occurrence.
type Catalog struct {
	entries []Entry
	byName  map[string]int

	searchOnce sync.Once
	index      index.Index
	byRef      map[Ref]int
	indexErr   error
}

var upper = cases.Upper(language.Und)

// Build projects the Connected sessions into a catalog. Tools absent from
// table are omitted even when the backend advertises them. A nil table means
// DefaultTable.
func Build(sessions []backend.Session, table Table, opts ...Option) *Catalog {
	o := buildOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if table == nil {
		table = DefaultTable()
	}

	c := &Catalog{byName: make(map[string]int)}
	for _, s := range sessions {
		if s == nil || s.State() != backend.StateConnected {
			continue
		}
		name := s.Name()
		for _, tool := range s.Tools() {
			if tool == nil {
				continue
			}
			desc, ok := table[tool.Name]
			if !ok {
				o.logger.Debug().Str("backend", name).Str("tool", tool.Name).Msg("tool not in description table, omitted")
				continue
			}
			params := desc.Parameters
			if params == nil {
				params = schemaMap(tool)
			}
			e := Entry{
				QualifiedName: name + Separator + tool.Name,
				Backend:       name,
				Tool:          tool.Name,
				Description:   fmt.Sprintf("[%s] %s", upper.String(name), desc.Text),
				Parameters:    params,
			}
			if i, dup := c.byName[e.QualifiedName]; dup {
				o.logger.Warn().
					Str("tool", e.QualifiedName).
					Str("backend", name).
					Str("shadowed", c.entries[i].Backend).
					Msg("duplicate qualified name, later backend wins")
				c.entries[i] = e
				continue
			}
			c.byName[e.QualifiedName] = len(c.entries)
			c.entries = append(c.entries, e)
		}
	}
	return c
}

// schemaMap converts the schema advertised by a backend into a JSON object.
func schemaMap(tool *mcp.Tool) map[string]any {
	switch s := tool.InputSchema.(type) {
	case map[string]any:
		return s
	case nil:
	default:
		raw, err := json.Marshal(s)
		if err == nil {
			var m map[string]any
			if json.Unmarshal(raw, &m) == nil && m != nil {
				return m
			}
		}
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the entries in build order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns the qualified names, sorted.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.QualifiedName)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves a qualified name to the (backend, tool) pair recorded at
// build time.
func (c *Catalog) Lookup(qualified string) (Ref, bool) {
	if c == nil {
		return Ref{}, false
	}
	i, ok := c.byName[qualified]
	if !ok {
		return Ref{}, false
	}
	return c.entries[i].Ref(), true
}

// Entry returns the entry for a qualified name.
func (c *Catalog) Entry(qualified string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.byName[qualified]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Functions projects the catalog onto the model's function-calling interface.
func (c *Catalog) Functions() []llm.Tool {
	if c == nil {
		return nil
	}
	out := make([]llm.Tool, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, llm.Tool{
			Name:        e.QualifiedName,
			Description: e.Description,
			Parameters:  e.Parameters,
		})
	}
	return out
}

type functionJSON struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// MarshalJSON renders the catalog as a list of function tool objects.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	out := make([]functionJSON, 0, c.Len())
	for _, t := range c.Functions() {
		out = append(out, functionJSON{
			Type:     "function",
			Function: functionSpec{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	return json.Marshal(out)
}

// Search returns up to limit entries ranked by BM25 relevance to query.
// The index is built on first use.
func (c *Catalog) Search(query string, limit int) ([]Entry, error) {
	if c.Len() == 0 {
		return nil, nil
	}
	c.searchOnce.Do(c.buildIndex)
	if c.indexErr != nil {
		return nil, c.indexErr
	}

	summaries, err := c.index.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search %q: %w", query, err)
	}
	out := make([]Entry, 0, len(summaries))
	for _, s := range summaries {
		if i, ok := c.byRef[Ref{Backend: s.Namespace, Tool: s.Name}]; ok {
			out = append(out, c.entries[i])
		}
	}
	return out, nil
}

func (c *Catalog) buildIndex() {
	idx := index.NewInMemoryIndex(index.IndexOptions{
		Searcher: search.NewBM25Searcher(search.BM25Config{}),
	})
	byRef := make(map[Ref]int, len(c.entries))
	for i, e := range c.entries {
		tool := model.Tool{
			Tool: mcp.Tool{
				Name:        e.Tool,
				Description: e.Description,
				InputSchema: e.Parameters,
			},
			Namespace: e.Backend,
			Tags:      model.NormalizeTags([]string{e.Backend, e.Tool}),
		}
		if err := idx.RegisterTool(tool, model.NewLocalBackend(e.Backend)); err != nil {
			c.indexErr = fmt.Errorf("catalog: index %s: %w", e.QualifiedName, err)
			return
		}
		byRef[e.Ref()] = i
	}
	c.index = idx
	c.byRef = byRef
}
