// SPDX-License-Identifier: MPL-2.0

package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"

	"autodoc-cli/internal/issue"
	"autodoc-cli/internal/llm"
)

// DefaultType is used when no documentation type is configured.
const DefaultType = "technical"

//go:embed prompts.toml
var embeddedCatalog []byte

// ErrUnknownType is returned when a documentation type is not in the catalog.
var ErrUnknownType = errors.New("unknown documentation type")

type (
	// Type is one documentation type as written in the catalog file.
	Type struct {
		Description string `toml:"description"`
		System      string `toml:"system"`
		User        string `toml:"user"`
	}

	catalogFile struct {
		Types map[string]Type `toml:"types"`
	}

	// Catalog holds the parsed documentation types and their templates.
	Catalog struct {
		types     map[string]Type
		templates map[string]*template.Template
	}

	// Input is the data a user template is executed with.
	Input struct {
		Path     string
		Language string
		DocType  string
		Content  string
	}
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Load("")
}

// Load parses the embedded catalog and, when overridePath is set, merges the
// types defined in that file on top. An override type with the same name
// replaces the embedded one.
func Load(overridePath string) (*Catalog, error) {
	c := &Catalog{types: map[string]Type{}, templates: map[string]*template.Template{}}
	if err := c.merge(embeddedCatalog, "prompts.toml"); err != nil {
		return nil, err
	}
	if overridePath == "" {
		return c, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}
	if err := c.merge(data, overridePath); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) merge(data []byte, name string) error {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}

	for typeName, t := range f.Types {
		if strings.TrimSpace(t.User) == "" {
			return fmt.Errorf("%s: type %q has no user template", name, typeName)
		}
		tmpl, err := template.New(typeName).Option("missingkey=error").Parse(t.User)
		if err != nil {
			return fmt.Errorf("%s: type %q: %w", name, typeName, err)
		}
		c.types[typeName] = t
		c.templates[typeName] = tmpl
	}
	return nil
}

// Types returns the available documentation type names, sorted.
func (c *Catalog) Types() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the type named name.
func (c *Catalog) Lookup(name string) (Type, bool) {
	t, ok := c.types[name]
	return t, ok
}

// Check reports an actionable error when docType is not in the catalog.
func (c *Catalog) Check(docType string) error {
	if _, ok := c.types[docType]; ok {
		return nil
	}
	return issue.NewErrorContext().
		WithOperation("select documentation type").
		WithResource(docType).
		WithSuggestion("Use one of: " + strings.Join(c.Types(), ", ")).
		WithSuggestion("Run 'autodoc types' to see descriptions").
		WithIssue(issue.UnknownDocTypeId).
		Wrap(fmt.Errorf("%w %q", ErrUnknownType, docType)).
		BuildError()
}

// Build returns the system and user messages for one source file.
func (c *Catalog) Build(docType, relPath, language, content string) ([]llm.Message, error) {
	if err := c.Check(docType); err != nil {
		return nil, err
	}

	var b strings.Builder
	in := Input{Path: relPath, Language: language, DocType: docType, Content: content}
	if err := c.templates[docType].Execute(&b, in); err != nil {
		return nil, fmt.Errorf("rendering %s prompt for %s: %w", docType, relPath, err)
	}

	msgs := make([]llm.Message, 0, 2)
	if system := strings.TrimSpace(c.types[docType].System); system != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: strings.TrimSpace(b.String())})
	return msgs, nil
}

var languages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".cs":    "csharp",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".kt":    "kotlin",
	".swift": "swift",
	".php":   "php",
	".sh":    "bash",
	".sql":   "sql",
	".cue":   "cue",
}

// Language returns the code-fence language for a slash-separated path, or
// "text" when the extension is unknown.
func Language(relPath string) string {
	if lang, ok := languages[strings.ToLower(path.Ext(relPath))]; ok {
		return lang
	}
	return "text"
}
