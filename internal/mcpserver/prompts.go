package mcpserver

import (
	"context"
	"embed"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFS embed.FS

// promptFile is one embedded workflow prompt: a markdown body with a YAML
// frontmatter description. The prompt name is the filename stem.
type promptFile struct {
	Name        string
	Description string
	Body        string
}

// loadPrompts reads every embedded prompt, sorted by name so registration
// order is stable.
func loadPrompts() []promptFile {
	entries, err := promptFS.ReadDir("prompts")
	if err != nil {
		return nil
	}

	var prompts []promptFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		raw, err := promptFS.ReadFile("prompts/" + entry.Name())
		if err != nil {
			continue
		}
		p := splitFrontmatter(string(raw))
		p.Name = strings.TrimSuffix(entry.Name(), ".md")
		prompts = append(prompts, p)
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Name < prompts[j].Name })
	return prompts
}

// splitFrontmatter separates the YAML header from the prompt body. Files
// without a well-formed header become a prompt with an empty description.
func splitFrontmatter(raw string) promptFile {
	rest, ok := strings.CutPrefix(raw, "---\n")
	if !ok {
		return promptFile{Body: raw}
	}
	header, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		return promptFile{Body: raw}
	}

	var meta struct {
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return promptFile{Body: raw}
	}
	return promptFile{
		Description: meta.Description,
		Body:        strings.TrimPrefix(body, "\n"),
	}
}

func (s *Server) registerPrompts() {
	for _, p := range loadPrompts() {
		s.server.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Description: p.Description,
		}, p.handler())
	}
}

func (p promptFile) handler() mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{
				{Role: "user", Content: &mcp.TextContent{Text: p.Body}},
			},
		}, nil
	}
}
