// Package prompt loads and renders the YAML templates that shape
// summarization requests.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"secsum/internal/services"
)

//go:embed summary_prompt.yml
var defaultTemplateYAML []byte

// placeholderPattern matches bare {variable} placeholders. Literal braces
// in JSON examples never match because their first character is a quote.
var placeholderPattern = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// Template is a named prompt with declared input variables. The declared
// variables and the placeholders used in the text must agree exactly.
type Template struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	InputVariables []string `yaml:"input_variables"`
	Text           string   `yaml:"template"`
}

// Load reads and validates a template from path.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "prompt", "load", fmt.Sprintf("reading %s", path), err)
	}
	tmpl, err := parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "prompt", "load", fmt.Sprintf("parsing %s", path), err)
	}
	return tmpl, nil
}

// LoadDefault returns the embedded summarization template.
func LoadDefault() (*Template, error) {
	tmpl, err := parse(defaultTemplateYAML)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "prompt", "load", "parsing embedded template", err)
	}
	return tmpl, nil
}

func parse(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}
	if strings.TrimSpace(tmpl.Text) == "" {
		return nil, fmt.Errorf("template text is empty")
	}

	declared := make(map[string]bool, len(tmpl.InputVariables))
	for _, name := range tmpl.InputVariables {
		declared[name] = true
	}
	used := tmpl.placeholders()
	for _, name := range used {
		if !declared[name] {
			return nil, fmt.Errorf("placeholder {%s} is not declared in input_variables", name)
		}
	}
	usedSet := make(map[string]bool, len(used))
	for _, name := range used {
		usedSet[name] = true
	}
	for _, name := range tmpl.InputVariables {
		if !usedSet[name] {
			return nil, fmt.Errorf("input variable %q does not appear in the template", name)
		}
	}
	return &tmpl, nil
}

// placeholders returns the distinct placeholder names used in the template
// text, sorted.
func (t *Template) placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(t.Text, -1)
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// Render substitutes vars into the template. Only placeholders present in
// the original text are replaced, so variable values containing braces
// pass through untouched. Every placeholder must resolve.
func (t *Template) Render(vars map[string]string) (string, error) {
	missing := make(map[string]bool)
	rendered := placeholderPattern.ReplaceAllStringFunc(t.Text, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		missing[name] = true
		return match
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", services.Wrap(services.ErrValidation, "prompt", "render",
			fmt.Sprintf("unresolved placeholders: %s", strings.Join(names, ", ")), nil)
	}
	return rendered, nil
}
