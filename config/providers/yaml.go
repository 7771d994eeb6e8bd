package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/AminuIsrael/seldon-core/pkg/secret"
	"gopkg.in/yaml.v3"
)

// YAMLProvider decodes a YAML document, or one of its top-level sections,
// into a configuration struct. Scalars holding secret references are
// replaced by the resolved values before decoding.
type YAMLProvider struct {
	filename string
	content  []byte
	section  string
	manager  *secret.SecretManager
}

func NewYAMLProvider(filename string, content []byte) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
		content:  content,
	}
}

func (p *YAMLProvider) WithManager(manager *secret.SecretManager) *YAMLProvider {
	p.manager = manager
	return p
}

// WithSection restricts decoding to the value of a top-level key.
func (p *YAMLProvider) WithSection(section string) *YAMLProvider {
	p.section = section
	return p
}

func (p *YAMLProvider) document() (*yaml.Node, error) {
	content := p.content
	if p.filename != "" {
		b, err := os.ReadFile(p.filename)
		if err != nil {
			return nil, err
		}
		content = b
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

func section(root *yaml.Node, key string) *yaml.Node {
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1]
		}
	}
	return nil
}

func (p *YAMLProvider) Load(cfg any) error {
	if p.filename == "" && p.content == nil {
		return nil
	}
	node, err := p.document()
	if err != nil || node == nil {
		return err
	}
	if p.section != "" {
		if node = section(node, p.section); node == nil {
			return nil
		}
	}
	if p.manager != nil {
		if err := p.resolve(context.Background(), node); err != nil {
			return err
		}
	}
	return node.Decode(cfg)
}

// resolve replaces secret references in scalar values. Mapping keys are left
// untouched.
func (p *YAMLProvider) resolve(ctx context.Context, n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		value, err := p.manager.Resolve(ctx, n.Value)
		if err != nil {
			return err
		}
		if value != n.Value {
			setScalar(n, value)
		}
		return nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil
		}
		return p.resolve(ctx, n.Alias)
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			if err := p.resolve(ctx, n.Content[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range n.Content {
		if err := p.resolve(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// setScalar stores a resolved value keeping its YAML type, so a secret
// holding "6379" still decodes into an int field.
func setScalar(n *yaml.Node, value string) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value), &doc); err == nil && len(doc.Content) > 0 && doc.Content[0].Kind == yaml.ScalarNode {
		n.Tag, n.Style, n.Value = doc.Content[0].Tag, doc.Content[0].Style, doc.Content[0].Value
		return
	}
	n.Tag, n.Style, n.Value = "!!str", 0, value
}
