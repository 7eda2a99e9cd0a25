// Package crochetprotocol reads the audit protocol description.
package crochetprotocol

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/superisaac/crochet"
	yaml "gopkg.in/yaml.v3"
)

const DefaultPath = "docs/protocols/ACCESSIBILITY_AUDIT.yaml"

type TargetStandard struct {
	Name  *string `yaml:"name"`
	Level *string `yaml:"level"`
}

type Metadata struct {
	Name           *string         `yaml:"name"`
	Version        *string         `yaml:"version"`
	TargetStandard *TargetStandard `yaml:"target_standard"`
	LastUpdated    *string         `yaml:"protocol_last_updated"`
}

type Tool struct {
	Name    string `yaml:"name"`
	Purpose string `yaml:"purpose"`
}

// Protocol is the audit protocol. Sections other than the metadata are
// optional and loosely typed in the source.
type Protocol struct {
	Metadata        *Metadata      `yaml:"protocol_metadata"`
	SeverityRubric  map[string]any `yaml:"severity_rubric"`
	RequiredTooling []any          `yaml:"required_tooling"`

	Raw map[string]any `yaml:"-"`
}

type Summary struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Standard    string `json:"standard"`
	LastUpdated string `json:"lastUpdated"`
}

func Load(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read protocol %s", path)
	}
	return Parse(data)
}

func Parse(data []byte) (*Protocol, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "yaml.Unmarshal")
	}
	protocol := &Protocol{Raw: raw}
	if raw == nil {
		return protocol, nil
	}
	if err := crochet.DecodeInterface(raw, protocol); err != nil {
		return nil, errors.Wrap(err, "decode protocol")
	}
	return protocol, nil
}

func Summarize(protocol *Protocol) Summary {
	summary := Summary{
		Name:        "Unknown protocol",
		Version:     "Unknown version",
		Standard:    "Unknown standard",
		LastUpdated: "Unknown date",
	}
	meta := protocol.Metadata
	if meta == nil {
		return summary
	}
	if meta.Name != nil {
		summary.Name = *meta.Name
	}
	if meta.Version != nil {
		summary.Version = *meta.Version
	}
	if meta.LastUpdated != nil {
		summary.LastUpdated = *meta.LastUpdated
	}
	if target := meta.TargetStandard; target != nil && target.Name != nil && *target.Name != "" {
		level := ""
		if target.Level != nil {
			level = *target.Level
		}
		summary.Standard = strings.TrimSpace(*target.Name + " " + level)
	}
	return summary
}

// SeverityLevels returns the rubric's severity names, sorted.
func (protocol *Protocol) SeverityLevels() []string {
	levels := make([]string, 0, len(protocol.SeverityRubric))
	for level := range protocol.SeverityRubric {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// Tools lists the required tooling, entries are either bare names or
// name/purpose mappings.
func (protocol *Protocol) Tools() []Tool {
	tools := make([]Tool, 0, len(protocol.RequiredTooling))
	for _, entry := range protocol.RequiredTooling {
		switch v := entry.(type) {
		case string:
			tools = append(tools, Tool{Name: v})
		case map[string]any:
			var tool Tool
			if err := crochet.DecodeInterface(v, &tool); err == nil && tool.Name != "" {
				tools = append(tools, tool)
			}
		}
	}
	return tools
}
