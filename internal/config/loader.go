package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source records where a config value came from.
type Source struct {
	Kind   SourceKind
	Name   string // for defaults
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> last writer source (file only)
	Files   []string          // all loaded files, in load order
}

// DefaultConfigPath is $XDG_CONFIG_HOME/tabtile/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tabtile", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tabtile", "config.yaml"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load, keeping the per-key sources for explain.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and every file it includes. A missing path yields
// the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	var top layer
	if _, err := os.Stat(path); err == nil {
		l := &loader{seen: make(map[string]bool)}
		if top, err = l.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(top.raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, withSource(err, top.sources)
	}

	sources := top.sources
	if sources == nil {
		sources = map[string]Source{}
	}
	return &LoadResult{Config: cfg, Sources: sources, Files: top.files}, nil
}

// layer is the merged result of one file and everything it includes.
type layer struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

// over merges upper on top of l.
func (l layer) over(upper layer) layer {
	out := layer{
		raw:     l.raw.merge(upper.raw),
		sources: make(map[string]Source, len(l.sources)+len(upper.sources)),
		files:   append(slices.Clip(l.files), upper.files...),
	}
	for k, v := range l.sources {
		out.sources[k] = v
	}
	for k, v := range upper.sources {
		out.sources[k] = v
	}
	return out
}

type loader struct {
	seen  map[string]bool
	stack []string
}

// load reads path, merges its includes in order and applies the file itself
// last so its own keys win.
func (l *loader) load(path string) (layer, error) {
	canon := canonicalPath(path)
	if slices.Contains(l.stack, canon) {
		return layer{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.stack, " -> "), canon)
	}
	if l.seen[canon] {
		// Already merged through another include.
		return layer{}, nil
	}
	l.seen[canon] = true

	data, err := os.ReadFile(canon)
	if err != nil {
		return layer{}, fmt.Errorf("%s: failed to read: %w", canon, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, fmt.Errorf("%s: failed to parse yaml: %w", canon, err)
	}
	var raw RawConfig
	if err := decodeStrict(data, &raw); err != nil {
		return layer{}, fmt.Errorf("%s: %w", canon, err)
	}
	sources, includes := scan(&doc, canon)

	l.stack = append(l.stack, canon)
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()

	var merged layer
	for _, inc := range includes {
		paths, err := expandInclude(canon, inc.value)
		if err != nil {
			return layer{}, fmt.Errorf("%s:%d:%d: include %q: %w", canon, inc.src.Line, inc.src.Column, inc.value, err)
		}
		for _, p := range paths {
			sub, err := l.load(p)
			if err != nil {
				return layer{}, err
			}
			merged = merged.over(sub)
		}
	}
	return merged.over(layer{raw: raw, sources: sources, files: []string{canon}}), nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// canonicalPath resolves symlinks when it can, so one file reached by two
// names is only loaded once.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// expandInclude resolves an include entry relative to the including file. A
// directory expands to its *.yaml and *.yml files, a glob to its matches;
// both in lexical order.
func expandInclude(baseFile, include string) ([]string, error) {
	path, err := resolveInclude(baseFile, include)
	if err != nil {
		return nil, err
	}

	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, err
		}
		slices.Sort(matches)
		return matches, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(path, ent.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

func resolveInclude(baseFile, include string) (string, error) {
	switch {
	case include == "":
		return "", fmt.Errorf("path is empty")
	case include == "~" || strings.HasPrefix(include, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		include = filepath.Join(home, strings.TrimPrefix(include[1:], "/"))
	}
	if filepath.IsAbs(include) {
		return include, nil
	}
	return filepath.Join(filepath.Dir(baseFile), include), nil
}

type includeRef struct {
	value string
	src   Source
}

// scan walks a parsed document once, recording the position of every key's
// value and the entries of the top-level include key.
func scan(doc *yaml.Node, file string) (map[string]Source, []includeRef) {
	sources := make(map[string]Source)
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	at := func(n *yaml.Node) Source {
		return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
	}

	var walk func(n *yaml.Node, prefix string)
	walk = func(n *yaml.Node, prefix string) {
		if n.Kind != yaml.MappingNode {
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, n.Content[i+1]
			if prefix != "" {
				key = prefix + "." + key
			}
			sources[key] = at(val)
			walk(val, key)
		}
	}
	walk(root, "")

	var refs []includeRef
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value != "include" {
				continue
			}
			val := root.Content[i+1]
			items := []*yaml.Node{val}
			if val.Kind == yaml.SequenceNode {
				items = val.Content
			}
			for _, item := range items {
				if item.Kind == yaml.ScalarNode {
					refs = append(refs, includeRef{value: item.Value, src: at(item)})
				}
			}
		}
	}
	return sources, refs
}

// withSource points a validation error at the file position that set the
// offending key.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return err
}
