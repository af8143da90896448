package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DevServerDef is one entry of devServer.servers[], describing a named
// side-process a bead's worktree can run (e.g. "web", "api").
type DevServerDef struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Cwd         string            `yaml:"cwd" json:"cwd"`
	Environment map[string]string `yaml:"environment" json:"environment"`
	ReadyRegex  string            `yaml:"readyRegex" json:"readyRegex"`
}

// devServerSidecar is the shape of .azedarach/devservers.yaml.
type devServerSidecar struct {
	Servers []DevServerDef `yaml:"servers"`
}

// LoadDevServerSidecar reads a YAML sidecar of dev-server definitions,
// supplementing (not replacing) devServer.servers from the JSON config,
// for users who template server definitions across projects.
func LoadDevServerSidecar(path string) ([]DevServerDef, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading dev-server sidecar: %w", err)
	}
	var doc devServerSidecar
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing dev-server sidecar %s: %w", path, err)
	}
	return doc.Servers, nil
}

// DevServerDefs returns the devServer.servers entries from the active
// JSON config, decoding viper's untyped representation through JSON
// rather than mapstructure so yaml/json struct tags stay the single
// source of truth.
func DevServerDefs() []DevServerDef {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v.Get("devServer.servers"))
	if err != nil {
		return nil
	}
	var defs []DevServerDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil
	}
	return defs
}

// MergeDevServerDefs combines the JSON-config-declared defs with sidecar
// defs, with sidecar entries overriding same-named JSON entries.
func MergeDevServerDefs(fromJSON, fromSidecar []DevServerDef) []DevServerDef {
	byName := make(map[string]DevServerDef, len(fromJSON)+len(fromSidecar))
	order := make([]string, 0, len(fromJSON)+len(fromSidecar))
	for _, d := range fromJSON {
		if _, ok := byName[d.Name]; !ok {
			order = append(order, d.Name)
		}
		byName[d.Name] = d
	}
	for _, d := range fromSidecar {
		if _, ok := byName[d.Name]; !ok {
			order = append(order, d.Name)
		}
		byName[d.Name] = d
	}
	out := make([]DevServerDef, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}
