// Package manifest describes page views in YAML and compiles them into
// core templates.
//
// A manifest lists views by name. Each view declares its children in order;
// a child is a widget (kind + args), a nested view, an include, a switch or
// a version pick:
//
//	views:
//	  - name: Login
//	    root: "#login"
//	    children:
//	      - name: mode
//	        kind: select
//	        args: {locator: "#mode"}
//	      - include: Credentials
//	      - name: submit
//	        versions:
//	          - since: lowest
//	            kind: button
//	            args: {locator: "#go"}
//	          - since: "2.0.0"
//	            kind: button
//	            args: {locator: "button[type=submit]"}
//
// String arguments containing "{" are patterns interpolated with view
// parameters. An argument written as {param: name} is the raw parameter
// value and {versions: [...]} picks a value by product version.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/widgetry/pkg/errors"
)

// Manifest is the decoded form of a manifest file.
type Manifest struct {
	Views []ViewSpec `yaml:"views" validate:"required,min=1,dive"`
}

// ViewSpec declares one view template.
type ViewSpec struct {
	Name          string        `yaml:"name" validate:"required"`
	Root          string        `yaml:"root"`
	Params        []string      `yaml:"params" validate:"dive,required"`
	Sets          [][]any       `yaml:"sets"`
	Strategy      string        `yaml:"strategy" validate:"omitempty,oneof=default wait guarded"`
	WaitTimeout   time.Duration `yaml:"wait_timeout" validate:"gte=0"`
	PollInterval  time.Duration `yaml:"poll_interval" validate:"gte=0"`
	RespectParent bool          `yaml:"respect_parent"`
	Children      []ChildSpec   `yaml:"children" validate:"dive"`
}

// Candidate is a widget or view reference usable as a child, a switch
// candidate or a version-pick candidate. Exactly one of Kind and View is set.
type Candidate struct {
	Kind string         `yaml:"kind"`
	Args map[string]any `yaml:"args"`
	View string         `yaml:"view"`
}

// ChildSpec declares one child of a view.
type ChildSpec struct {
	Name           string `yaml:"name" validate:"required_without=Include"`
	Candidate      `yaml:",inline"`
	Include        string        `yaml:"include"`
	UseParentScope bool          `yaml:"use_parent_scope"`
	Switch         *SwitchSpec   `yaml:"switch"`
	Versions       []VersionSpec `yaml:"versions" validate:"dive"`
}

// SwitchSpec declares an equality switch over one sibling widget.
type SwitchSpec struct {
	Reference string     `yaml:"reference" validate:"required"`
	Cases     []CaseSpec `yaml:"cases" validate:"required,min=1,dive"`
}

// CaseSpec is one switch candidate. A case with Default and no Value only
// serves as the fallback.
type CaseSpec struct {
	Value     any  `yaml:"value"`
	Default   bool `yaml:"default"`
	Candidate `yaml:",inline"`
}

// VersionSpec is one version-pick candidate. Since is a version or "lowest".
type VersionSpec struct {
	Since     string `yaml:"since" validate:"required"`
	Candidate `yaml:",inline"`
}

var validate = validator.New()

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap("manifest.Parse", errors.KindDefinition, "", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, errors.Wrap("manifest.Parse", errors.KindDefinition, "", err)
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}
