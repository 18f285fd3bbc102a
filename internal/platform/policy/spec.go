// Package policy centralizes the authorization rules consulted before every
// marketplace mutation. Rules are data: a YAML spec mapping operations to
// role allowlists and ownership scoping, with compiled-in defaults.
package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const SpecSchemaV1 = "lancehub.access.v1"

type Spec struct {
	Schema     string      `json:"schema" yaml:"schema"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

type Operation struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Roles       []string `json:"roles" yaml:"roles"`
	OwnerOnly   bool     `json:"owner_only,omitempty" yaml:"owner_only,omitempty"`
}

const defaultSpecYAML = `
schema: lancehub.access.v1
operations:
  - name: assignment.create
    description: post a new assignment
    roles: [CLIENT]
  - name: assignment.list_all
    description: list every assignment
    roles: [ADMIN]
  - name: assignment.list_mine
    description: list the caller's own assignments
    roles: [CLIENT, WRITER]
  - name: assignment.get
    description: read a single assignment
    roles: [CLIENT, WRITER, ADMIN]
    owner_only: true
  - name: assignment.history
    description: read an assignment's audit trail
    roles: [CLIENT, WRITER, ADMIN]
    owner_only: true
  - name: assignment.update_status
    description: move an assignment along the workflow
    roles: [WRITER, ADMIN]
    owner_only: true
  - name: assignment.assign_writer
    description: assign or reassign a writer
    roles: [ADMIN]
  - name: assignment.delete
    description: hard-delete an assignment
    roles: [ADMIN]
  - name: assignment.bulk_assign
    description: assign a writer to many assignments
    roles: [ADMIN]
  - name: assignment.bulk_delete
    description: hard-delete many assignments
    roles: [ADMIN]
  - name: writer.list
    description: list writer profiles
    roles: [ADMIN]
  - name: writer.review
    description: approve or reject a writer
    roles: [ADMIN]
`

// Default returns the compiled-in access spec.
func Default() Spec {
	spec, err := ParseSpec([]byte(defaultSpecYAML))
	if err != nil {
		panic(fmt.Sprintf("policy: default spec invalid: %v", err))
	}
	return spec
}

// Load reads a spec from path, falling back to the default when path is
// empty.
func Load(path string) (Spec, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParseSpec(raw)
}

func ParseSpec(input []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(input, &spec); err != nil {
		return Spec{}, fmt.Errorf("decode spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Schema) != SpecSchemaV1 {
		return fmt.Errorf("spec.schema must be %q", SpecSchemaV1)
	}
	if len(s.Operations) == 0 {
		return errors.New("spec.operations must be non-empty")
	}
	seen := make(map[string]struct{}, len(s.Operations))
	for i, op := range s.Operations {
		name := strings.TrimSpace(op.Name)
		if name == "" {
			return fmt.Errorf("spec.operations[%d].name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("spec.operations[%d].name must be unique (duplicate %q)", i, name)
		}
		seen[name] = struct{}{}
		if len(op.Roles) == 0 {
			return fmt.Errorf("spec.operations[%d].roles must be non-empty", i)
		}
		for j, role := range op.Roles {
			if strings.TrimSpace(role) == "" {
				return fmt.Errorf("spec.operations[%d].roles[%d] is empty", i, j)
			}
		}
	}
	return nil
}

// Operation looks up a rule by name.
func (s Spec) Operation(name string) (Operation, bool) {
	name = strings.TrimSpace(name)
	for _, op := range s.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}
