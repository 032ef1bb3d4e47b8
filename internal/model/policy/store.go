package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store exposes policy retrieval for the relay.
type Store interface {
	List() []Policy
	FindByName(name string) (Policy, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Policy
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied policies.
// Later entries replace earlier ones with the same name.
func NewMemoryStore(items []Policy) *MemoryStore {
	s := &MemoryStore{}
	for _, item := range items {
		s.put(item)
	}
	return s
}

func (s *MemoryStore) put(p Policy) {
	for i := range s.items {
		if s.items[i].Name == p.Name {
			s.items[i] = p
			return
		}
	}
	s.items = append(s.items, p)
}

// List returns the known policies.
func (s *MemoryStore) List() []Policy {
	return append([]Policy(nil), s.items...)
}

// FindByName looks up a policy by name.
func (s *MemoryStore) FindByName(name string) (Policy, bool) {
	for _, item := range s.items {
		if item.Name == name {
			return item, true
		}
	}
	return Policy{}, false
}

type policyFile struct {
	Policies []Policy `yaml:"policies"`
}

// LoadFile reads additional policies from a YAML document of the form
//
//	policies:
//	  - name: ...
//	    identity: ...
func LoadFile(path string) ([]Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var doc policyFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	for _, p := range doc.Policies {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("policy file %s: %w", path, err)
		}
	}
	return doc.Policies, nil
}
