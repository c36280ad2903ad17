/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package semantics

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var embedded []byte

// PropertyKind says how an AI value becomes a linked data value.
type PropertyKind string

const (
	String       = PropertyKind("string")
	Class        = PropertyKind("class")
	Quantitative = PropertyKind("quantitative")
	Date         = PropertyKind("date")
	DateRange    = PropertyKind("date-range")
	DateTime     = PropertyKind("date-time")
)

// Property maps one AI, or a family of AIs, to predicates.
type Property struct {
	Kind       PropertyKind      `yaml:"kind"`
	Predicates []string          `yaml:"predicates"`
	Unit       string            `yaml:"unit"`
	Template   string            `yaml:"template"`
	Values     map[string]string `yaml:"values"`
	Start      string            `yaml:"start"`
	End        string            `yaml:"end"`
}

// Vocabulary holds the tables the Mapper works from.
type Vocabulary struct {
	Context    map[string]string    `yaml:"context"`
	Types      map[string][]string  `yaml:"types"`
	Properties map[string]*Property `yaml:"properties"`
}

// Load parses and checks a YAML vocabulary.
func Load(data []byte) (*Vocabulary, error) {
	v := &Vocabulary{}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, errors.Wrap(err, "unable to parse vocabulary")
	}

	keys := make([]string, 0, len(v.Properties))
	for key := range v.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		p := v.Properties[key]
		if p == nil {
			return nil, errors.Errorf("property %s is empty", key)
		}
		switch p.Kind {
		case String, Class, Date, DateTime:
			if len(p.Predicates) == 0 {
				return nil, errors.Errorf("property %s has no predicates", key)
			}
		case Quantitative:
			if len(p.Predicates) == 0 || p.Unit == "" {
				return nil, errors.Errorf("quantitative property %s needs predicates and a unit", key)
			}
			if !strings.HasSuffix(key, "n") || len(key) != 4 {
				return nil, errors.Errorf("quantitative property %s must name an AI family like 310n", key)
			}
		case DateRange:
			if p.Start == "" || p.End == "" {
				return nil, errors.Errorf("date range property %s needs start and end predicates", key)
			}
		default:
			return nil, errors.Errorf("property %s has unknown kind %q", key, p.Kind)
		}
		if p.Kind == Class && p.Template == "" && len(p.Values) == 0 {
			return nil, errors.Errorf("class property %s needs a template or values", key)
		}
	}
	return v, nil
}

var defaultVocabulary = sync.OnceValues(func() (*Vocabulary, error) {
	return Load(embedded)
})

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() (*Vocabulary, error) {
	return defaultVocabulary()
}

// Property returns the property for ai, falling back to its family.
func (v *Vocabulary) Property(ai string) (*Property, bool) {
	if p, ok := v.Properties[ai]; ok {
		return p, true
	}
	if len(ai) == 4 {
		p, ok := v.Properties[ai[:3]+"n"]
		return p, ok
	}
	return nil, false
}
