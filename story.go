// Copyright 2021 Josh Deprez
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package yarn

import "fmt"

// Story is a thin, read-only query façade over a Program: node lookup,
// initial variable values, and checkpoint creation (spec.md §4.H,
// component "Story facade").
type Story struct {
	program *Program
}

// NewStory wraps program in a Story with no merging or validation; most
// callers should use Builder instead, which also detects ambiguity
// across multiple compiled inputs.
func NewStory(program *Program) *Story {
	return &Story{program: program}
}

// Node returns the node named name, or (nil, false) if the program has no
// such node.
func (s *Story) Node(name string) (*Node, bool) {
	n, ok := s.program.Nodes[name]
	return n, ok
}

// InitialValue returns the compiler-provided initial value for the
// variable named name, or (Value{}, false) if none was declared.
func (s *Story) InitialValue(name string) (Value, bool) {
	v, ok := s.program.InitialValues[name]
	return v, ok
}

// CheckpointAt returns a fresh Checkpoint at the start of the node named
// name (empty stack, offset 0), or an error if no such node exists.
func (s *Story) CheckpointAt(name string) (Checkpoint, error) {
	node, ok := s.Node(name)
	if !ok {
		return Checkpoint{}, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
	}
	return newCheckpoint(node, 0, EvaluationStack{}), nil
}

// Builder accumulates one or more decoded Programs and merges them into a
// single Story, the way an embedder loading several compiled Yarn files
// does (spec.md §6, "Program merging").
type Builder struct {
	programs []*Program
}

// Add queues program to be merged when Build is called.
func (b *Builder) Add(program *Program) *Builder {
	b.programs = append(b.programs, program)
	return b
}

// Build merges every added Program into one Story, failing with
// ErrAmbiguousNode or ErrAmbiguousInitialValue if two inputs define the
// same node name or the same initial-value key.
func (b *Builder) Build() (*Story, error) {
	root := &Program{
		Nodes:         make(map[string]*Node),
		InitialValues: make(map[string]Value),
	}

	for _, p := range b.programs {
		for name, node := range p.Nodes {
			if _, exists := root.Nodes[name]; exists {
				return nil, fmt.Errorf("%w: %q", ErrAmbiguousNode, name)
			}
			root.Nodes[name] = node
		}
		for name, value := range p.InitialValues {
			if _, exists := root.InitialValues[name]; exists {
				return nil, fmt.Errorf("%w: %q", ErrAmbiguousInitialValue, name)
			}
			root.InitialValues[name] = value
		}
	}

	return NewStory(root), nil
}
