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

import (
	"errors"
	"testing"
)

func TestStoryCheckpointAtUnknownNode(t *testing.T) {
	s := NewStory(&Program{Nodes: map[string]*Node{}})
	if _, err := s.CheckpointAt("Nowhere"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("CheckpointAt() error = %v, want ErrNodeNotFound", err)
	}
}

func TestStoryCheckpointAtStartsClean(t *testing.T) {
	node := &Node{Name: "Start"}
	s := NewStory(&Program{Nodes: map[string]*Node{"Start": node}})

	cp, err := s.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}
	if cp.Node() != node || cp.PC() != 0 || cp.stack.Len() != 0 {
		t.Errorf("CheckpointAt() = %+v, want node=Start pc=0 empty stack", cp)
	}
}

func TestBuilderMergesDistinctPrograms(t *testing.T) {
	a := &Program{
		Nodes:         map[string]*Node{"A": {Name: "A"}},
		InitialValues: map[string]Value{"$x": NumberValue(1)},
	}
	b := &Program{
		Nodes:         map[string]*Node{"B": {Name: "B"}},
		InitialValues: map[string]Value{"$y": NumberValue(2)},
	}

	story, err := (&Builder{}).Add(a).Add(b).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := story.Node("A"); !ok {
		t.Error("merged story missing node A")
	}
	if _, ok := story.Node("B"); !ok {
		t.Error("merged story missing node B")
	}
	if _, ok := story.InitialValue("$x"); !ok {
		t.Error("merged story missing initial value $x")
	}
}

func TestBuilderRejectsAmbiguousNode(t *testing.T) {
	a := &Program{Nodes: map[string]*Node{"Start": {Name: "Start"}}}
	b := &Program{Nodes: map[string]*Node{"Start": {Name: "Start"}}}

	if _, err := (&Builder{}).Add(a).Add(b).Build(); !errors.Is(err, ErrAmbiguousNode) {
		t.Errorf("Build() error = %v, want ErrAmbiguousNode", err)
	}
}

func TestBuilderRejectsAmbiguousInitialValue(t *testing.T) {
	a := &Program{
		Nodes:         map[string]*Node{"A": {Name: "A"}},
		InitialValues: map[string]Value{"$x": NumberValue(1)},
	}
	b := &Program{
		Nodes:         map[string]*Node{"B": {Name: "B"}},
		InitialValues: map[string]Value{"$x": NumberValue(2)},
	}

	if _, err := (&Builder{}).Add(a).Add(b).Build(); !errors.Is(err, ErrAmbiguousInitialValue) {
		t.Errorf("Build() error = %v, want ErrAmbiguousInitialValue", err)
	}
}
