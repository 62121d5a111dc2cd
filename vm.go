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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Line is a resolved RunLine event: a string-table key plus the already
// ordered positional substitutions ready for an embedder's markup/plural
// resolution pass (spec.md §6).
type Line struct {
	ID            string
	Substitutions []string
}

// Option is one entry collected between a run of AddOption instructions
// and the ShowOptions that presents them (spec.md §4.G).
type Option struct {
	ID      int
	Line    Line
	Target  string
	Enabled bool
}

// Delegate receives narrative content and lifecycle events from a
// VirtualMachine's Run loop, the same role the Handler played in the
// teacher's VM: one method per StoryEvent kind, plus node lifecycle hooks
// that have no StoryEvent of their own because RunNode jumps silently
// mid-Step.
type Delegate interface {
	Line(line Line) error
	Options(opts []Option) error
	Command(command string) error
	NodeStart(node string) error
	NodeComplete(node string) error
	PrepareForLines(ids []string) error
	DialogueComplete() error
}

// StringTableRow is one entry of a StringTable: the line text an
// embedder resolves a Line.ID to.
type StringTableRow struct {
	Text string
}

// StringTable maps string-table keys to their row, exactly the shape
// produced by Yarn Spinner's compiled .csv string tables.
type StringTable map[string]StringTableRow

// ReadStringTable reads a "id,text" CSV-like string table, one entry per
// line, skipping blank lines and a leading header line if present.
func ReadStringTable(r io.Reader) (StringTable, error) {
	st := make(StringTable)
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		id, text, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("malformed string table line %q", line)
		}
		if first {
			first = false
			if id == "id" {
				continue
			}
		}
		st[id] = StringTableRow{Text: text}
	}
	return st, sc.Err()
}

// VirtualMachine drives a single Program to completion through a
// Delegate, adapting the resumable Story/StoryRunner/Checkpoint core to
// the teacher's push-style VM shape: construct one with Program, Handler
// and Vars set, then call Run. Unlike the teacher's VM, the actual
// interpreter state lives in an immutable Checkpoint internally swapped
// out after each Step, so nothing prevents a caller from also driving the
// same Program through the lower-level Story/Checkpoint API directly.
type VirtualMachine struct {
	// Program is the program to execute.
	Program *Program

	// Handler receives lines, options, commands and lifecycle events.
	Handler Delegate

	// Vars stores variables read and written by the dialogue.
	Vars VariableStore

	// Library supplies the callable functions bytecode can invoke. If
	// nil, Run uses Builtins().
	Library *Library

	// TraceLog, if true, logs each instruction executed via the
	// runner's TraceLogf before it runs.
	TraceLog bool

	story      *Story
	checkpoint Checkpoint
	pending    []Option
}

// SetNode resets the machine to the start of the node named name,
// notifying the Handler of the outgoing node's completion (if any) and
// the incoming node's start, the same lifecycle the teacher's VM offers
// external callers (e.g. a "jump" test-plan command, or a command handler
// that wants to redirect the story).
func (vm *VirtualMachine) SetNode(name string) error {
	if vm.story == nil {
		vm.story = NewStory(vm.Program)
	}
	if vm.checkpoint.Node() != nil {
		if err := vm.Handler.NodeComplete(vm.checkpoint.Node().Name); err != nil {
			return fmt.Errorf("handler.NodeComplete: %w", err)
		}
	}
	cp, err := vm.story.CheckpointAt(name)
	if err != nil {
		return err
	}
	vm.checkpoint = cp
	vm.pending = nil
	return vm.startNode(name)
}

func (vm *VirtualMachine) startNode(name string) error {
	if err := vm.Handler.NodeStart(name); err != nil {
		return fmt.Errorf("handler.NodeStart: %w", err)
	}
	node, _ := vm.story.Node(name)
	var ids []string
	for _, instr := range node.Instructions {
		if instr.Opcode == ByteCodeRunLine || instr.Opcode == ByteCodeAddOption {
			if key, err := instr.Operand(0).String(); err == nil {
				ids = append(ids, key)
			}
		}
	}
	if err := vm.Handler.PrepareForLines(ids); err != nil {
		return fmt.Errorf("handler.PrepareForLines: %w", err)
	}
	return nil
}

// SetSelectedOption resolves the pending ShowOptions event by selecting
// option i, the same role Handler.Options synchronously plays in the
// teacher's VM (there, pushing the destination node directly onto the
// live stack; here, by producing the next Checkpoint).
func (vm *VirtualMachine) SetSelectedOption(i int) error {
	if i < 0 || i >= len(vm.pending) {
		return fmt.Errorf("selected option %d out of bounds [0, %d)", i, len(vm.pending))
	}
	vm.checkpoint = vm.checkpoint.SelectOption(vm.pending[i].Target)
	vm.pending = nil
	return nil
}

// Run executes the program to completion, starting at the node named
// startNode.
func (vm *VirtualMachine) Run(startNode string) error {
	if vm.Handler == nil {
		return fmt.Errorf("%w: nil Handler", ErrInvalidArguments)
	}
	if vm.Vars == nil {
		return fmt.Errorf("%w: nil Vars", ErrInvalidArguments)
	}
	if vm.Program == nil {
		return fmt.Errorf("%w: nil Program", ErrInvalidArguments)
	}

	lib := vm.Library
	if lib == nil {
		lib = Builtins()
	}
	runner := NewStoryRunner(lib)
	if vm.TraceLog {
		runner.TraceLogf = func(format string, args ...interface{}) { fmt.Printf(format+"\n", args...) }
	}

	if err := vm.SetNode(startNode); err != nil {
		return err
	}

	for {
		currentNode := vm.checkpoint.Node().Name

		cp, event, err := runner.Step(vm.story, vm.checkpoint, vm.Vars)
		if err != nil {
			return err
		}
		vm.checkpoint = cp

		if vm.checkpoint.Node().Name != currentNode {
			if err := vm.Handler.NodeComplete(currentNode); err != nil {
				return fmt.Errorf("handler.NodeComplete: %w", err)
			}
			if err := vm.startNode(vm.checkpoint.Node().Name); err != nil {
				return err
			}
		}

		switch event.Kind {
		case EventShowLine:
			if err := vm.Handler.Line(Line{ID: event.Key, Substitutions: event.Substitutions}); err != nil {
				return fmt.Errorf("handler.Line: %w", err)
			}

		case EventCommand:
			if err := vm.Handler.Command(event.Text); err != nil {
				return fmt.Errorf("handler.Command: %w", err)
			}

		case EventAddOption:
			vm.pending = append(vm.pending, Option{
				ID:      len(vm.pending),
				Line:    Line{ID: event.Key, Substitutions: event.Substitutions},
				Target:  event.Target,
				Enabled: event.Enabled,
			})

		case EventShowOptions:
			opts := vm.pending
			if err := vm.Handler.Options(opts); err != nil {
				return fmt.Errorf("handler.Options: %w", err)
			}

		case EventComplete:
			if err := vm.Handler.NodeComplete(vm.checkpoint.Node().Name); err != nil {
				return fmt.Errorf("handler.NodeComplete: %w", err)
			}
			return vm.Handler.DialogueComplete()
		}
	}
}

// FormatProgram renders every node and instruction of p, in node-name
// order, for trace logging and debugging.
func FormatProgram(p *Program) string {
	names := make([]string, 0, len(p.Nodes))
	for name := range p.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		node := p.Nodes[name]
		fmt.Fprintf(&b, "node %s:\n", name)
		for pc, instr := range node.Instructions {
			fmt.Fprintf(&b, "  %06d %s\n", pc, instr)
		}
	}
	return b.String()
}
