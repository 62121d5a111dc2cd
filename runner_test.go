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

func str(s string) Operand { return NewOperand(StringValue(s)) }

func num(n float32) Operand { return NewOperand(NumberValue(n)) }

func boolean(b bool) Operand { return NewOperand(BoolValue(b)) }

func TestStepLinearLineThenStop(t *testing.T) {
	node := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Opcode: ByteCodeRunLine, Operands: []Operand{str("greeting")}},
			{Opcode: ByteCodeStop},
		},
	}
	story := NewStory(&Program{Nodes: map[string]*Node{"Start": node}})
	runner := NewStoryRunner(Builtins())
	vars := make(MapVariableStore)

	cp, err := story.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}

	cp, event, err := runner.Step(story, cp, vars)
	if err != nil {
		t.Fatalf("Step (line): %v", err)
	}
	if event.Kind != EventShowLine || event.Key != "greeting" {
		t.Fatalf("event = %+v, want ShowLine greeting", event)
	}
	if cp.Complete() {
		t.Error("checkpoint marked complete before Stop executes")
	}

	cp, event, err = runner.Step(story, cp, vars)
	if err != nil {
		t.Fatalf("Step (stop): %v", err)
	}
	if event.Kind != EventComplete {
		t.Fatalf("event = %+v, want Complete", event)
	}
	if !cp.Complete() {
		t.Error("checkpoint not marked complete after Stop")
	}

	if _, _, err := runner.Step(story, cp, vars); !errors.Is(err, ErrStoryComplete) {
		t.Errorf("Step() on a complete checkpoint error = %v, want ErrStoryComplete", err)
	}
}

func TestStepJumpIfFalsePeeksNotPops(t *testing.T) {
	// PushBool false; JumpIfFalse label "skip"; PushString "unreachable";
	// label "skip": RunCommand "done". JumpIfFalse must not consume the
	// bool it branches on (spec.md §4.D peek-vs-pop bug flag), so if it
	// mistakenly popped, there would be nothing left for a hypothetical
	// consumer downstream - here we instead assert the stack depth after
	// the jump still reflects the un-popped bool.
	node := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Opcode: ByteCodePushBool, Operands: []Operand{boolean(false)}},
			{Opcode: ByteCodeJumpIfFalse, Operands: []Operand{str("skip")}},
			{Opcode: ByteCodePushString, Operands: []Operand{str("unreachable")}},
			{Opcode: ByteCodeRunCommand, Operands: []Operand{str("done")}},
		},
		Labels: map[string]int{"skip": 3},
	}
	story := NewStory(&Program{Nodes: map[string]*Node{"Start": node}})
	runner := NewStoryRunner(Builtins())
	vars := make(MapVariableStore)

	cp, err := story.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}

	cp, event, err := runner.Step(story, cp, vars)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if event.Kind != EventCommand || event.Text != "done" {
		t.Fatalf("event = %+v, want Command done", event)
	}
	if cp.stack.Len() != 1 {
		t.Errorf("stack depth after JumpIfFalse = %d, want 1 (the bool must still be on the stack)", cp.stack.Len())
	}
}

func TestStepOptionFlow(t *testing.T) {
	start := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Opcode: ByteCodeAddOption, Operands: []Operand{str("opt:yes"), str("Yes")}},
			{Opcode: ByteCodeAddOption, Operands: []Operand{str("opt:no"), str("No")}},
			{Opcode: ByteCodeShowOptions},
			{Opcode: ByteCodeRunNode},
		},
	}
	yes := &Node{
		Name: "Yes",
		Instructions: []Instruction{
			{Opcode: ByteCodeStop},
		},
	}
	story := NewStory(&Program{Nodes: map[string]*Node{"Start": start, "Yes": yes}})
	runner := NewStoryRunner(Builtins())
	vars := make(MapVariableStore)

	cp, err := story.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}

	cp, e1, err := runner.Step(story, cp, vars)
	if err != nil {
		t.Fatalf("Step (option 1): %v", err)
	}
	if e1.Kind != EventAddOption || e1.Target != "Yes" {
		t.Fatalf("event = %+v, want AddOption Yes", e1)
	}

	cp, e2, err := runner.Step(story, cp, vars)
	if err != nil {
		t.Fatalf("Step (option 2): %v", err)
	}
	if e2.Kind != EventAddOption || e2.Target != "No" {
		t.Fatalf("event = %+v, want AddOption No", e2)
	}

	cp, e3, err := runner.Step(story, cp, vars)
	if err != nil {
		t.Fatalf("Step (show options): %v", err)
	}
	if e3.Kind != EventShowOptions {
		t.Fatalf("event = %+v, want ShowOptions", e3)
	}

	beforeSelect := cp
	selected := cp.SelectOption("Yes")

	_, e4, err := runner.Step(story, selected, vars)
	if err != nil {
		t.Fatalf("Step (run node): %v", err)
	}
	if e4.Kind != EventComplete {
		t.Fatalf("event = %+v, want Complete (RunNode should have jumped into Yes and hit Stop)", e4)
	}
	if beforeSelect.Node().Name == "Yes" {
		t.Error("original checkpoint captured before SelectOption must not be affected by it")
	}
}

func TestStepCommandSubstitution(t *testing.T) {
	node := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Opcode: ByteCodePushString, Operands: []Operand{str("world")}},
			{Opcode: ByteCodeRunCommand, Operands: []Operand{str("greet {0}"), num(1)}},
		},
	}
	story := NewStory(&Program{Nodes: map[string]*Node{"Start": node}})
	runner := NewStoryRunner(Builtins())
	vars := make(MapVariableStore)

	cp, err := story.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}
	_, event, err := runner.Step(story, cp, vars)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if event.Text != "greet world" {
		t.Errorf("Command text = %q, want %q", event.Text, "greet world")
	}
}

func TestStepCallFunc(t *testing.T) {
	node := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Opcode: ByteCodePushFloat, Operands: []Operand{num(2)}},
			{Opcode: ByteCodePushFloat, Operands: []Operand{num(3)}},
			{Opcode: ByteCodePushFloat, Operands: []Operand{num(2)}},
			{Opcode: ByteCodeCallFunc, Operands: []Operand{str("Number.Add")}},
			{Opcode: ByteCodeStoreVariable, Operands: []Operand{str("$sum")}},
			{Opcode: ByteCodeStop},
		},
	}
	story := NewStory(&Program{Nodes: map[string]*Node{"Start": node}})
	runner := NewStoryRunner(Builtins())
	vars := make(MapVariableStore)

	cp, err := story.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}
	for {
		var event StoryEvent
		cp, event, err = runner.Step(story, cp, vars)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if event.Kind == EventComplete {
			break
		}
	}
	v, ok := vars.Get("$sum")
	if !ok {
		t.Fatal("$sum not set")
	}
	if v.String() != "5" {
		t.Errorf("$sum = %v, want 5", v.String())
	}
}

func TestStepPushVariableFallsBackToInitialValue(t *testing.T) {
	node := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Opcode: ByteCodePushVariable, Operands: []Operand{str("$count")}},
			{Opcode: ByteCodeStoreVariable, Operands: []Operand{str("$copy")}},
			{Opcode: ByteCodeStop},
		},
	}
	story := NewStory(&Program{
		Nodes:         map[string]*Node{"Start": node},
		InitialValues: map[string]Value{"$count": NumberValue(10)},
	})
	runner := NewStoryRunner(Builtins())
	vars := make(MapVariableStore)

	cp, err := story.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}
	for {
		var event StoryEvent
		cp, event, err = runner.Step(story, cp, vars)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if event.Kind == EventComplete {
			break
		}
	}
	v, ok := vars.Get("$copy")
	if !ok || v.String() != "10" {
		t.Errorf("$copy = (%v, %v), want (10, true)", v.String(), ok)
	}
}

func TestStepMissingVariable(t *testing.T) {
	node := &Node{
		Name: "Start",
		Instructions: []Instruction{
			{Opcode: ByteCodePushVariable, Operands: []Operand{str("$nope")}},
		},
	}
	story := NewStory(&Program{Nodes: map[string]*Node{"Start": node}})
	runner := NewStoryRunner(Builtins())
	vars := make(MapVariableStore)

	cp, err := story.CheckpointAt("Start")
	if err != nil {
		t.Fatalf("CheckpointAt: %v", err)
	}
	_, _, err = runner.Step(story, cp, vars)
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Step() error = %v, want *StepError", err)
	}
	if !errors.Is(stepErr, ErrMissingVariable) {
		t.Errorf("Step() error = %v, want wrapping ErrMissingVariable", err)
	}
	if stepErr.Node != "Start" || stepErr.PC != 0 {
		t.Errorf("StepError = %+v, want Node=Start PC=0", stepErr)
	}
}
