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
	"fmt"
	"strings"
)

// StoryRunner drives a Story forward one narrative event at a time. It
// holds only a Library; all other state lives in the Checkpoint and
// VariableStore passed to Step, so a single StoryRunner can safely drive
// many independent stories (just not the same one concurrently - spec.md
// §5).
type StoryRunner struct {
	Library *Library

	// TraceLogf, if non-nil, is called once per instruction executed
	// during a Step, before the instruction runs. This mirrors the
	// teacher's VirtualMachine.TraceLogf convention.
	TraceLogf func(format string, args ...interface{})
}

// NewStoryRunner returns a StoryRunner using lib for function dispatch.
func NewStoryRunner(lib *Library) *StoryRunner {
	return &StoryRunner{Library: lib}
}

// controlFlow describes what execute() wants Step's loop to do next.
type controlFlow struct {
	jump bool
	node *Node
	pc   int
}

func flowNext() controlFlow { return controlFlow{} }

func flowJump(node *Node, pc int) controlFlow {
	return controlFlow{jump: true, node: node, pc: pc}
}

// Step advances the story forward from checkpoint until one
// narrative-visible StoryEvent is produced, returning the new checkpoint
// alongside it. If execution fails, the returned error is a *StepError
// carrying the node name, program counter, and offending instruction
// (spec.md §4.G, §7); the input checkpoint is left untouched and remains
// valid to retry or inspect.
func (r *StoryRunner) Step(story *Story, checkpoint Checkpoint, variables VariableStore) (Checkpoint, StoryEvent, error) {
	if checkpoint.complete {
		return Checkpoint{}, StoryEvent{}, ErrStoryComplete
	}

	node := checkpoint.node
	pc := checkpoint.pc
	stack := checkpoint.stack.Clone()

	for {
		if pc < 0 || pc >= len(node.Instructions) {
			return Checkpoint{}, StoryEvent{}, &StepError{Node: node.Name, PC: pc, Err: fmt.Errorf("%w: pc out of range [0, %d)", ErrInvalidInstruction, len(node.Instructions))}
		}
		instr := node.Instructions[pc]

		if r.TraceLogf != nil {
			r.TraceLogf("%s %06d %s (stack depth %d)", node.Name, pc, instr, stack.Len())
		}

		flow, event, err := r.execute(story, node, instr, &stack, variables)
		if err != nil {
			return Checkpoint{}, StoryEvent{}, &StepError{Node: node.Name, PC: pc, Instruction: instr, Err: err}
		}

		if flow.jump {
			node, pc = flow.node, flow.pc
		} else {
			pc++
		}

		if event != nil {
			cp := newCheckpoint(node, pc, stack)
			if event.Kind == EventComplete {
				cp.complete = true
			}
			return cp, *event, nil
		}
	}
}

// execute runs a single instruction, returning the control-flow effect
// and an optional narrative event (spec.md §4.G, per-opcode semantics
// table).
func (r *StoryRunner) execute(story *Story, node *Node, instr Instruction, stack *EvaluationStack, variables VariableStore) (controlFlow, *StoryEvent, error) {
	switch instr.Opcode {
	case ByteCodeJumpTo:
		label, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		pc, err := node.ResolveLabel(label)
		if err != nil {
			return controlFlow{}, nil, err
		}
		return flowJump(node, pc), nil, nil

	case ByteCodeJump:
		label, err := stack.PopString()
		if err != nil {
			return controlFlow{}, nil, err
		}
		pc, err := node.ResolveLabel(label)
		if err != nil {
			return controlFlow{}, nil, err
		}
		return flowJump(node, pc), nil, nil

	case ByteCodeRunLine:
		key, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		subs, err := popSubstitutions(instr, 1, stack)
		if err != nil {
			return controlFlow{}, nil, err
		}
		return flowNext(), &StoryEvent{Kind: EventShowLine, Key: key, Substitutions: subs}, nil

	case ByteCodeRunCommand:
		text, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		if len(instr.Operands) > 1 {
			n, err := operandCount(instr.Operand(1))
			if err != nil {
				return controlFlow{}, nil, err
			}
			for i := n - 1; i >= 0; i-- {
				s, err := stack.PopString()
				if err != nil {
					return controlFlow{}, nil, err
				}
				text = strings.ReplaceAll(text, fmt.Sprintf("{%d}", i), s)
			}
		}
		return flowNext(), &StoryEvent{Kind: EventCommand, Text: text}, nil

	case ByteCodeAddOption:
		key, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		target, err := instr.Operand(1).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		subs, err := popSubstitutions(instr, 2, stack)
		if err != nil {
			return controlFlow{}, nil, err
		}
		enabled := true
		if len(instr.Operands) > 3 {
			hasCondition, err := instr.Operand(3).Bool()
			if err != nil {
				return controlFlow{}, nil, err
			}
			if hasCondition {
				enabled, err = stack.PopBool()
				if err != nil {
					return controlFlow{}, nil, err
				}
			}
		}
		return flowNext(), &StoryEvent{
			Kind:          EventAddOption,
			Enabled:       enabled,
			Key:           key,
			Substitutions: subs,
			Target:        target,
		}, nil

	case ByteCodeShowOptions:
		return flowNext(), &StoryEvent{Kind: EventShowOptions}, nil

	case ByteCodePushString:
		s, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		stack.Push(StringValue(s))
		return flowNext(), nil, nil

	case ByteCodePushFloat:
		n, err := instr.Operand(0).Number()
		if err != nil {
			return controlFlow{}, nil, err
		}
		stack.Push(NumberValue(n))
		return flowNext(), nil, nil

	case ByteCodePushBool:
		b, err := instr.Operand(0).Bool()
		if err != nil {
			return controlFlow{}, nil, err
		}
		stack.Push(BoolValue(b))
		return flowNext(), nil, nil

	case ByteCodePushNull:
		return controlFlow{}, nil, fmt.Errorf("%w: PushNull", ErrUnsupportedInstruction)

	case ByteCodeJumpIfFalse:
		cond, err := stack.PeekBool()
		if err != nil {
			return controlFlow{}, nil, err
		}
		if cond {
			return flowNext(), nil, nil
		}
		label, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		pc, err := node.ResolveLabel(label)
		if err != nil {
			return controlFlow{}, nil, err
		}
		return flowJump(node, pc), nil, nil

	case ByteCodePop:
		if _, err := stack.PopAny(); err != nil {
			return controlFlow{}, nil, err
		}
		return flowNext(), nil, nil

	case ByteCodeCallFunc:
		name, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		n, err := stack.PopNumber()
		if err != nil {
			return controlFlow{}, nil, err
		}
		args := make([]Value, int(n))
		for i := int(n) - 1; i >= 0; i-- {
			v, err := stack.PopAny()
			if err != nil {
				return controlFlow{}, nil, err
			}
			args[i] = v
		}
		result, err := r.Library.Call(name, CallContext{Node: node, Story: story, Variables: variables}, args)
		if err != nil {
			return controlFlow{}, nil, err
		}
		stack.Push(result)
		return flowNext(), nil, nil

	case ByteCodePushVariable:
		name, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		if v, ok := variables.Get(name); ok {
			stack.Push(v)
			return flowNext(), nil, nil
		}
		if v, ok := story.InitialValue(name); ok {
			stack.Push(v)
			return flowNext(), nil, nil
		}
		return controlFlow{}, nil, fmt.Errorf("%w: %q", ErrMissingVariable, name)

	case ByteCodeStoreVariable:
		name, err := instr.Operand(0).String()
		if err != nil {
			return controlFlow{}, nil, err
		}
		v, err := stack.PeekAny()
		if err != nil {
			return controlFlow{}, nil, err
		}
		variables.Set(name, v)
		return flowNext(), nil, nil

	case ByteCodeStop:
		return flowNext(), &StoryEvent{Kind: EventComplete}, nil

	case ByteCodeRunNode:
		name, err := stack.PopString()
		if err != nil {
			return controlFlow{}, nil, err
		}
		target, ok := story.Node(name)
		if !ok {
			return controlFlow{}, nil, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
		}
		return flowJump(target, 0), nil, nil

	default:
		return controlFlow{}, nil, fmt.Errorf("%w: %d", ErrInvalidInstruction, int32(instr.Opcode))
	}
}

// popSubstitutions implements the "if operands has a count at countIndex,
// pop that many strings and reverse them" pattern shared by RunLine and
// AddOption (spec.md §4.G).
func popSubstitutions(instr Instruction, countIndex int, stack *EvaluationStack) ([]string, error) {
	if len(instr.Operands) <= countIndex {
		return nil, nil
	}
	n, err := operandCount(instr.Operand(countIndex))
	if err != nil {
		return nil, err
	}
	subs := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		s, err := stack.PopString()
		if err != nil {
			return nil, err
		}
		subs[i] = s
	}
	return subs, nil
}

func operandCount(op Operand) (int, error) {
	n, err := op.Number()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
