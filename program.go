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

// ByteCode enumerates the operations the interpreter can perform
// (spec.md §6, "OpCodes").
type ByteCode int32

// The full opcode set, in wire order.
const (
	ByteCodeJumpTo ByteCode = iota
	ByteCodeJump
	ByteCodeRunLine
	ByteCodeRunCommand
	ByteCodeAddOption
	ByteCodeShowOptions
	ByteCodePushString
	ByteCodePushFloat
	ByteCodePushBool
	ByteCodePushNull
	ByteCodeJumpIfFalse
	ByteCodePop
	ByteCodeCallFunc
	ByteCodePushVariable
	ByteCodeStoreVariable
	ByteCodeStop
	ByteCodeRunNode

	numByteCodes
)

func (b ByteCode) String() string {
	if int(b) < 0 || int(b) >= len(byteCodeNames) {
		return fmt.Sprintf("ByteCode(%d)", int32(b))
	}
	return byteCodeNames[b]
}

var byteCodeNames = [numByteCodes]string{
	ByteCodeJumpTo:        "JumpTo",
	ByteCodeJump:          "Jump",
	ByteCodeRunLine:       "RunLine",
	ByteCodeRunCommand:    "RunCommand",
	ByteCodeAddOption:     "AddOption",
	ByteCodeShowOptions:   "ShowOptions",
	ByteCodePushString:    "PushString",
	ByteCodePushFloat:     "PushFloat",
	ByteCodePushBool:      "PushBool",
	ByteCodePushNull:      "PushNull",
	ByteCodeJumpIfFalse:   "JumpIfFalse",
	ByteCodePop:           "Pop",
	ByteCodeCallFunc:      "CallFunc",
	ByteCodePushVariable:  "PushVariable",
	ByteCodeStoreVariable: "StoreVariable",
	ByteCodeStop:          "Stop",
	ByteCodeRunNode:       "RunNode",
}

// Instruction is a single VM operation plus its positional operand list
// (spec.md §3).
type Instruction struct {
	Opcode   ByteCode
	Operands []Operand
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s%v", i.Opcode, i.Operands)
}

// Operand returns the operand at index, or an absent Operand if index is
// out of range.
func (i Instruction) Operand(index int) Operand {
	if index < 0 || index >= len(i.Operands) {
		return Operand{}
	}
	return i.Operands[index]
}

// Node is a named sequence of instructions with a label table (spec.md
// §3).
type Node struct {
	Name         string
	Instructions []Instruction
	Labels       map[string]int
}

// ResolveLabel returns the instruction offset for name, failing
// ErrInvalidLabel if name is not in the node's label table (spec.md §3).
func (n *Node) ResolveLabel(name string) (int, error) {
	pc, ok := n.Labels[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q in node %q", ErrInvalidLabel, name, n.Name)
	}
	return pc, nil
}

// Program is an in-memory, already-decoded compiled program: a set of
// nodes keyed by name plus a set of initial variable values (spec.md
// §3). Keys are unique across nodes and across initial values; producing
// a Program with overlapping keys from multiple sources is the Builder's
// job to reject (see story.go).
type Program struct {
	Nodes         map[string]*Node
	InitialValues map[string]Value
}
