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

// Package bytecode is the loader collaborator spec.md places outside the
// VM's core: it decodes a compiled Yarn program from its wire
// representation into the plain structs the interpreter consumes. The
// wire schema here is this module's own (field numbers documented
// alongside each type below); spec.md §6 is explicit that byte-level
// compatibility with any particular external compiler is out of scope -
// the only contract the core needs is "deliver a Program".
package bytecode

// Operand is the wire form of a tagged scalar: exactly one of
// StringValue, FloatValue, or BoolValue is meaningful, selected by Kind.
//
// Wire fields: 1 string_value, 2 float_value (fixed32), 3 bool_value
// (varint).
type Operand struct {
	Kind        OperandKind
	StringValue string
	FloatValue  float32
	BoolValue   bool
}

// OperandKind discriminates which field of Operand is populated.
type OperandKind int

const (
	// OperandAbsent marks an Operand with no value at all (the "Operand is
	// an optional Value" case from spec.md §3).
	OperandAbsent OperandKind = iota
	OperandString
	OperandFloat
	OperandBool
)

// GetStringValue returns the operand's string value, or "" if it isn't a
// string. Named to match the accessor convention of generated protobuf
// code and the teacher's own operand accessors.
func (o *Operand) GetStringValue() string {
	if o == nil || o.Kind != OperandString {
		return ""
	}
	return o.StringValue
}

// GetFloatValue returns the operand's float value, or 0 if it isn't a
// float.
func (o *Operand) GetFloatValue() float32 {
	if o == nil || o.Kind != OperandFloat {
		return 0
	}
	return o.FloatValue
}

// GetBoolValue returns the operand's bool value, or false if it isn't a
// bool.
func (o *Operand) GetBoolValue() bool {
	if o == nil || o.Kind != OperandBool {
		return false
	}
	return o.BoolValue
}

// Instruction is the wire form of a single VM operation.
//
// Wire fields: 1 opcode (varint), 2 operands (repeated, length-delimited
// Operand messages).
type Instruction struct {
	Opcode   int32
	Operands []*Operand
}

// Node is the wire form of a named instruction sequence with a label
// table.
//
// Wire fields: 1 name (string), 2 instructions (repeated, length-
// delimited Instruction messages), 3 labels (repeated LabelEntry
// messages).
type Node struct {
	Name         string
	Instructions []*Instruction
	Labels       map[string]int32
}

// Program is the wire form of a compiled Yarn program: every node plus
// every declared initial variable value.
//
// Wire fields: 1 nodes (repeated, length-delimited Node messages), 2
// initial_values (repeated InitialValueEntry messages).
type Program struct {
	Nodes         map[string]*Node
	InitialValues map[string]*Operand
}
