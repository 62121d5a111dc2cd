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

package bytecode

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers for the wire schema documented on each type in
// bytecode.go.
const (
	fieldOperandString = protowire.Number(1)
	fieldOperandFloat  = protowire.Number(2)
	fieldOperandBool   = protowire.Number(3)

	fieldInstructionOpcode   = protowire.Number(1)
	fieldInstructionOperands = protowire.Number(2)

	fieldNodeName         = protowire.Number(1)
	fieldNodeInstructions = protowire.Number(2)
	fieldNodeLabels       = protowire.Number(3)

	fieldLabelEntryName   = protowire.Number(1)
	fieldLabelEntryOffset = protowire.Number(2)

	fieldProgramNodes         = protowire.Number(1)
	fieldProgramInitialValues = protowire.Number(2)

	fieldEntryName  = protowire.Number(1)
	fieldEntryValue = protowire.Number(2)
)

// ErrTruncated names the "input ended in the middle of a field" failure.
// The decoders in this file do not return it: truncated or malformed
// input is reported as the error protowire.ParseError produces.
var ErrTruncated = fmt.Errorf("bytecode: truncated message")

// EncodeOperand appends op's wire encoding to b.
func EncodeOperand(b []byte, op *Operand) []byte {
	if op == nil {
		return b
	}
	switch op.Kind {
	case OperandString:
		b = protowire.AppendTag(b, fieldOperandString, protowire.BytesType)
		b = protowire.AppendString(b, op.StringValue)
	case OperandFloat:
		b = protowire.AppendTag(b, fieldOperandFloat, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(op.FloatValue))
	case OperandBool:
		b = protowire.AppendTag(b, fieldOperandBool, protowire.VarintType)
		var v uint64
		if op.BoolValue {
			v = 1
		}
		b = protowire.AppendVarint(b, v)
	}
	return b
}

// DecodeOperand decodes a single Operand message from b.
func DecodeOperand(b []byte) (*Operand, error) {
	op := &Operand{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldOperandString:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			op.Kind, op.StringValue = OperandString, v
			b = b[n:]
		case fieldOperandFloat:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			op.Kind, op.FloatValue = OperandFloat, math.Float32frombits(v)
			b = b[n:]
		case fieldOperandBool:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			op.Kind, op.BoolValue = OperandBool, v != 0
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return op, nil
}

// EncodeInstruction appends instr's wire encoding to b.
func EncodeInstruction(b []byte, instr *Instruction) []byte {
	b = protowire.AppendTag(b, fieldInstructionOpcode, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(uint32(instr.Opcode)))
	for _, op := range instr.Operands {
		b = protowire.AppendTag(b, fieldInstructionOperands, protowire.BytesType)
		b = protowire.AppendBytes(b, EncodeOperand(nil, op))
	}
	return b
}

// DecodeInstruction decodes a single Instruction message from b.
func DecodeInstruction(b []byte) (*Instruction, error) {
	instr := &Instruction{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldInstructionOpcode:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			instr.Opcode = int32(v)
			b = b[n:]
		case fieldInstructionOperands:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			op, err := DecodeOperand(raw)
			if err != nil {
				return nil, err
			}
			instr.Operands = append(instr.Operands, op)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return instr, nil
}

// EncodeNode appends node's wire encoding to b.
func EncodeNode(b []byte, node *Node) []byte {
	b = protowire.AppendTag(b, fieldNodeName, protowire.BytesType)
	b = protowire.AppendString(b, node.Name)
	for _, instr := range node.Instructions {
		b = protowire.AppendTag(b, fieldNodeInstructions, protowire.BytesType)
		b = protowire.AppendBytes(b, EncodeInstruction(nil, instr))
	}
	for name, offset := range node.Labels {
		var entry []byte
		entry = protowire.AppendTag(entry, fieldLabelEntryName, protowire.BytesType)
		entry = protowire.AppendString(entry, name)
		entry = protowire.AppendTag(entry, fieldLabelEntryOffset, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(uint32(offset)))

		b = protowire.AppendTag(b, fieldNodeLabels, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// DecodeNode decodes a single Node message from b.
func DecodeNode(b []byte) (*Node, error) {
	node := &Node{Labels: make(map[string]int32)}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldNodeName:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			node.Name = v
			b = b[n:]
		case fieldNodeInstructions:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			instr, err := DecodeInstruction(raw)
			if err != nil {
				return nil, err
			}
			node.Instructions = append(node.Instructions, instr)
			b = b[n:]
		case fieldNodeLabels:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			name, offset, err := decodeLabelEntry(raw)
			if err != nil {
				return nil, err
			}
			node.Labels[name] = offset
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return node, nil
}

func decodeLabelEntry(b []byte) (string, int32, error) {
	var name string
	var offset int32
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", 0, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldLabelEntryName:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return "", 0, protowire.ParseError(n)
			}
			name = v
			b = b[n:]
		case fieldLabelEntryOffset:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return "", 0, protowire.ParseError(n)
			}
			offset = int32(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", 0, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return name, offset, nil
}

// Encode appends program's wire encoding to b.
func Encode(b []byte, program *Program) []byte {
	for _, node := range program.Nodes {
		b = protowire.AppendTag(b, fieldProgramNodes, protowire.BytesType)
		b = protowire.AppendBytes(b, EncodeNode(nil, node))
	}
	for name, value := range program.InitialValues {
		var entry []byte
		entry = protowire.AppendTag(entry, fieldEntryName, protowire.BytesType)
		entry = protowire.AppendString(entry, name)
		entry = protowire.AppendTag(entry, fieldEntryValue, protowire.BytesType)
		entry = protowire.AppendBytes(entry, EncodeOperand(nil, value))

		b = protowire.AppendTag(b, fieldProgramInitialValues, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// Decode decodes a Program from its wire encoding.
func Decode(b []byte) (*Program, error) {
	program := &Program{
		Nodes:         make(map[string]*Node),
		InitialValues: make(map[string]*Operand),
	}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldProgramNodes:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			node, err := DecodeNode(raw)
			if err != nil {
				return nil, err
			}
			program.Nodes[node.Name] = node
			b = b[n:]
		case fieldProgramInitialValues:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			name, value, err := decodeInitialValueEntry(raw)
			if err != nil {
				return nil, err
			}
			program.InitialValues[name] = value
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return program, nil
}

func decodeInitialValueEntry(b []byte) (string, *Operand, error) {
	var name string
	var value *Operand
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", nil, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldEntryName:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return "", nil, protowire.ParseError(n)
			}
			name = v
			b = b[n:]
		case fieldEntryValue:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", nil, protowire.ParseError(n)
			}
			op, err := DecodeOperand(raw)
			if err != nil {
				return "", nil, err
			}
			value = op
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return "", nil, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return name, value, nil
}
