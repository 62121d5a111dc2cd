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

// Command yarnrun is a minimal terminal embedder for yarnvm: it loads a
// compiled program and a string table, drives the story to completion,
// and resolves options by reading a line number from stdin. It is
// intentionally outside the core module (spec.md's "test harness, CLI
// glue ... external collaborator" scope): it is just one way to drive
// the public Step API.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/narrativelang/yarnvm"
	"github.com/narrativelang/yarnvm/bytecode"
	"github.com/narrativelang/yarnvm/markup"
)

func main() {
	programPath := flag.String("program", "", "path to a compiled .yarnvm program")
	stringsPath := flag.String("strings", "", "path to a $key,text string table")
	startNode := flag.String("node", "Start", "node to begin at")
	locale := flag.String("locale", "en", "BCP-47 locale for markup resolution")
	trace := flag.Bool("trace", false, "log each instruction as it executes")
	flag.Parse()

	if *programPath == "" || *stringsPath == "" {
		fmt.Fprintln(os.Stderr, "usage: yarnrun -program FILE -strings FILE [-node NAME] [-locale TAG] [-trace]")
		os.Exit(2)
	}

	if err := run(*programPath, *stringsPath, *startNode, *locale, *trace); err != nil {
		log.Fatal(err)
	}
}

func run(programPath, stringsPath, startNode, locale string, trace bool) error {
	raw, err := os.ReadFile(programPath)
	if err != nil {
		return fmt.Errorf("reading program: %w", err)
	}
	wireProgram, err := bytecode.Decode(raw)
	if err != nil {
		return fmt.Errorf("decoding program: %w", err)
	}
	program := toProgram(wireProgram)

	strings_, err := readStringTable(stringsPath)
	if err != nil {
		return fmt.Errorf("reading string table: %w", err)
	}

	story, err := (&yarn.Builder{}).Add(program).Build()
	if err != nil {
		return fmt.Errorf("building story: %w", err)
	}

	runner := yarn.NewStoryRunner(yarn.Builtins())
	if trace {
		runner.TraceLogf = func(format string, args ...interface{}) { log.Printf(format, args...) }
	}

	checkpoint, err := story.CheckpointAt(startNode)
	if err != nil {
		return fmt.Errorf("starting at %q: %w", startNode, err)
	}
	vars := make(yarn.MapVariableStore)

	var pendingOptions []yarn.StoryEvent
	in := bufio.NewReader(os.Stdin)

	for {
		var event yarn.StoryEvent
		checkpoint, event, err = runner.Step(story, checkpoint, vars)
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}

		switch event.Kind {
		case yarn.EventShowLine:
			text, err := markup.ParseLine(strings_[event.Key], event.Substitutions, locale)
			if err != nil {
				return err
			}
			fmt.Println(text)

		case yarn.EventCommand:
			fmt.Println("<<" + event.Text + ">>")

		case yarn.EventAddOption:
			pendingOptions = append(pendingOptions, event)

		case yarn.EventShowOptions:
			for i, opt := range pendingOptions {
				text, err := markup.ParseLine(strings_[opt.Key], opt.Substitutions, locale)
				if err != nil {
					return err
				}
				fmt.Printf("%d) %s\n", i+1, text)
			}
			choice, err := readChoice(in, len(pendingOptions))
			if err != nil {
				return err
			}
			checkpoint = checkpoint.SelectOption(pendingOptions[choice].Target)
			pendingOptions = nil

		case yarn.EventComplete:
			return nil
		}
	}
}

func readChoice(in *bufio.Reader, n int) (int, error) {
	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || choice < 1 || choice > n {
			fmt.Printf("enter a number from 1 to %d\n", n)
			continue
		}
		return choice - 1, nil
	}
}

// readStringTable reads a simple "$key,text" CSV-ish line table, one
// entry per line, matching the teacher's own line-oriented testdata
// convention (see vm.go's ReadStringTable).
func readStringTable(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, text, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("malformed string table line %q", line)
		}
		table[key] = text
	}
	return table, sc.Err()
}

// toProgram adapts a decoded wire Program into the core yarn.Program
// model.
func toProgram(p *bytecode.Program) *yarn.Program {
	out := &yarn.Program{
		Nodes:         make(map[string]*yarn.Node),
		InitialValues: make(map[string]yarn.Value),
	}
	for name, n := range p.Nodes {
		out.Nodes[name] = toNode(n)
	}
	for name, v := range p.InitialValues {
		out.InitialValues[name] = toValue(v)
	}
	return out
}

func toNode(n *bytecode.Node) *yarn.Node {
	node := &yarn.Node{
		Name:   n.Name,
		Labels: make(map[string]int),
	}
	for name, offset := range n.Labels {
		node.Labels[name] = int(offset)
	}
	for _, instr := range n.Instructions {
		operands := make([]yarn.Operand, len(instr.Operands))
		for i, op := range instr.Operands {
			operands[i] = toOperand(op)
		}
		node.Instructions = append(node.Instructions, yarn.Instruction{
			Opcode:   yarn.ByteCode(instr.Opcode),
			Operands: operands,
		})
	}
	return node
}

func toOperand(op *bytecode.Operand) yarn.Operand {
	if op == nil {
		return yarn.Operand{}
	}
	switch op.Kind {
	case bytecode.OperandString:
		return yarn.NewOperand(yarn.StringValue(op.StringValue))
	case bytecode.OperandFloat:
		return yarn.NewOperand(yarn.NumberValue(op.FloatValue))
	case bytecode.OperandBool:
		return yarn.NewOperand(yarn.BoolValue(op.BoolValue))
	default:
		return yarn.Operand{}
	}
}

func toValue(op *bytecode.Operand) yarn.Value {
	switch op.Kind {
	case bytecode.OperandFloat:
		return yarn.NumberValue(op.FloatValue)
	case bytecode.OperandBool:
		return yarn.BoolValue(op.BoolValue)
	default:
		return yarn.StringValue(op.StringValue)
	}
}
