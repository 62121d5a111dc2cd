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

// Checkpoint is an immutable, resumable position in a Story: the current
// node, the offset of the next instruction to run, and a snapshot of the
// evaluation stack (spec.md §3, §4.F).
//
// Checkpoint observes value semantics: SelectOption and every Step call
// return a new Checkpoint rather than mutating the one passed in, so a
// saved Checkpoint remains valid to resume from multiple times.
type Checkpoint struct {
	node  *Node
	pc    int
	stack EvaluationStack

	// complete is set once a Stop instruction has been executed from this
	// checkpoint's lineage; Step refuses to run a checkpoint marked
	// complete (spec.md §9, open question 2).
	complete bool
}

// Node returns the node this checkpoint resumes into.
func (c Checkpoint) Node() *Node { return c.node }

// PC returns the offset of the next instruction to execute.
func (c Checkpoint) PC() int { return c.pc }

// Complete reports whether the story has already finished at this
// checkpoint.
func (c Checkpoint) Complete() bool { return c.complete }

// newCheckpoint builds a Checkpoint at (node, pc) with the given stack.
func newCheckpoint(node *Node, pc int, stack EvaluationStack) Checkpoint {
	return Checkpoint{node: node, pc: pc, stack: stack}
}

// SelectOption returns a new Checkpoint with target pushed onto the
// stack. This is the mechanism by which an embedder communicates the
// chosen option's target to the Jump instruction that follows
// ShowOptions (spec.md §4.F, "option-selection protocol").
//
// The receiver is left unmodified: the stack is cloned before the push,
// so a checkpoint saved before calling SelectOption remains resumable to
// its original state.
func (c Checkpoint) SelectOption(target string) Checkpoint {
	stack := c.stack.Clone()
	stack.Push(StringValue(target))
	return Checkpoint{node: c.node, pc: c.pc, stack: stack, complete: c.complete}
}
