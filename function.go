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

import "math"

// CallContext is passed to every host function invoked from bytecode. It
// exposes the current Node, the Story, and the live VariableStore, which
// is how builtins like visited/visited_count read the visit-counter
// variables (spec.md §4.E).
type CallContext struct {
	Node      *Node
	Story     *Story
	Variables VariableStore
}

// function is the uniform, type-erased shape every registered callable is
// reduced to: it receives the already-arity-checked argument slice and
// returns a single Value or a CallError. The Library checks arity before
// calling invoke; converting each argument to its parameter type is done
// inside invoke by the RegisterN adapter that built it.
type function struct {
	arity  int
	invoke func(ctx CallContext, args []Value) (Value, error)
}

// Library is a registry mapping names to host functions of arbitrary
// arity and parameter types, presenting a uniform dispatch surface to the
// interpreter (spec.md §4.E).
type Library struct {
	functions map[string]function
}

// NewLibrary returns an empty Library with no functions registered.
func NewLibrary() *Library {
	return &Library{functions: make(map[string]function)}
}

// Builtins returns a new Library seeded with the mandatory builtins
// spec.md §4.E requires (visited, visited_count, floor, ceil, the Bool.*
// operators, Number.Add) plus the additional arithmetic/comparison
// operators SPEC_FULL.md §4 adds so that a compiled program's full
// expression operator set has somewhere to dispatch to.
func Builtins() *Library {
	lib := NewLibrary()

	lib.Register1("visited", func(ctx CallContext, name string) (Value, error) {
		count, err := visitedCount(ctx, name)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(count > 0), nil
	})
	lib.Register1("visited_count", func(ctx CallContext, name string) (Value, error) {
		count, err := visitedCount(ctx, name)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(count), nil
	})

	lib.RegisterNumber1("floor", func(a float32) float32 { return float32(math.Floor(float64(a))) })
	lib.RegisterNumber1("ceil", func(a float32) float32 { return float32(math.Ceil(float64(a))) })

	lib.RegisterBool2("Bool.EqualTo", func(a, b bool) bool { return a == b })
	lib.RegisterBool1Ret("Bool.Not", func(a bool) bool { return !a })
	lib.RegisterBool2("Bool.And", func(a, b bool) bool { return a && b })
	lib.RegisterBool2Or("Bool.Or", func(a, b bool) bool { return a || b })

	lib.RegisterNumber2Arith("Number.Add", func(a, b float32) float32 { return a + b })
	lib.RegisterNumber2Arith("Number.Minus", func(a, b float32) float32 { return a - b })
	lib.RegisterNumber2Arith("Number.Multiply", func(a, b float32) float32 { return a * b })
	lib.RegisterNumber2Arith("Number.Divide", func(a, b float32) float32 { return a / b })
	lib.RegisterNumber2Arith("Number.Modulo", func(a, b float32) float32 {
		return float32(math.Mod(float64(a), float64(b)))
	})
	lib.RegisterNumber2Cmp("Number.EqualTo", func(a, b float32) bool { return a == b })
	lib.RegisterNumber2Cmp("Number.NotEqualTo", func(a, b float32) bool { return a != b })
	lib.RegisterNumber2Cmp("Number.GreaterThan", func(a, b float32) bool { return a > b })
	lib.RegisterNumber2Cmp("Number.GreaterThanOrEqualTo", func(a, b float32) bool { return a >= b })
	lib.RegisterNumber2Cmp("Number.LessThan", func(a, b float32) bool { return a < b })
	lib.RegisterNumber2Cmp("Number.LessThanOrEqualTo", func(a, b float32) bool { return a <= b })

	lib.RegisterString2Cmp("String.EqualTo", func(a, b string) bool { return a == b })
	lib.RegisterString2Cmp("String.NotEqualTo", func(a, b string) bool { return a != b })
	lib.Register2("String.Add", func(ctx CallContext, a, b string) (Value, error) {
		return StringValue(a + b), nil
	})

	return lib
}

func visitedCount(ctx CallContext, name string) (float32, error) {
	varName := VisitCountVariable(name)
	if v, ok := ctx.Variables.Get(varName); ok {
		return v.AsNumber()
	}
	if ctx.Story != nil {
		if v, ok := ctx.Story.InitialValue(varName); ok {
			return v.AsNumber()
		}
	}
	return 0, nil
}

// Register adds a function under name with an explicit arity and invoke
// func. It is the primitive every RegisterN helper below is built on.
func (l *Library) Register(name string, arity int, invoke func(CallContext, []Value) (Value, error)) {
	l.functions[name] = function{arity: arity, invoke: invoke}
}

// Register1 registers a 1-argument, string-typed function.
func (l *Library) Register1(name string, fn func(CallContext, string) (Value, error)) {
	l.Register(name, 1, func(ctx CallContext, args []Value) (Value, error) {
		s, err := args[0].AsString()
		if err != nil {
			return Value{}, &CallError{Function: name, Expected: "string", Got: args[0], Err: ErrInvalidArguments}
		}
		return fn(ctx, s)
	})
}

// Register2 registers a 2-argument, string-typed function.
func (l *Library) Register2(name string, fn func(CallContext, string, string) (Value, error)) {
	l.Register(name, 2, func(ctx CallContext, args []Value) (Value, error) {
		a, err := args[0].AsString()
		if err != nil {
			return Value{}, &CallError{Function: name, Expected: "string", Got: args[0], Err: ErrInvalidArguments}
		}
		b, err := args[1].AsString()
		if err != nil {
			return Value{}, &CallError{Function: name, Expected: "string", Got: args[1], Err: ErrInvalidArguments}
		}
		return fn(ctx, a, b)
	})
}

// RegisterString2Cmp registers a 2-string-argument function returning
// bool.
func (l *Library) RegisterString2Cmp(name string, fn func(string, string) bool) {
	l.Register2(name, func(_ CallContext, a, b string) (Value, error) {
		return BoolValue(fn(a, b)), nil
	})
}

// RegisterNumber1 registers a 1-number-argument function returning a
// number.
func (l *Library) RegisterNumber1(name string, fn func(float32) float32) {
	l.Register(name, 1, func(_ CallContext, args []Value) (Value, error) {
		a, err := numberArg(name, args, 0)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(fn(a)), nil
	})
}

// RegisterNumber2Arith registers a 2-number-argument function returning a
// number.
func (l *Library) RegisterNumber2Arith(name string, fn func(a, b float32) float32) {
	l.Register(name, 2, func(_ CallContext, args []Value) (Value, error) {
		a, err := numberArg(name, args, 0)
		if err != nil {
			return Value{}, err
		}
		b, err := numberArg(name, args, 1)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(fn(a, b)), nil
	})
}

// RegisterNumber2Cmp registers a 2-number-argument function returning
// bool.
func (l *Library) RegisterNumber2Cmp(name string, fn func(a, b float32) bool) {
	l.Register(name, 2, func(_ CallContext, args []Value) (Value, error) {
		a, err := numberArg(name, args, 0)
		if err != nil {
			return Value{}, err
		}
		b, err := numberArg(name, args, 1)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(fn(a, b)), nil
	})
}

// RegisterBool1Ret registers a 1-bool-argument function returning bool.
func (l *Library) RegisterBool1Ret(name string, fn func(bool) bool) {
	l.Register(name, 1, func(_ CallContext, args []Value) (Value, error) {
		a, err := boolArg(name, args, 0)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(fn(a)), nil
	})
}

// RegisterBool2 registers a 2-bool-argument function returning bool.
func (l *Library) RegisterBool2(name string, fn func(a, b bool) bool) {
	l.Register(name, 2, func(_ CallContext, args []Value) (Value, error) {
		a, err := boolArg(name, args, 0)
		if err != nil {
			return Value{}, err
		}
		b, err := boolArg(name, args, 1)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(fn(a, b)), nil
	})
}

// RegisterBool2Or is RegisterBool2 with a different name to keep the
// builtins list's registrations grouped one-call-per-operator.
func (l *Library) RegisterBool2Or(name string, fn func(a, b bool) bool) { l.RegisterBool2(name, fn) }

func numberArg(fn string, args []Value, i int) (float32, error) {
	v, err := args[i].AsNumber()
	if err != nil {
		return 0, &CallError{Function: fn, Expected: "number", Got: args[i], Err: ErrInvalidArguments}
	}
	return v, nil
}

func boolArg(fn string, args []Value, i int) (bool, error) {
	v, err := args[i].AsBool()
	if err != nil {
		return false, &CallError{Function: fn, Expected: "bool", Got: args[i], Err: ErrInvalidArguments}
	}
	return v, nil
}

// Call dispatches to the named function: looks it up, checks arity,
// converts arguments, invokes, and returns the result (spec.md §4.E,
// steps 1-5).
func (l *Library) Call(name string, ctx CallContext, args []Value) (Value, error) {
	fn, ok := l.functions[name]
	if !ok {
		return Value{}, &CallError{Function: name, Err: ErrUnknownFunction}
	}
	if len(args) != fn.arity {
		return Value{}, &CallError{Function: name, WantN: fn.arity, GotN: len(args), Err: ErrInvalidArgumentCount}
	}
	return fn.invoke(ctx, args)
}
