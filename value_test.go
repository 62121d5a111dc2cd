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

func TestValueStringCoercion(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"string", StringValue("hi"), "hi"},
		{"number", NumberValue(3.5), "3.5"},
		{"integral number", NumberValue(2), "2"},
		{"bool true", BoolValue(true), "true"},
		{"bool false", BoolValue(false), "false"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValueCoercionIsAsymmetric(t *testing.T) {
	// Number and Bool coerce to String (tested above), but String never
	// coerces the other way (spec.md §3).
	s := StringValue("not a number")
	if _, err := s.AsNumber(); err == nil {
		t.Error("AsNumber() on a string Value = nil error, want UnexpectedTypeError")
	} else if !errors.As(err, new(*UnexpectedTypeError)) {
		t.Errorf("AsNumber() error = %v, want *UnexpectedTypeError", err)
	}
	if _, err := s.AsBool(); err == nil {
		t.Error("AsBool() on a string Value = nil error, want UnexpectedTypeError")
	}
}

func TestOperandMissing(t *testing.T) {
	var o Operand
	if o.HasValue() {
		t.Error("zero Operand HasValue() = true, want false")
	}
	if _, err := o.String(); !errors.Is(err, ErrMissingOperand) {
		t.Errorf("String() error = %v, want ErrMissingOperand", err)
	}
	if _, err := o.Number(); !errors.Is(err, ErrMissingOperand) {
		t.Errorf("Number() error = %v, want ErrMissingOperand", err)
	}
}

func TestOperandRoundTrip(t *testing.T) {
	o := NewOperand(NumberValue(42))
	if !o.HasValue() {
		t.Fatal("HasValue() = false, want true")
	}
	n, err := o.Number()
	if err != nil {
		t.Fatalf("Number(): %v", err)
	}
	if n != 42 {
		t.Errorf("Number() = %v, want 42", n)
	}
	if _, err := o.Bool(); err == nil {
		t.Error("Bool() on a number Operand = nil error, want type error")
	}
}
