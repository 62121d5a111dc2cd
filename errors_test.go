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

func TestUnexpectedTypeErrorIs(t *testing.T) {
	err := &UnexpectedTypeError{Expected: "number", Value: StringValue("x")}
	if !errors.Is(err, &UnexpectedTypeError{}) {
		t.Error("errors.Is(err, &UnexpectedTypeError{}) = false, want true regardless of field values")
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	stepErr := &StepError{Node: "Start", PC: 3, Err: ErrMissingVariable}
	if !errors.Is(stepErr, ErrMissingVariable) {
		t.Error("errors.Is(stepErr, ErrMissingVariable) = false, want true")
	}
	if errors.Unwrap(stepErr) != ErrMissingVariable {
		t.Error("Unwrap() did not return the wrapped error")
	}
}

func TestCallErrorUnwrap(t *testing.T) {
	callErr := &CallError{Function: "foo", Err: ErrUnknownFunction}
	if !errors.Is(callErr, ErrUnknownFunction) {
		t.Error("errors.Is(callErr, ErrUnknownFunction) = false, want true")
	}
	if callErr.Error() == "" {
		t.Error("Error() = \"\", want a message naming the function")
	}
}
