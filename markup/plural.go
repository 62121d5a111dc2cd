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

package markup

import (
	"strconv"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

// pluralCategory picks the CLDR plural category ("zero", "one", "two",
// "few", "many", "other") that applies to the decimal literal n (kept as
// it appeared in the tag, so "1" and "1.0" carry different v/w operands
// per the CLDR plural rule spec) in the given locale, falling back to
// English rules if the locale can't be resolved.
func pluralCategory(locale string, n string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	i, v, w, f, t, c := pluralOperands(n)
	switch plural.Cardinal.MatchPlural(tag, i, v, w, f, t, c) {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}

// pluralOperands derives the CLDR plural rule operands i, v, w, f, t, c
// (Unicode TR35 §4.2) from a decimal literal's own textual form. c (the
// compact decimal exponent) is always 0: tag values never arrive in
// scientific notation.
func pluralOperands(n string) (i, v, w, f, t, c int64) {
	intPart, fracPart, _ := strings.Cut(n, ".")

	iv, _ := strconv.ParseInt(intPart, 10, 64)
	i = iv
	v = int64(len(fracPart))
	if fracPart != "" {
		fv, _ := strconv.ParseInt(fracPart, 10, 64)
		f = fv
	}

	trimmed := strings.TrimRight(fracPart, "0")
	w = int64(len(trimmed))
	if trimmed != "" {
		tv, _ := strconv.ParseInt(trimmed, 10, 64)
		t = tv
	}
	return i, v, w, f, t, 0
}
