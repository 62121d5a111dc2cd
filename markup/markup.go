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

// Package markup resolves the line-markup tags Yarn Spinner scripts
// carry inside line text ("[select value option1=... option2=...]",
// "[plural value one=... other=...]") into plain display strings.
//
// This is deliberately outside the yarn package's core: the interpreter
// only ever emits a raw template key plus a substitutions array
// (spec.md's "rendering is the embedder's job" non-goal). markup is the
// concrete embedder-side consumer of that array.
package markup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// tagBody is the grammar for the text between a markup tag's brackets,
// e.g. "select option1 option1=Actor option2=Actress" or
// "plural 3 one=item other=items".
type tagBody struct {
	Name  string  `@Ident`
	Value string  `(@Ident | @Int | @Float)?`
	Attrs []*attr `@@*`
}

type attr struct {
	Key string `@Ident "="`
	Val string `@(Ident | Int | Float)`
}

var tagParser = participle.MustBuild[tagBody]()

// Substitute replaces "{0}", "{1}", ... in text with the corresponding
// entry of subs, the same positional convention RunCommand uses
// (spec.md §4.G).
func Substitute(text string, subs []string) string {
	for i, s := range subs {
		text = strings.ReplaceAll(text, fmt.Sprintf("{%d}", i), s)
	}
	return text
}

// ParseLine resolves every "[...]" markup tag in text (after positional
// substitution) to plain display text, choosing plural/select branches
// with resolveTag.
func ParseLine(text string, subs []string, locale string) (string, error) {
	text = Substitute(text, subs)

	var out strings.Builder
	for {
		start := strings.IndexByte(text, '[')
		if start < 0 {
			out.WriteString(text)
			break
		}
		end := strings.IndexByte(text[start:], ']')
		if end < 0 {
			out.WriteString(text)
			break
		}
		end += start

		out.WriteString(text[:start])
		resolved, err := resolveTag(text[start+1:end], locale)
		if err != nil {
			return "", err
		}
		out.WriteString(resolved)
		text = text[end+1:]
	}
	return out.String(), nil
}

func resolveTag(body string, locale string) (string, error) {
	tag, err := tagParser.ParseString("", body)
	if err != nil {
		return "", fmt.Errorf("markup: parsing tag %q: %w", body, err)
	}

	attrs := make(map[string]string, len(tag.Attrs))
	for _, a := range tag.Attrs {
		attrs[a.Key] = a.Val
	}

	switch tag.Name {
	case "select":
		if v, ok := attrs[tag.Value]; ok {
			return v, nil
		}
		return "", fmt.Errorf("markup: select tag has no option %q", tag.Value)
	case "plural":
		if _, err := strconv.ParseFloat(tag.Value, 64); err != nil {
			return "", fmt.Errorf("markup: plural tag value %q is not a number: %w", tag.Value, err)
		}
		category := pluralCategory(locale, tag.Value)
		if v, ok := attrs[category]; ok {
			return v, nil
		}
		if v, ok := attrs["other"]; ok {
			return v, nil
		}
		return "", fmt.Errorf("markup: plural tag has no %q or %q branch", category, "other")
	default:
		return "", fmt.Errorf("markup: unknown tag %q", tag.Name)
	}
}
