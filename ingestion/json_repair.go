// Copyright 2026 Chalkpath Labs
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


package ingestion

import "strings"

// stripCodeFences removes a markdown code fence wrapper from an LLM
// response, tolerating a "json" language tag and surrounding prose.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "```"); start >= 0 {
		s = s[start+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

// repairJSON fixes the one malformation small models produce often enough
// to matter: a key whose opening quote was dropped, as in `{title": ...}`
// or `, summary": ...`. Every occurrence of `":` is checked by walking
// backwards over the key name; when the character before the key is `{`
// or `,` instead of a quote, the missing quote is inserted.
func repairJSON(s string) string {
	runes := []rune(s)

	var inserts []int
	for i := 0; i+1 < len(runes); i++ {
		if runes[i] != '"' || runes[i+1] != ':' {
			continue
		}

		// Walk back over the key name.
		j := i - 1
		for j >= 0 && isKeyRune(runes[j]) {
			j--
		}
		if j == i-1 {
			continue // empty key name
		}

		// Leading spaces belong between the delimiter and the key, not
		// inside the quoted name.
		start := j + 1
		for start < i && runes[start] == ' ' {
			start++
		}
		if start == i {
			continue
		}

		for j >= 0 && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t') {
			j--
		}
		if j >= 0 && (runes[j] == '{' || runes[j] == ',') {
			inserts = append(inserts, start)
		}
	}
	if len(inserts) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(inserts))
	next := 0
	for i, r := range runes {
		if next < len(inserts) && inserts[next] == i {
			b.WriteRune('"')
			next++
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isKeyRune reports whether r can appear in a metadata key name.
func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == ' '
}
