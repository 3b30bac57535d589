/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package meta

// ParseQualType parses the textual form produced by QualType.String:
//
//	<finalTypeName> [const|volatile]* ( "*" [const|volatile]* )* [ "&" | "&&" ]
//
// A trailing "&" or "&&" adds one const indirection level. lookup resolves the
// final type name; nil means the process-wide descriptor table.
func ParseQualType(text string, lookup func(name string) (*Descriptor, bool)) (QualType, error) {
	if lookup == nil {
		lookup = Lookup
	}
	i := skipSpaces(text, 0)
	start := i
	for i < len(text) && isNameChar(text[i]) {
		i++
	}
	if i == start {
		if i == len(text) {
			return QualType{}, parseErr(ErrMissingExpectedChars, i, text)
		}
		return QualType{}, parseErr(ErrUnexpectedChar, i, text)
	}
	final, ok := lookup(text[start:i])
	if !ok {
		return QualType{}, parseErr(ErrUnknownType, start, text)
	}
	q := Direct(final)
	referenced := false
	for {
		i = skipSpaces(text, i)
		if i == len(text) {
			return q, nil
		}
		if referenced {
			return QualType{}, parseErr(ErrUnexpectedChar, i, text)
		}
		c := text[i]
		switch {
		case c == '*' || c == '&':
			quals := QualNone
			if c == '&' {
				quals = QualConst
				referenced = true
				if i+1 < len(text) && text[i+1] == '&' {
					i++
				}
			}
			next, err := q.AddressOf(quals)
			if err != nil {
				return QualType{}, parseErr(ErrInternalLimit, i, text)
			}
			q = next
			i++
		case isLetter(c):
			w := i
			for i < len(text) && isLetter(text[i]) {
				i++
			}
			switch text[w:i] {
			case "const":
				q = q.withQualifiers(0, QualConst)
			case "volatile":
				q = q.withQualifiers(0, QualVolatile)
			default:
				return QualType{}, parseErr(ErrUnexpectedChar, w, text)
			}
		default:
			return QualType{}, parseErr(ErrUnexpectedChar, i, text)
		}
	}
}

// MustParseQualType is like ParseQualType against the process-wide table but panics on error.
func MustParseQualType(text string) QualType {
	q, err := ParseQualType(text, nil)
	if err != nil {
		panic(err)
	}
	return q
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isNameChar(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '.' || c == '[' || c == ']' || c == '/'
}
