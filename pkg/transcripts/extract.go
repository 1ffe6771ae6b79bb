package transcripts

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoText means no heuristic could pull transcript text out of a payload.
var ErrNoText = errors.New("no transcript text found in payload")

// Transcript payloads are loosely shaped across providers. The fallback
// chain below mirrors the shapes seen in the wild, most specific first.
var (
	transcriptTextFields = []string{"text", "plainText", "content", "body"}
	arrayFields          = []string{"segments", "entries", "paragraphs", "turns", "speakerTurns", "items"}
	elementTextFields    = []string{"text", "content", "value"}
)

// maxTextFragments caps the deep text collection against pathological
// payloads. It is a safety valve, not a semantic limit.
const maxTextFragments = 50000

// ExtractText extracts plain transcript text from a raw JSON payload.
// The chain, first match wins:
//  1. transcript.{text|plainText|content|body} as a non-blank string;
//  2. the first non-empty newline join over
//     transcript.{segments|entries|paragraphs|turns|speakerTurns|items};
//  3. a non-blank "text" string at the root;
//  4. the step-2 array search at the root;
//  5. a depth-first collection of every string under a key named "text",
//     in document order, with immediately-adjacent duplicates collapsed.
func ExtractText(raw []byte) (string, error) {
	if root, ok := objectMembers(raw); ok {
		if tr, ok := memberValue(root, "transcript"); ok {
			if trMembers, ok := objectMembers(tr); ok {
				for _, field := range transcriptTextFields {
					if s, ok := nonBlankString(trMembers, field); ok {
						return s, nil
					}
				}
				for _, field := range arrayFields {
					if v, ok := memberValue(trMembers, field); ok {
						if joined := joinTextArray(v); joined != "" {
							return joined, nil
						}
					}
				}
			}
		}

		if s, ok := nonBlankString(root, "text"); ok {
			return s, nil
		}

		for _, field := range arrayFields {
			if v, ok := memberValue(root, field); ok {
				if joined := joinTextArray(v); joined != "" {
					return joined, nil
				}
			}
		}
	}

	if chunks := collectTextFields(raw, maxTextFragments); len(chunks) > 0 {
		return strings.TrimSpace(strings.Join(chunks, "\n")), nil
	}

	return "", ErrNoText
}

// joinTextArray joins the text of each array element with newlines. Object
// elements contribute their first non-blank of text/content/value; string
// elements contribute themselves. Anything else is skipped.
func joinTextArray(raw json.RawMessage) string {
	elems, ok := arrayElements(raw)
	if !ok {
		return ""
	}

	var parts []string
	for _, el := range elems {
		if members, ok := objectMembers(el); ok {
			for _, key := range elementTextFields {
				if s, ok := nonBlankString(members, key); ok {
					parts = append(parts, s)
					break
				}
			}
			continue
		}
		if s, ok := stringValue(el); ok {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// collectTextFields walks the payload depth-first and collects every
// non-blank string stored under a key named "text": for each object its
// "text" member first, then every member value in document order, then
// array elements in order. Immediately-adjacent duplicates collapse to one.
func collectTextFields(raw json.RawMessage, maxChunks int) []string {
	var out []string

	var walk func(raw json.RawMessage)
	walk = func(raw json.RawMessage) {
		if len(out) >= maxChunks {
			return
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			return
		}

		switch trimmed[0] {
		case '{':
			members, ok := objectMembers(trimmed)
			if !ok {
				return
			}
			if s, ok := nonBlankString(members, "text"); ok {
				out = append(out, s)
			}
			for _, m := range members {
				walk(m.value)
			}
		case '[':
			elems, ok := arrayElements(trimmed)
			if !ok {
				return
			}
			for _, el := range elems {
				walk(el)
			}
		}
	}
	walk(raw)

	cleaned := make([]string, 0, len(out))
	prev := ""
	havePrev := false
	for _, s := range out {
		if !havePrev || s != prev {
			cleaned = append(cleaned, s)
		}
		prev, havePrev = s, true
	}
	return cleaned
}

// --- ordered raw-JSON helpers (private) ---

// member is one object member with its position preserved. encoding/json
// maps randomize order, so the deep walk reads members off the token stream.
type member struct {
	key   string
	value json.RawMessage
}

func objectMembers(raw []byte) ([]member, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}

	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		members = append(members, member{key: key, value: value})
	}
	return members, true
}

func arrayElements(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, false
	}
	return elems, true
}

func memberValue(members []member, key string) (json.RawMessage, bool) {
	for _, m := range members {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

func stringValue(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

func nonBlankString(members []member, key string) (string, bool) {
	v, ok := memberValue(members, key)
	if !ok {
		return "", false
	}
	s, ok := stringValue(v)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
