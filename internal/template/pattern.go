package template

import (
	"fmt"
	"strings"
)

// InferPattern derives an output file name pattern from the template id and
// slot names. The result depends only on its inputs.
//
//	barrel                         {wood}_{metal}_barrel.png
//	keg                            {metal}_keg.png
//	big|medium|small_flask         <size>_{wood}_{glass}_flask.png
//	<other>_flask                  {wood}_{glass}_<id>.png
//	anything else                  {slot1}_{slot2}..._<id>.png
func InferPattern(templateID string, slots []string) string {
	switch templateID {
	case "barrel":
		return "{wood}_{metal}_barrel.png"
	case "keg":
		return "{metal}_keg.png"
	case "big_flask", "medium_flask", "small_flask":
		size, _, _ := strings.Cut(templateID, "_")
		return size + "_{wood}_{glass}_flask.png"
	}
	if strings.HasSuffix(templateID, "_flask") {
		return "{wood}_{glass}_" + templateID + ".png"
	}

	parts := make([]string, 0, len(slots)+1)
	for _, s := range slots {
		parts = append(parts, "{"+s+"}")
	}
	parts = append(parts, templateID+".png")
	return strings.Join(parts, "_")
}

// token is one piece of a parsed pattern: literal text or a placeholder name.
type token struct {
	text        string
	placeholder bool
}

// parsePattern splits pattern into literals and {name} placeholders. "{{" and
// "}}" stand for literal braces.
func parsePattern(pattern string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '{':
			if i+1 < len(pattern) && pattern[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(pattern[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("pattern %q: unclosed '{'", pattern)
			}
			name := pattern[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, "{") {
				return nil, fmt.Errorf("pattern %q: invalid placeholder %q", pattern, "{"+name+"}")
			}
			flush()
			tokens = append(tokens, token{text: name, placeholder: true})
			i += end + 1
		case '}':
			if i+1 < len(pattern) && pattern[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("pattern %q: single '}' encountered", pattern)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return tokens, nil
}

// Placeholders returns the placeholder names referenced by pattern, in order of
// first appearance.
func Placeholders(pattern string) ([]string, error) {
	tokens, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	var names []string
	seen := make(map[string]bool)
	for _, t := range tokens {
		if t.placeholder && !seen[t.text] {
			seen[t.text] = true
			names = append(names, t.text)
		}
	}
	return names, nil
}

// FormatPattern substitutes {name} placeholders with values[name]. A placeholder
// with no value is an ErrUndeclaredPlaceholder error.
func FormatPattern(pattern string, values map[string]string) (string, error) {
	tokens, err := parsePattern(pattern)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, t := range tokens {
		if !t.placeholder {
			b.WriteString(t.text)
			continue
		}
		v, ok := values[t.text]
		if !ok {
			return "", fmt.Errorf("%w: pattern %q references {%s}", ErrUndeclaredPlaceholder, pattern, t.text)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Validate checks that every placeholder in the output pattern names a slot.
func (d *Def) Validate() error {
	names, err := Placeholders(d.Pattern)
	if err != nil {
		return fmt.Errorf("template %q: %w", d.ID, err)
	}

	slots := make(map[string]bool, len(d.Slots))
	for _, s := range d.Slots {
		slots[s.Name] = true
	}
	for _, n := range names {
		if !slots[n] {
			return fmt.Errorf("%w: template %q pattern %q references {%s} (slots: %s)",
				ErrUndeclaredPlaceholder, d.ID, d.Pattern, n, strings.Join(d.SlotNames(), ", "))
		}
	}
	return nil
}
