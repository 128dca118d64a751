package engine

import (
	"strings"

	"github.com/go-drift/puzzles/pkg/errors"
)

// ConfigDescription describes a configuration dialog.
type ConfigDescription struct {
	Title string                     `json:"title"`
	Items map[string]ItemDescription `json:"items"`
	// Order lists item ids in the engine's presentation order.
	Order []string `json:"order"`
}

// ItemDescription describes one configuration field.
type ItemDescription struct {
	// Type is "string", "boolean" or "choices".
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	ChoiceNames []string `json:"choicenames,omitempty"`
}

// ConfigValues maps item ids to string, bool or int values. When applying
// values, a nil entry or a missing id keeps the current value.
type ConfigValues map[string]any

// Slugify turns a configuration item name into a stable id: lower-case
// ASCII letters and digits, runs of other characters collapsed to a single
// '-', '%' spelled "percent", and everything from a '(' onward dropped once
// the id is non-empty. Non-ASCII input is a contract violation.
func Slugify(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	lastWasDelimiter := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c > 127 {
			errors.Contract("engine.Slugify", "non-ASCII character 0x%02X in %q", c, text)
		}
		if c == '(' && sb.Len() > 0 {
			break
		}
		isAlnum := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
		if !isAlnum && c != '%' {
			lastWasDelimiter = true
			continue
		}
		if lastWasDelimiter && sb.Len() > 0 {
			sb.WriteByte('-')
		}
		switch {
		case c == '%':
			sb.WriteString("percent")
		case c >= 'A' && c <= 'Z':
			sb.WriteByte(c + ('a' - 'A'))
		default:
			sb.WriteByte(c)
		}
		lastWasDelimiter = false
	}
	return sb.String()
}

// SplitChoices splits a delimiter-prefixed choice list.
func SplitChoices(names string) []string {
	if names == "" {
		return nil
	}
	delim := names[:1]
	body := names[1:]
	if body == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(body, delim), delim)
}

func itemID(item *ConfigItem, slugIDs bool) string {
	if slugIDs {
		return Slugify(item.Name)
	}
	return item.Keyword
}

func describeConfig(title string, items []ConfigItem, slugIDs bool) ConfigDescription {
	desc := ConfigDescription{Title: title, Items: make(map[string]ItemDescription, len(items))}
	for i := range items {
		item := &items[i]
		d := ItemDescription{Name: item.Name}
		switch item.Type {
		case ConfigString:
			d.Type = "string"
		case ConfigBoolean:
			d.Type = "boolean"
		case ConfigChoices:
			d.Type = "choices"
			d.ChoiceNames = SplitChoices(item.Choices)
		default:
			d.Type = "unknown"
		}
		id := itemID(item, slugIDs)
		desc.Items[id] = d
		desc.Order = append(desc.Order, id)
	}
	return desc
}

func valuesFromConfig(items []ConfigItem, slugIDs bool) ConfigValues {
	values := make(ConfigValues, len(items))
	for i := range items {
		item := &items[i]
		id := itemID(item, slugIDs)
		switch item.Type {
		case ConfigString:
			values[id] = item.String
		case ConfigBoolean:
			values[id] = item.Bool
		case ConfigChoices:
			values[id] = item.Selected
		}
	}
	return values
}

// applyValues writes non-nil values onto matching items and reports whether
// anything changed. Values of the wrong type are ignored.
func applyValues(items []ConfigItem, values ConfigValues, slugIDs bool) bool {
	changed := false
	for i := range items {
		item := &items[i]
		v, ok := values[itemID(item, slugIDs)]
		if !ok || v == nil {
			continue
		}
		switch item.Type {
		case ConfigString:
			if s, ok := v.(string); ok && s != item.String {
				item.String = s
				changed = true
			}
		case ConfigBoolean:
			if b, ok := v.(bool); ok && b != item.Bool {
				item.Bool = b
				changed = true
			}
		case ConfigChoices:
			if n, ok := asInt(v); ok && n != item.Selected {
				item.Selected = n
				changed = true
			}
		}
	}
	return changed
}

// asInt accepts the integer shapes a value can take after a JSON round trip.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	default:
		return 0, false
	}
}
