package component

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known prop keys. Components may carry any other key as well.
const (
	PropText        = "text"
	PropLabel       = "label"
	PropPlaceholder = "placeholder"
	PropSrc         = "src"
	PropAlt         = "alt"
	PropChartType   = "chartType"
	PropData        = "data"
	PropDisabled    = "disabled"
	PropVariant     = "variant"
)

type PropKind uint8

const (
	PropNull PropKind = iota
	PropString
	PropNumber
	PropBool
	PropList
)

// PropValue is a tagged union over the primitive values and arrays a
// component prop may hold. The zero value is JSON null.
type PropValue struct {
	kind PropKind
	str  string
	num  float64
	b    bool
	list []PropValue
}

func String(s string) PropValue     { return PropValue{kind: PropString, str: s} }
func Number(n float64) PropValue    { return PropValue{kind: PropNumber, num: n} }
func Bool(b bool) PropValue         { return PropValue{kind: PropBool, b: b} }
func List(v ...PropValue) PropValue { return PropValue{kind: PropList, list: v} }

func (v PropValue) Kind() PropKind { return v.kind }

func (v PropValue) AsString() (string, bool)  { return v.str, v.kind == PropString }
func (v PropValue) AsNumber() (float64, bool) { return v.num, v.kind == PropNumber }
func (v PropValue) AsBool() (bool, bool)      { return v.b, v.kind == PropBool }

// AsList returns a copy of the list elements.
func (v PropValue) AsList() ([]PropValue, bool) {
	if v.kind != PropList {
		return nil, false
	}
	return cloneValues(v.list), true
}

func (v PropValue) String() string {
	switch v.kind {
	case PropString:
		return v.str
	case PropNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case PropBool:
		return strconv.FormatBool(v.b)
	case PropList:
		return fmt.Sprint(v.list)
	}
	return "null"
}

// Equal compares two values structurally.
func (v PropValue) Equal(o PropValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case PropString:
		return v.str == o.str
	case PropNumber:
		return v.num == o.num
	case PropBool:
		return v.b == o.b
	case PropList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
	}
	return true
}

func (v PropValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case PropString:
		return json.Marshal(v.str)
	case PropNumber:
		return json.Marshal(v.num)
	case PropBool:
		return json.Marshal(v.b)
	case PropList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return []byte("null"), nil
}

func (v *PropValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := propFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func propFromAny(raw any) (PropValue, error) {
	switch x := raw.(type) {
	case nil:
		return PropValue{}, nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case bool:
		return Bool(x), nil
	case []any:
		list := make([]PropValue, len(x))
		for i, item := range x {
			v, err := propFromAny(item)
			if err != nil {
				return PropValue{}, fmt.Errorf("index %d: %w", i, err)
			}
			list[i] = v
		}
		return List(list...), nil
	}
	return PropValue{}, fmt.Errorf("unsupported prop value of type %T", raw)
}

// Props is the component-specific property bag.
type Props map[string]PropValue

// String returns the string prop at key, or "" when absent or not a string.
func (p Props) String(key string) string {
	s, _ := p[key].AsString()
	return s
}

// Number returns the numeric prop at key and whether it was present as a number.
func (p Props) Number(key string) (float64, bool) {
	return p[key].AsNumber()
}

// Bool returns the boolean prop at key, false when absent.
func (p Props) Bool(key string) bool {
	b, _ := p[key].AsBool()
	return b
}

// Merge returns a new map with other's entries laid over p's.
func (p Props) Merge(other Props) Props {
	out := make(Props, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (p Props) clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		if v.kind == PropList {
			v.list = cloneValues(v.list)
		}
		out[k] = v
	}
	return out
}

func cloneValues(in []PropValue) []PropValue {
	if in == nil {
		return nil
	}
	out := make([]PropValue, len(in))
	for i, v := range in {
		if v.kind == PropList {
			v.list = cloneValues(v.list)
		}
		out[i] = v
	}
	return out
}
