package nsof

import (
	"fmt"
	"strings"
)

// Dump renders o as indented text. Objects already printed are shown as
// <#n>, where n counts heap objects in print order. Frame keys are printed
// inline and not counted, so n is not the precedent id used on the wire.
func Dump(o Object) string {
	d := dumper{seen: make(map[Object]int)}
	d.dump(o, 0)
	return d.b.String()
}

type dumper struct {
	b    strings.Builder
	seen map[Object]int
}

func (d *dumper) dump(o Object, depth int) {
	if isNilObject(o) {
		d.b.WriteString("nil")
		return
	}
	if isHeap(o) {
		if id, ok := d.seen[o]; ok {
			fmt.Fprintf(&d.b, "<#%d>", id)
			return
		}
		d.seen[o] = len(d.seen)
	}
	indent := strings.Repeat("  ", depth+1)

	switch v := o.(type) {
	case Immediate:
		d.b.WriteString(v.String())
	case Character:
		fmt.Fprintf(&d.b, "$%c", rune(v))
	case UnicodeCharacter:
		fmt.Fprintf(&d.b, "$\\u%04X", uint16(v))
	case Nil:
		d.b.WriteString("nil")
	case *Symbol:
		fmt.Fprintf(&d.b, "'%s", v.Name)
	case *String:
		fmt.Fprintf(&d.b, "%q", v.Value)
	case *SmallRect:
		fmt.Fprintf(&d.b, "{top: %d, left: %d, bottom: %d, right: %d}", v.Top, v.Left, v.Bottom, v.Right)
	case *Binary:
		d.b.WriteString("<binary ")
		d.dump(v.Class, depth)
		fmt.Fprintf(&d.b, ", %d bytes>", len(v.Data))
	case *LargeBinary:
		d.b.WriteString("<large binary ")
		d.dump(v.Class, depth)
		fmt.Fprintf(&d.b, ", %d bytes", len(v.Data))
		if v.Compressed {
			fmt.Fprintf(&d.b, ", compander %q", v.Compander)
		}
		d.b.WriteString(">")
	case *Array:
		if v.Class != nil {
			d.b.WriteString("[")
			d.dump(v.Class, depth)
			d.b.WriteString(": ")
		} else {
			d.b.WriteString("[")
		}
		for i, slot := range v.Slots {
			d.b.WriteString("\n" + indent)
			d.dump(slot, depth+1)
			if i < len(v.Slots)-1 {
				d.b.WriteString(",")
			}
		}
		d.b.WriteString("\n" + indent[2:] + "]")
	case *Frame:
		d.b.WriteString("{")
		for i, slot := range v.Slots {
			name := "<no key>"
			if slot.Key != nil {
				name = slot.Key.Name
			}
			fmt.Fprintf(&d.b, "\n%s%s: ", indent, name)
			d.dump(slot.Value, depth+1)
			if i < len(v.Slots)-1 {
				d.b.WriteString(",")
			}
		}
		d.b.WriteString("\n" + indent[2:] + "}")
	default:
		fmt.Fprintf(&d.b, "<%T>", o)
	}
}
