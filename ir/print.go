package ir

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// WriteTo writes the function to w in a human-readable SSA listing.
func (f *Function) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %s", vname(p.ID), p.Type)
	}
	fmt.Fprintf(&buf, "func %s(%s):\n", f.Name, strings.Join(params, ", "))
	for _, b := range f.Blocks {
		if b.Name != "" {
			fmt.Fprintf(&buf, "%s: ; %s\n", bname(b.ID), b.Name)
		} else {
			fmt.Fprintf(&buf, "%s:\n", bname(b.ID))
		}
		for _, in := range b.Instrs {
			fmt.Fprintf(&buf, "\t%s\n", in)
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (f *Function) String() string {
	var buf bytes.Buffer
	f.WriteTo(&buf)
	return buf.String()
}
