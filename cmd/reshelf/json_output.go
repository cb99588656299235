package main

import (
	"encoding/json"
	"io"
)

// writeJSON prints v as indented JSON. HTML escaping stays off so titles and
// paths such as "Tom & Jerry" appear verbatim.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
