package output

import (
	"encoding/json"
)

// JSONRenderer renders results as JSON.
type JSONRenderer struct {
	Indent bool
}

// Render renders a combined document.
func (r *JSONRenderer) Render(doc *Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	return r.marshal(doc)
}

// RenderEntry renders a single result file.
func (r *JSONRenderer) RenderEntry(e Entry) (string, error) {
	return r.marshal(e)
}

// Header is empty; JSON combined files are rewritten whole on every append.
func (r *JSONRenderer) Header(int) string { return "" }

// Block is empty for the same reason as Header.
func (r *JSONRenderer) Block(Entry) string { return "" }

func (r *JSONRenderer) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if r.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data) + "\n", nil
}
