package transport

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// decodeXML converts a query-protocol XML document into nested maps the
// extraction layer can address. Repeated same-named children become a
// sequence, elements with only character data become strings, and the
// document root is unwrapped. When the root carries an "<Operation>Result"
// child (rds-style responses) that child is returned; ec2-style responses
// keep the root's own children.
func decodeXML(r io.Reader, operation string) (any, error) {
	dec := xml.NewDecoder(r)

	root, _, err := decodeElement(dec, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	m, ok := root.(map[string]any)
	if !ok {
		return root, nil
	}
	if result, ok := m[operation+"Result"]; ok {
		return result, nil
	}
	delete(m, "ResponseMetadata")
	delete(m, "requestId")
	return m, nil
}

// decodeElement consumes tokens until the end of the current element. The
// name parameter is "" at document level, where the first start element is
// the root and its decoded children are returned.
func decodeElement(dec *xml.Decoder, name string) (any, bool, error) {
	children := map[string]any{}
	var text strings.Builder
	sawChild := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if name == "" {
				return children, sawChild, nil
			}
			return nil, false, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, false, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, _, err := decodeElement(dec, t.Name.Local)
			if err != nil {
				return nil, false, err
			}
			sawChild = true
			if name == "" {
				// document root: unwrap
				return child, true, nil
			}
			addChild(children, t.Name.Local, child)
		case xml.EndElement:
			if !sawChild {
				return strings.TrimSpace(text.String()), false, nil
			}
			return children, true, nil
		case xml.CharData:
			text.Write(t)
		}
	}
}

// addChild inserts a decoded child, promoting repeats to a sequence.
func addChild(m map[string]any, key string, v any) {
	existing, ok := m[key]
	if !ok {
		m[key] = v
		return
	}
	if seq, ok := existing.([]any); ok {
		m[key] = append(seq, v)
		return
	}
	m[key] = []any{existing, v}
}
