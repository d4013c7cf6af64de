package runtime

import (
	"bytes"
	"encoding/json"
)

// serialize renders root regions as the BTF payload:
//
//	{"panel-id.0":[{"instance_html":"..."}],"panel-id.2":[...]}
//
// Nested regions are already inlined in their parent's markup.
func serialize(roots []*region) []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range roots {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, r.id)
		buf.WriteString(`:[{"instance_html":`)
		writeJSONString(&buf, r.buf.String())
		buf.WriteString(`}]`)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// writeJSONString writes s as a JSON string safe to embed in a script
// element: markup stays literal except "</script", written as "<\/script".
func writeJSONString(buf *bytes.Buffer, s string) {
	buf.Write(scriptSafeJSON(s))
}

func scriptSafeJSON(v any) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return []byte("null")
	}
	return escapeScriptClose(bytes.TrimSuffix(b.Bytes(), []byte("\n")))
}

func escapeScriptClose(p []byte) []byte {
	const tag = "</script"
	var out []byte
	last := 0
	for i := 0; i+len(tag) <= len(p); i++ {
		if p[i] != '<' || !bytes.EqualFold(p[i:i+len(tag)], []byte(tag)) {
			continue
		}
		if out == nil {
			out = make([]byte, 0, len(p)+8)
		}
		out = append(out, p[last:i+1]...)
		out = append(out, '\\')
		last = i + 1
	}
	if out == nil {
		return p
	}
	return append(out, p[last:]...)
}
