package runtime

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/fold/pkg/domain"
)

func TestWriteStartTag(t *testing.T) {
	tests := []struct {
		name string
		el   domain.Element
		want string
	}{
		{"Bare Attribute", domain.Element{Tag: "div", Attrs: []domain.Attribute{{Name: "hidden"}}}, `<div hidden>`},
		{"Escaped Value", domain.Element{Tag: "a", Attrs: []domain.Attribute{{Name: "title", Value: `say "hi" & <go>`}}},
			`<a title="say &#34;hi&#34; &amp; &lt;go&gt;">`},
		{"Self Closing", domain.Element{Tag: "img", SelfClosing: true, Attrs: []domain.Attribute{{Name: "src", Value: "a.png"}}}, `<img src="a.png"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeStartTag(&buf, tt.el)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
