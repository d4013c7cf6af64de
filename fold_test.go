package fold_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/aretw0/fold"
	"github.com/aretw0/fold/pkg/adapters/memory"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>t</title></head><body>` +
	`<p>story</p><div id="comments"><p>c1</p></div><footer>f</footer></body></html>`

func strPtr(s string) *string { return &s }

type brokenStore struct{ *memory.Store }

func (brokenStore) Load(context.Context, string) (domain.CriticalLineConfig, error) {
	return domain.CriticalLineConfig{}, errors.New("connection refused")
}

func TestEngine_ResolveConfig(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stored, err := fold.ParseConfig("footer")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "/post.html", stored))

	engine, err := fold.New(fold.WithStore(store), fold.WithDefaultConfigText("h1"))
	require.NoError(t, err)

	explicit, err := fold.ParseConfig("p[2]")
	require.NoError(t, err)

	tests := []struct {
		name string
		req  domain.Request
		want string
	}{
		{"Header Text Wins", domain.Request{URL: "/post.html", ConfigText: strPtr("section"), Config: &explicit}, "section,"},
		{"Request Config", domain.Request{URL: "/post.html", Config: &explicit}, "p[2],"},
		{"Store By Path", domain.Request{URL: "/post.html?x=1"}, "footer,"},
		{"Engine Default", domain.Request{URL: "/other.html"}, "h1,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := engine.ResolveConfig(ctx, tt.req)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, tt.want, cfg.String())
		})
	}

	t.Run("Absent", func(t *testing.T) {
		bare, err := fold.New()
		require.NoError(t, err)
		cfg, err := bare.ResolveConfig(ctx, domain.Request{URL: "/x"})
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("Bad Header Text", func(t *testing.T) {
		_, err := engine.ResolveConfig(ctx, domain.Request{ConfigText: strPtr(`div[@id="x`)})
		var perr *domain.ConfigParseError
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("Oversized Header Text", func(t *testing.T) {
		small, err := fold.New(fold.WithMaxConfigText(8))
		require.NoError(t, err)
		_, err = small.ResolveConfig(ctx, domain.Request{ConfigText: strPtr(`div[@id = "long"]`)})
		var perr *domain.ConfigParseError
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("Overlapping Request Config", func(t *testing.T) {
		dup, err := fold.ParseConfig("h1")
		require.NoError(t, err)
		dup.Regions = append(dup.Regions, dup.Regions[0])
		_, err = engine.ResolveConfig(ctx, domain.Request{Config: &dup})
		var oerr *domain.RegionOverlapError
		assert.True(t, errors.As(err, &oerr))
	})

	t.Run("Store Failure", func(t *testing.T) {
		eng, err := fold.New(fold.WithStore(brokenStore{memory.NewStore()}))
		require.NoError(t, err)
		_, err = eng.ResolveConfig(ctx, domain.Request{URL: "/post.html"})
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestNew_InvalidDefault(t *testing.T) {
	_, err := fold.New(fold.WithDefaultConfigText("div[@id"))
	assert.Error(t, err)
}

func TestEngine_Process(t *testing.T) {
	ctx := context.Background()
	engine, err := fold.New(fold.WithDefaultConfigText(`div[@id = "comments"]`))
	require.NoError(t, err)

	t.Run("BTF", func(t *testing.T) {
		var out bytes.Buffer
		summary, err := engine.Process(ctx, strings.NewReader(page), &out, domain.Request{Mode: domain.ModeSplitBTF})
		require.NoError(t, err)
		assert.Equal(t, `{"panel-id.0":[{"instance_html":"<div id=\"comments\" panel-id=\"panel-id.0\"><p>c1</p></div>"}]}`, out.String())
		require.Len(t, summary.Regions, 1)
		assert.Equal(t, "panel-id.0", summary.Regions[0].ID)
		assert.Equal(t, "btf", summary.Mode)
	})

	t.Run("ATF", func(t *testing.T) {
		var out bytes.Buffer
		_, err := engine.Process(ctx, strings.NewReader(page), &out, domain.Request{URL: "/post.html", Mode: domain.ModeSplitATF})
		require.NoError(t, err)
		assert.Contains(t, out.String(), `<p>story</p><!--GooglePanel begin panel-id.0--><!--GooglePanel end panel-id.0--><footer>f</footer>`)
		assert.Contains(t, out.String(), `/post.html?X-PSA-Split-Btf=1`)
		assert.NotContains(t, out.String(), "c1")
	})

	t.Run("Chunked Input Matches Whole Input", func(t *testing.T) {
		var whole, chunked bytes.Buffer
		_, err := engine.Process(ctx, strings.NewReader(page), &whole, domain.Request{})
		require.NoError(t, err)
		_, err = engine.Process(ctx, iotest.OneByteReader(strings.NewReader(page)), &chunked, domain.Request{})
		require.NoError(t, err)
		assert.Equal(t, whole.String(), chunked.String())
	})

	t.Run("Pass Through", func(t *testing.T) {
		var out bytes.Buffer
		summary, err := engine.Process(ctx, strings.NewReader(page), &out, domain.Request{PassThrough: true})
		require.NoError(t, err)
		assert.Equal(t, page, out.String())
		assert.True(t, summary.PassThrough)
	})

	t.Run("Resolution Error Writes Nothing", func(t *testing.T) {
		var out bytes.Buffer
		_, err := engine.Process(ctx, strings.NewReader(page), &out, domain.Request{ConfigText: strPtr("div[")})
		assert.Error(t, err)
		assert.Zero(t, out.Len())
	})
}

func TestEngine_Hooks(t *testing.T) {
	var opened []string
	var done *domain.DocumentEvent
	engine, err := fold.New(
		fold.WithDefaultConfigText(`div[@id = "comments"]`),
		fold.WithLifecycleHooks(domain.LifecycleHooks{
			OnRegionOpen:   func(e *domain.RegionEvent) { opened = append(opened, e.RegionID) },
			OnDocumentDone: func(e *domain.DocumentEvent) { done = e },
		}),
	)
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = engine.Process(context.Background(), strings.NewReader(page), &out, domain.Request{URL: "/post.html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"panel-id.0"}, opened)
	require.NotNil(t, done)
	assert.Equal(t, "/post.html", done.URL)
}

func TestEngine_NewDocument(t *testing.T) {
	engine, err := fold.New()
	require.NoError(t, err)

	var out bytes.Buffer
	h, err := engine.NewDocument(context.Background(), &out, domain.Request{Mode: domain.ModeSplitBTF})
	require.NoError(t, err)
	require.NoError(t, h.OpenElement(domain.Element{Tag: "p", Raw: []byte("<p>")}))
	require.NoError(t, h.Text([]byte("x")))
	require.NoError(t, h.CloseElement(domain.EndTag{Tag: "p", Raw: []byte("</p>")}))
	require.NoError(t, h.EndOfStream())
	assert.Equal(t, "{}", out.String())

	err = h.Text([]byte("late"))
	assert.ErrorIs(t, err, domain.ErrDocumentClosed)
}

func TestEngine_Process_OptionalEndTags(t *testing.T) {
	tests := []struct {
		name   string
		config string
		input  string
		want   string
	}{
		{
			name:   "Paragraph Siblings",
			config: "body/p[3]",
			input:  `<html><body><p>a<p>b<p>c</body></html>`,
			want:   `{"panel-id.0":[{"instance_html":"<p panel-id=\"panel-id.0\">c"}]}`,
		},
		{
			name:   "List Item Siblings",
			config: "ul/li[2]",
			input:  `<ul><li>a<li>b<li>c</ul>`,
			want:   `{"panel-id.0":[{"instance_html":"<li panel-id=\"panel-id.0\">b"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := fold.New(fold.WithDefaultConfigText(tt.config))
			require.NoError(t, err)
			var out bytes.Buffer
			_, err = engine.Process(context.Background(), strings.NewReader(tt.input), &out, domain.Request{Mode: domain.ModeSplitBTF})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}
