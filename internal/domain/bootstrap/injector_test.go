package bootstrap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

func baseConfig() Config {
	return Config{
		ScriptURIs: []string{"/assets/jszip.min.js", "/assets/epub.min.js"},
		SourceKind: "epub",
		Source:     "https://example.com/book.epub",
	}
}

func TestEmbeddedTemplateCarriesEveryPlaceholderOnce(t *testing.T) {
	tmpl, err := Assemble(indexTemplate, controllerScript)
	require.NoError(t, err)

	for _, p := range Placeholders {
		assert.Equal(t, 1, strings.Count(tmpl, p), "placeholder %s", p)
	}
	assert.NotNil(t, Default())
}

func TestNewInjectorRejectsBrokenTemplates(t *testing.T) {
	full := strings.Join(Placeholders, "\n")

	tests := []struct {
		name     string
		template string
		contains string
	}{
		{"missing", strings.Replace(full, PlaceholderFlow, "", 1), "%%FLOW%% missing"},
		{"duplicated", full + "\n" + PlaceholderTheme, "%%THEME%% occurs 2 times"},
		{"unknown", full + "\n%%COLOR%%", "%%COLOR%% unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInjector(tt.template)
			require.ErrorIs(t, err, ErrPlaceholderContract)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	_, err := NewInjector(full)
	assert.NoError(t, err)
}

func TestAssembleRejectsBadController(t *testing.T) {
	_, err := Assemble("<script>%%CONTROLLER%%</script>", "var x = '%%SOURCE%%';")
	assert.ErrorIs(t, err, ErrPlaceholderContract)

	_, err = Assemble("<script>%%CONTROLLER%%</script>", "var x = '</script>';")
	assert.ErrorIs(t, err, ErrPlaceholderContract)

	_, err = Assemble("<script></script>", "var x = 1;")
	assert.ErrorIs(t, err, ErrPlaceholderContract)
}

func TestBuildSubstitutesEveryPlaceholder(t *testing.T) {
	snap := true
	cfg := baseConfig()
	cfg.Snap = &snap
	cfg.Spread = types.SpreadNone
	cfg.Flow = types.FlowPaginated
	cfg.Locations = []types.CFI{"epubcfi(/6/2!/4/1:0)", "epubcfi(/6/4!/4/1:0)"}
	cfg.InitialLocation = "epubcfi(/6/4!/4/1:0)"

	doc, err := Default().Build(cfg)
	require.NoError(t, err)

	assert.False(t, tokenPattern.MatchString(doc.HTML), "unsubstituted token left in document")
	assert.Contains(t, doc.HTML, `<script src="/assets/jszip.min.js"></script>`)
	assert.Contains(t, doc.HTML, `type: "epub"`)
	assert.Contains(t, doc.HTML, `flow: "paginated"`)
	assert.Contains(t, doc.HTML, `snap: true`)
	assert.Contains(t, doc.HTML, `spread: "none"`)
	assert.Contains(t, doc.HTML, `fullsize: null`)
	assert.Contains(t, doc.HTML, `manager: "default"`)
	assert.Contains(t, doc.HTML, `initialAnnotations: []`)
	assert.Contains(t, doc.HTML, `charactersPerLocation: 1600`)
	assert.Contains(t, doc.HTML, `locations: ["epubcfi(/6/2!/4/1:0)","epubcfi(/6/4!/4/1:0)"]`)
	assert.NotEmpty(t, doc.ETag)
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Default().Build(baseConfig())
	require.NoError(t, err)
	b, err := Default().Build(baseConfig())
	require.NoError(t, err)

	assert.Equal(t, a.ETag, b.ETag)
}

func TestBuildEscapesHostileValues(t *testing.T) {
	cfg := baseConfig()
	cfg.SourceKind = "opf"
	cfg.Source = `https://example.com/it's "a" book</script><script>alert(1)</script>.opf`
	cfg.InitialAnnotations = []types.Annotation{{
		Type:     types.AnnotationHighlight,
		CfiRange: "epubcfi(/6/4!/4/2,/1:0,/1:4)",
		Data:     map[string]interface{}{"note": "</script>"},
	}}

	doc, err := Default().Build(cfg)
	require.NoError(t, err)

	assert.NotContains(t, doc.HTML, "alert(1)</script>")
	assert.Equal(t, 2, strings.Count(doc.HTML, "</script>")-strings.Count(doc.HTML, `"></script>`),
		"only the config and controller script elements may close")
	assert.Contains(t, doc.HTML, `\"a\"`)
}

func TestBuildDoesNotReexpandValues(t *testing.T) {
	cfg := baseConfig()
	cfg.Source = "https://example.com/%%THEME%%.epub"

	doc, err := Default().Build(cfg)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, `source: "https://example.com/%%THEME%%.epub"`)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.SourceKind = "pdf"
	_, err := Default().Build(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, types.ErrUnknownSourceKind)

	cfg = baseConfig()
	cfg.Flow = "sideways"
	_, err = Default().Build(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = baseConfig()
	cfg.Source = ""
	_, err = Default().Build(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLiteralEscapesLineSeparators(t *testing.T) {
	lit, err := Literal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, `"a\u2028b\u2029c"`, lit)

	lit, err = Literal("<b>&")
	require.NoError(t, err)
	assert.Equal(t, `"\u003cb\u003e\u0026"`, lit)
}
