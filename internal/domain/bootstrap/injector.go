package bootstrap

import (
	_ "embed"
	"errors"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

//go:embed assets/index.html
var indexTemplate string

//go:embed assets/controller.js
var controllerScript string

var (
	// ErrPlaceholderContract means a template does not carry every
	// placeholder exactly once
	ErrPlaceholderContract = errors.New("placeholder contract violated")

	// ErrInvalidConfig is returned for configuration the renderer cannot use
	ErrInvalidConfig = errors.New("invalid bootstrap configuration")
)

// Placeholder tokens substituted into the template
const (
	PlaceholderScripts               = "%%SCRIPTS%%"
	PlaceholderSourceKind            = "%%SOURCE_KIND%%"
	PlaceholderSource                = "%%SOURCE%%"
	PlaceholderTheme                 = "%%THEME%%"
	PlaceholderLocations             = "%%LOCATIONS%%"
	PlaceholderInitialAnnotations    = "%%INITIAL_ANNOTATIONS%%"
	PlaceholderInitialLocation       = "%%INITIAL_LOCATION%%"
	PlaceholderEnableSelection       = "%%ENABLE_SELECTION%%"
	PlaceholderAllowScriptedContent  = "%%ALLOW_SCRIPTED_CONTENT%%"
	PlaceholderAllowPopups           = "%%ALLOW_POPUPS%%"
	PlaceholderManager               = "%%MANAGER%%"
	PlaceholderFlow                  = "%%FLOW%%"
	PlaceholderSnap                  = "%%SNAP%%"
	PlaceholderSpread                = "%%SPREAD%%"
	PlaceholderFullsize              = "%%FULLSIZE%%"
	PlaceholderCharactersPerLocation = "%%CHARACTERS_PER_LOCATION%%"

	// controllerToken is filled once when the template is assembled
	controllerToken = "%%CONTROLLER%%"
)

// Placeholders lists every configuration placeholder a template must carry
var Placeholders = []string{
	PlaceholderScripts,
	PlaceholderSourceKind,
	PlaceholderSource,
	PlaceholderTheme,
	PlaceholderLocations,
	PlaceholderInitialAnnotations,
	PlaceholderInitialLocation,
	PlaceholderEnableSelection,
	PlaceholderAllowScriptedContent,
	PlaceholderAllowPopups,
	PlaceholderManager,
	PlaceholderFlow,
	PlaceholderSnap,
	PlaceholderSpread,
	PlaceholderFullsize,
	PlaceholderCharactersPerLocation,
}

var tokenPattern = regexp.MustCompile(`%%[A-Z0-9_]+%%`)

// Document is a complete bootstrap page
type Document struct {
	HTML string
	// ETag identifies the content; equal configurations give equal tags
	ETag string
}

// Injector substitutes configuration into a validated template
type Injector struct {
	template string
	hasher   *utils.Hasher
}

var defaultInjector = mustDefaultInjector()

func mustDefaultInjector() *Injector {
	tmpl, err := Assemble(indexTemplate, controllerScript)
	if err != nil {
		panic(fmt.Sprintf("bootstrap: embedded assets: %v", err))
	}
	inj, err := NewInjector(tmpl)
	if err != nil {
		panic(fmt.Sprintf("bootstrap: embedded assets: %v", err))
	}
	return inj
}

// Default returns the injector over the embedded controller template
func Default() *Injector {
	return defaultInjector
}

// ControllerScript returns the embedded controller source
func ControllerScript() string {
	return controllerScript
}

// Assemble inlines a controller script into an index template
func Assemble(index, controller string) (string, error) {
	if n := strings.Count(index, controllerToken); n != 1 {
		return "", fmt.Errorf("%w: %s occurs %d times", ErrPlaceholderContract, controllerToken, n)
	}
	if tok := tokenPattern.FindString(controller); tok != "" {
		return "", fmt.Errorf("%w: controller script contains %s", ErrPlaceholderContract, tok)
	}
	if strings.Contains(strings.ToLower(controller), "</script") {
		return "", fmt.Errorf("%w: controller script closes its own script element", ErrPlaceholderContract)
	}
	return strings.Replace(index, controllerToken, controller, 1), nil
}

// NewInjector validates a template and returns an injector for it
func NewInjector(template string) (*Injector, error) {
	if err := validateTemplate(template); err != nil {
		return nil, err
	}
	return &Injector{
		template: template,
		hasher:   utils.DefaultHasher(),
	}, nil
}

func validateTemplate(template string) error {
	counts := make(map[string]int)
	for _, tok := range tokenPattern.FindAllString(template, -1) {
		counts[tok]++
	}

	var problems []string
	for _, p := range Placeholders {
		switch n := counts[p]; {
		case n == 0:
			problems = append(problems, p+" missing")
		case n > 1:
			problems = append(problems, p+" occurs "+strconv.Itoa(n)+" times")
		}
		delete(counts, p)
	}
	for tok := range counts {
		problems = append(problems, tok+" unknown")
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrPlaceholderContract, strings.Join(problems, "; "))
}

// Build produces the bootstrap document for cfg
func (i *Injector) Build(cfg Config) (Document, error) {
	cfg = cfg.withDefaults()

	kind, err := types.ParseSourceKind(cfg.SourceKind)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !cfg.Flow.Valid() {
		return Document{}, fmt.Errorf("%w: unknown flow %q", ErrInvalidConfig, cfg.Flow)
	}
	if cfg.Source == "" {
		return Document{}, fmt.Errorf("%w: empty source", ErrInvalidConfig)
	}

	var locations interface{}
	if len(cfg.Locations) > 0 {
		locations = cfg.Locations
	}
	annotations := cfg.InitialAnnotations
	if annotations == nil {
		annotations = []types.Annotation{}
	}

	values := map[string]interface{}{
		PlaceholderSourceKind:            kind,
		PlaceholderSource:                cfg.Source,
		PlaceholderTheme:                 cfg.Theme,
		PlaceholderLocations:             locations,
		PlaceholderInitialAnnotations:    annotations,
		PlaceholderInitialLocation:       optionalString(string(cfg.InitialLocation)),
		PlaceholderEnableSelection:       cfg.EnableSelection,
		PlaceholderAllowScriptedContent:  cfg.AllowScriptedContent,
		PlaceholderAllowPopups:           cfg.AllowPopups,
		PlaceholderManager:               cfg.Manager,
		PlaceholderFlow:                  cfg.Flow,
		PlaceholderSnap:                  cfg.Snap,
		PlaceholderSpread:                optionalString(string(cfg.Spread)),
		PlaceholderFullsize:              cfg.Fullsize,
		PlaceholderCharactersPerLocation: cfg.CharactersPerLocation,
	}

	pairs := make([]string, 0, 2*len(Placeholders))
	pairs = append(pairs, PlaceholderScripts, scriptTags(cfg.ScriptURIs))
	for _, p := range Placeholders[1:] {
		lit, err := Literal(values[p])
		if err != nil {
			return Document{}, fmt.Errorf("%w: encode %s: %w", ErrInvalidConfig, p, err)
		}
		pairs = append(pairs, p, lit)
	}

	// single pass: substituted values are never rescanned for tokens
	out := strings.NewReplacer(pairs...).Replace(i.template)
	return Document{HTML: out, ETag: i.hasher.HashString(out)}, nil
}

// Literal encodes v as an embeddable JavaScript expression
func Literal(v interface{}) (string, error) {
	return utils.JSLiteral(v)
}

func scriptTags(uris []string) string {
	tags := make([]string, 0, len(uris))
	for _, uri := range uris {
		tags = append(tags, `<script src="`+html.EscapeString(uri)+`"></script>`)
	}
	return strings.Join(tags, "\n  ")
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
