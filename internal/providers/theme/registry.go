package theme

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

var (
	// ErrNotFound is returned for an unknown theme id
	ErrNotFound = errors.New("theme not found")
	// ErrBuiltin is returned when deleting a built-in theme
	ErrBuiltin = errors.New("built-in themes cannot be deleted")
)

// DefaultID names the theme used when a request selects none
const DefaultID = "light"

// Definition is a named reader theme
type Definition struct {
	ID          string      `json:"id" yaml:"id" toml:"id"`
	Name        string      `json:"name" yaml:"name" toml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Type        string      `json:"type" yaml:"type" toml:"type"` // "dark", "light", "custom"
	Rules       types.Theme `json:"rules" yaml:"rules" toml:"rules"`
	Builtin     bool        `json:"builtin" yaml:"-" toml:"-"`
}

// Validate checks a definition before it is registered
func (d Definition) Validate() error {
	if err := utils.ValidateID(d.ID, "id", true); err != nil {
		return err
	}
	if len(d.Rules) == 0 {
		return fmt.Errorf("%w: theme %s has no rules", utils.ErrInvalidInput, d.ID)
	}
	return nil
}

func (d Definition) clone() Definition {
	d.Rules = d.Rules.Clone()
	return d
}

// Registry holds named themes
type Registry struct {
	themes sync.Map
	logger *zap.Logger
}

// Option customizes a Registry
type Option func(*Registry)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a registry with the built-in themes
func NewRegistry(options ...Option) *Registry {
	r := &Registry{logger: zap.NewNop()}
	for _, o := range options {
		o(r)
	}

	// Initialize with default themes
	r.initializeDefaults()
	return r
}

func (r *Registry) initializeDefaults() {
	light := Definition{
		ID:          "light",
		Name:        "Light",
		Description: "Default light theme",
		Type:        "light",
		Rules:       types.DefaultTheme(),
		Builtin:     true,
	}

	dark := Definition{
		ID:          "dark",
		Name:        "Dark",
		Description: "Light text on a dark page",
		Type:        "dark",
		Rules: types.Theme{
			"body":        {"background": "#1a1a1a"},
			"span":        {"color": "#e0e0e0 !important"},
			"p":           {"color": "#e0e0e0 !important"},
			"li":          {"color": "#e0e0e0 !important"},
			"h1":          {"color": "#ffffff !important"},
			"a":           {"color": "#8ab4f8 !important", "pointer-events": "auto", "cursor": "pointer"},
			"::selection": {"background": "#3b82f6"},
		},
		Builtin: true,
	}

	sepia := Definition{
		ID:          "sepia",
		Name:        "Sepia",
		Description: "Warm paper tone",
		Type:        "light",
		Rules: types.Theme{
			"body":        {"background": "#f4ecd8"},
			"span":        {"color": "#5b4636 !important"},
			"p":           {"color": "#5b4636 !important"},
			"li":          {"color": "#5b4636 !important"},
			"h1":          {"color": "#3e2f23 !important"},
			"a":           {"color": "#5b4636 !important", "pointer-events": "auto", "cursor": "pointer"},
			"::selection": {"background": "#d9c7a3"},
		},
		Builtin: true,
	}

	// High contrast theme for accessibility
	highContrast := Definition{
		ID:          "high-contrast",
		Name:        "High Contrast",
		Description: "High contrast theme for accessibility",
		Type:        "dark",
		Rules: types.Theme{
			"body":        {"background": "#000000"},
			"span":        {"color": "#ffffff !important"},
			"p":           {"color": "#ffffff !important"},
			"li":          {"color": "#ffffff !important"},
			"h1":          {"color": "#ffffff !important"},
			"a":           {"color": "#00ffff !important", "pointer-events": "auto", "cursor": "pointer"},
			"::selection": {"background": "#ffff00"},
		},
		Builtin: true,
	}

	for _, d := range []Definition{light, dark, sepia, highContrast} {
		r.themes.Store(d.ID, d)
	}
}

// Register adds or replaces a theme. Built-in themes can be overridden but
// the override keeps the built-in flag.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	def = def.clone()
	def.Builtin = false
	if existing, ok := r.themes.Load(def.ID); ok && existing.(Definition).Builtin {
		def.Builtin = true
	}
	if def.Name == "" {
		def.Name = def.ID
	}
	if def.Type == "" {
		def.Type = "custom"
	}
	r.themes.Store(def.ID, def)
	r.logger.Debug("Registered theme", zap.String("id", def.ID))
	return nil
}

// Get returns a copy of a theme definition
func (r *Registry) Get(id string) (Definition, error) {
	val, ok := r.themes.Load(id)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return val.(Definition).clone(), nil
}

// Theme returns the rules of a theme, or of the default theme when id is empty
func (r *Registry) Theme(id string) (types.Theme, error) {
	if id == "" {
		id = DefaultID
	}
	def, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return def.Rules, nil
}

// List returns all themes ordered by id
func (r *Registry) List() []Definition {
	var themes []Definition
	r.themes.Range(func(key, value interface{}) bool {
		themes = append(themes, value.(Definition).clone())
		return true
	})
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	return themes
}

// Delete removes a custom theme
func (r *Registry) Delete(id string) error {
	val, ok := r.themes.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if val.(Definition).Builtin {
		return fmt.Errorf("%w: %s", ErrBuiltin, id)
	}
	r.themes.Delete(id)
	return nil
}
