package bootstrap

import (
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// DefaultCharactersPerLocation is the renderer's location budget when none is configured
const DefaultCharactersPerLocation = 1600

// Config is the immutable record compiled into a bootstrap document. Any
// change requires building and loading a new document.
type Config struct {
	// ScriptURIs are the renderer scripts loaded before the controller
	ScriptURIs []string

	SourceKind string
	Source     string

	Theme              types.Theme
	Locations          []types.CFI
	InitialAnnotations []types.Annotation
	InitialLocation    types.CFI

	EnableSelection      bool
	AllowScriptedContent bool
	AllowPopups          bool

	Manager  types.Manager
	Flow     types.Flow
	Snap     *bool
	Spread   types.Spread
	Fullsize *bool

	CharactersPerLocation int
}

// withDefaults fills the fields the renderer cannot run without
func (c Config) withDefaults() Config {
	if c.Theme == nil {
		c.Theme = types.DefaultTheme()
	}
	if c.Manager == "" {
		c.Manager = types.ManagerDefault
	}
	if c.Flow == "" {
		c.Flow = types.FlowAuto
	}
	if c.CharactersPerLocation <= 0 {
		c.CharactersPerLocation = DefaultCharactersPerLocation
	}
	return c
}
