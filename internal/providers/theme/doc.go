// Package theme keeps the named reader themes a host can select.
//
// A theme is a map of CSS selectors to declarations that the controller
// registers with the renderer. The registry starts with built-in light,
// dark, sepia and high-contrast themes; more are loaded from YAML, TOML or
// JSON files:
//
//	themes:
//	  - id: solarized
//	    name: Solarized
//	    type: light
//	    rules:
//	      body:
//	        background: "#fdf6e3"
package theme
