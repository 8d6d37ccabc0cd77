// Package bootstrap builds the document a sandbox loads first.
//
// The embedded template holds the renderer script tags, a configuration
// object and the controller script. Configuration is substituted into
// %%NAME%% placeholders as JSON literals in a single pass. The embedded
// template is validated at package init: every placeholder must occur
// exactly once or the process panics before serving anything.
package bootstrap
