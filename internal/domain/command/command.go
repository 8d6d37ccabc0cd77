package command

import (
	"strings"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/utils"
)

// Intent names the host action a script carries out
type Intent string

const (
	IntentNext                  Intent = "next"
	IntentPrevious              Intent = "previous"
	IntentGoTo                  Intent = "goto"
	IntentTheme                 Intent = "theme"
	IntentFontFamily            Intent = "font_family"
	IntentFontSize              Intent = "font_size"
	IntentFlow                  Intent = "flow"
	IntentAddAnnotation         Intent = "annotation_add"
	IntentAddAnnotationByTag    Intent = "annotation_add_by_tag"
	IntentUpdateAnnotation      Intent = "annotation_update"
	IntentUpdateAnnotationByTag Intent = "annotation_update_by_tag"
	IntentRemoveAnnotation      Intent = "annotation_remove"
	IntentRemoveAnnotationByCfi Intent = "annotation_remove_by_cfi"
	IntentRemoveAnnotationByTag Intent = "annotation_remove_by_tag"
	IntentRemoveAllAnnotations  Intent = "annotation_remove_all"
	IntentInitialAnnotations    Intent = "annotation_initial"
	IntentAddBookmark           Intent = "bookmark_add"
	IntentRemoveBookmark        Intent = "bookmark_remove"
	IntentRemoveBookmarks       Intent = "bookmark_remove_all"
	IntentUpdateBookmark        Intent = "bookmark_update"
	IntentSearch                Intent = "search"
	IntentClearSelection        Intent = "clear_selection"
	IntentRaw                   Intent = "raw"
)

// Script is a command ready to be executed by the sandbox
type Script struct {
	Intent Intent
	Source string
}

// String returns the executable source
func (s Script) String() string { return s.Source }

// call is one controller method invocation
type call struct {
	method string
	args   []interface{}
}

func invoke(method string, args ...interface{}) call {
	return call{method: method, args: args}
}

func (c call) render() (string, error) {
	lits := make([]string, len(c.args))
	for i, arg := range c.args {
		lit, err := utils.JSLiteral(arg)
		if err != nil {
			return "", err
		}
		lits[i] = lit
	}
	return "reader." + c.method + "(" + strings.Join(lits, ", ") + ");", nil
}

var echoAnnotations = invoke("echoAnnotations")

// build wraps calls so an exception inside the sandbox is reported through
// the controller instead of escaping as an uncaught error
func build(intent Intent, calls ...call) Script {
	var b strings.Builder
	b.WriteString("try { ")
	for _, c := range calls {
		stmt, err := c.render()
		if err != nil {
			return failure(intent, err)
		}
		b.WriteString(stmt)
		b.WriteByte(' ')
	}
	b.WriteString("} catch (e) { reader.fail(e); } true;")
	return Script{Intent: intent, Source: b.String()}
}

func failure(intent Intent, err error) Script {
	msg, _ := utils.JSLiteral("cannot encode " + string(intent) + " command: " + err.Error())
	return Script{
		Intent: intent,
		Source: "try { reader.fail(new Error(" + msg + ")); } catch (e) {} true;",
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// PaginateOptions tunes navigation commands
type PaginateOptions struct {
	// KeepScrollOffset keeps the scroll position in scrolled-doc flow
	KeepScrollOffset bool
}

func navigate(intent Intent, flow types.Flow, opts PaginateOptions, move call) Script {
	if flow == types.FlowScrolledDoc && !opts.KeepScrollOffset {
		return build(intent, invoke("resetScrollOnRelocate"), move)
	}
	return build(intent, move)
}

// Next turns to the next page
func Next(flow types.Flow, opts PaginateOptions) Script {
	return navigate(IntentNext, flow, opts, invoke("next"))
}

// Previous turns to the previous page
func Previous(flow types.Flow, opts PaginateOptions) Script {
	return navigate(IntentPrevious, flow, opts, invoke("prev"))
}

// GoTo displays target, a CFI or an href inside the document
func GoTo(target types.CFI, flow types.Flow, opts PaginateOptions) Script {
	return navigate(IntentGoTo, flow, opts, invoke("display", string(target)))
}

// ChangeTheme registers theme and re-renders mounted views. Applying the same
// theme twice leaves the same registered rules selected.
func ChangeTheme(theme types.Theme) Script {
	return build(IntentTheme, invoke("applyTheme", theme))
}

// ChangeFontFamily switches the font family
func ChangeFontFamily(family string) Script {
	return build(IntentFontFamily, invoke("font", family))
}

// ChangeFontSize switches the font size
func ChangeFontSize(size types.FontSize) Script {
	return build(IntentFontSize, invoke("fontSize", string(size)))
}

// ChangeFlow switches the layout discipline
func ChangeFlow(flow types.Flow) Script {
	return build(IntentFlow, invoke("flow", string(flow)))
}
