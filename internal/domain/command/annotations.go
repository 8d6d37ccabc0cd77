package command

import (
	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// Every annotation mutation asks the sandbox to echo its full annotation set
// in the same script, so the host list converges even when a step fails.

// AddAnnotation draws a decoration over a CFI range
func AddAnnotation(a types.Annotation) Script {
	return build(IntentAddAnnotation,
		invoke("addAnnotation", a.Type, a.CfiRange, a.Data, nullable(a.IconClass), a.Styles, nullable(a.CfiRangeText)),
		echoAnnotations,
	)
}

// AddAnnotationByTagID draws a decoration over the element with the given id
func AddAnnotationByTagID(t types.AnnotationType, tagID string, data map[string]interface{}, iconClass string, styles *types.AnnotationStyles) Script {
	return build(IntentAddAnnotationByTag,
		invoke("addAnnotationByTagId", t, tagID, data, nullable(iconClass), styles),
		echoAnnotations,
	)
}

// UpdateAnnotation merges data into an annotation and optionally restyles it
func UpdateAnnotation(a types.Annotation, data map[string]interface{}, styles *types.AnnotationStyles) Script {
	target := map[string]interface{}{"cfiRange": a.CfiRange, "type": a.Type}
	return build(IntentUpdateAnnotation,
		invoke("updateAnnotation", target, data, styles),
		echoAnnotations,
	)
}

// UpdateAnnotationByTagID updates every annotation over the tagged element
func UpdateAnnotationByTagID(tagID string, data map[string]interface{}, styles *types.AnnotationStyles) Script {
	return build(IntentUpdateAnnotationByTag,
		invoke("updateAnnotationByTagId", tagID, data, styles),
		echoAnnotations,
	)
}

// RemoveAnnotation removes the annotation identified by (cfiRange, type)
func RemoveAnnotation(a types.Annotation) Script {
	return build(IntentRemoveAnnotation,
		invoke("removeAnnotation", a.CfiRange, a.Type),
		echoAnnotations,
	)
}

// RemoveAnnotationByCfi removes annotations of every type over cfiRange
func RemoveAnnotationByCfi(cfiRange types.CFI) Script {
	return build(IntentRemoveAnnotationByCfi,
		invoke("removeAnnotationByCfi", cfiRange),
		echoAnnotations,
	)
}

// RemoveAnnotationByTagID removes annotations over the tagged element
func RemoveAnnotationByTagID(tagID string) Script {
	return build(IntentRemoveAnnotationByTag,
		invoke("removeAnnotationByTagId", tagID),
		echoAnnotations,
	)
}

// RemoveAllAnnotations removes every annotation, or only those of type t
// when t is not empty
func RemoveAllAnnotations(t types.AnnotationType) Script {
	return build(IntentRemoveAllAnnotations,
		invoke("removeAllAnnotations", nullable(string(t))),
		echoAnnotations,
	)
}

// SetInitialAnnotations draws a batch of annotations without per-item events
func SetInitialAnnotations(list []types.Annotation) Script {
	if list == nil {
		list = []types.Annotation{}
	}
	return build(IntentInitialAnnotations,
		invoke("setInitialAnnotations", list),
		echoAnnotations,
	)
}
