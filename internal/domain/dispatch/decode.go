package dispatch

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrMissingType is returned for an envelope without a string discriminant
var ErrMissingType = errors.New("missing event type")

// DecodeError reports an inbound message that could not be decoded. The
// message is dropped; the channel offers no redelivery.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("decode event: %v", e.Err)
	}
	return fmt.Sprintf("decode %s event: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeAs[T Event](data []byte) (Event, error) {
	var ev T
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

var decoders = map[Kind]func([]byte) (Event, error){
	KindStarted:               decodeAs[Started],
	KindReady:                 decodeAs[Ready],
	KindDisplayError:          decodeAs[DisplayError],
	KindResized:               decodeAs[Resized],
	KindLocationChange:        decodeAs[LocationChange],
	KindLocationsReady:        decodeAs[LocationsReady],
	KindSearch:                decodeAs[Search],
	KindSelected:              decodeAs[Selected],
	KindOrientationChange:     decodeAs[OrientationChange],
	KindBeginning:             decodeAs[Beginning],
	KindFinish:                decodeAs[Finish],
	KindRendered:              decodeAs[Rendered],
	KindLayout:                decodeAs[Layout],
	KindNavigationLoaded:      decodeAs[NavigationLoaded],
	KindMeta:                  decodeAs[Meta],
	KindAddAnnotation:         decodeAs[AddAnnotation],
	KindChangeAnnotations:     decodeAs[ChangeAnnotations],
	KindSetInitialAnnotations: decodeAs[SetInitialAnnotations],
	KindPressAnnotation:       decodeAs[PressAnnotation],
	KindAddBookmark:           decodeAs[AddBookmark],
	KindRemoveBookmark:        decodeAs[RemoveBookmark],
	KindRemoveBookmarks:       decodeAs[RemoveBookmarks],
	KindUpdateBookmark:        decodeAs[UpdateBookmark],
}

// Known reports whether k is one of the modelled event kinds
func Known(k Kind) bool {
	_, ok := decoders[k]
	return ok
}

// Decode parses one serialized inbound message. Kinds the host does not
// model come back as Unknown with the discriminant stripped from the payload.
func Decode(data []byte) (Event, error) {
	var envelope map[string]interface{}
	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if envelope == nil {
		return nil, &DecodeError{Err: ErrMissingType}
	}

	typ, ok := envelope["type"].(string)
	if !ok || typ == "" {
		return nil, &DecodeError{Err: ErrMissingType}
	}
	delete(envelope, "type")

	decode, known := decoders[Kind(typ)]
	if !known {
		return Unknown{Type: typ, Payload: envelope, Raw: data}, nil
	}

	ev, err := decode(data)
	if err != nil {
		return nil, &DecodeError{Kind: Kind(typ), Err: err}
	}
	return ev, nil
}
