// Package gesture turns a stream of skeleton frames into gesture labels.
package gesture

import (
	"fmt"
	"strings"
)

// Label is a recognized full-body gesture.
type Label int

// Gesture labels. The numeric values are the class numbers the model was
// trained with.
const (
	HandsUp        Label = 1
	RightHandCome  Label = 2
	RightHandStop  Label = 3
	LeftHandRotate Label = 4
	Nothing        Label = 5
)

// Labels lists every label in class order.
var Labels = []Label{HandsUp, RightHandCome, RightHandStop, LeftHandRotate, Nothing}

// LabelFromClass maps a raw model class to a Label. Unknown classes map to
// Nothing.
func LabelFromClass(class int) Label {
	switch l := Label(class); l {
	case HandsUp, RightHandCome, RightHandStop, LeftHandRotate, Nothing:
		return l
	default:
		return Nothing
	}
}

// Class returns the numeric model class for the label.
func (l Label) Class() int {
	return int(l)
}

// String returns the display name of the label.
func (l Label) String() string {
	switch l {
	case HandsUp:
		return "Hands Up"
	case RightHandCome:
		return "Come"
	case RightHandStop:
		return "Stop"
	case LeftHandRotate:
		return "Rotate"
	default:
		return "Nothing"
	}
}

// Name returns the identifier used in configuration and bindings.
func (l Label) Name() string {
	switch l {
	case HandsUp:
		return "HANDS_UP"
	case RightHandCome:
		return "RIGHT_HAND_COME"
	case RightHandStop:
		return "RIGHT_HAND_STOP"
	case LeftHandRotate:
		return "LEFT_HAND_ROTATE"
	default:
		return "NOTHING"
	}
}

// ParseLabel parses a label identifier such as "HANDS_UP" (case-insensitive).
func ParseLabel(s string) (Label, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, l := range Labels {
		if l.Name() == name {
			return l, nil
		}
	}
	return Nothing, fmt.Errorf("unknown gesture %q", s)
}
