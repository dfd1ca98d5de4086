package tokenizer

// Class is the role a byte plays under the active dialect.
type Class uint8

// Character classes. The order is part of the table layout.
const (
	ClassValueSeparator Class = iota
	ClassEscapeStart
	ClassEscapeEnd
	ClassEscapeChar
	ClassCommentStart
	ClassCarriageReturn
	ClassLineFeed
	ClassOther

	MaxClass = ClassOther
)

const numClasses = int(MaxClass) + 1

var classNames = [numClasses]string{
	"ValueSeparator",
	"EscapeStart",
	"EscapeEnd",
	"EscapeChar",
	"CommentStart",
	"CarriageReturn",
	"LineFeed",
	"Other",
}

func (c Class) String() string {
	if int(c) < numClasses {
		return classNames[c]
	}
	return "Class(?)"
}

// classMap assigns a class to every byte value.
type classMap [256]Class

// classify builds the two byte classifiers of a normalized dialect.
//
// The outside map is used while not inside an escaped value. There a distinct
// escape-end or escape byte is classified, but the tables treat it as data.
//
// The inside map is used inside an escaped value. The escape-end byte takes
// precedence over escape-start, so a dialect that uses one quote character
// for both compiles consistently, and a distinct escape-start byte is data.
func classify(c Config) (outside, inside classMap) {
	for i := range outside {
		outside[i] = ClassOther
	}
	outside['\r'] = ClassCarriageReturn
	outside['\n'] = ClassLineFeed
	outside[c.Separator] = ClassValueSeparator
	if c.Comment != 0 {
		outside[c.Comment] = ClassCommentStart
	}
	if c.EscapeStart != 0 {
		if c.EscapeChar != c.EscapeEnd {
			outside[c.EscapeChar] = ClassEscapeChar
		}
		if c.EscapeEnd != c.EscapeStart {
			outside[c.EscapeEnd] = ClassEscapeEnd
		}
		outside[c.EscapeStart] = ClassEscapeStart
	}

	inside = outside
	if c.EscapeStart != 0 {
		if c.EscapeStart != c.EscapeEnd {
			inside[c.EscapeStart] = ClassOther
		}
		if c.EscapeChar != c.EscapeEnd {
			inside[c.EscapeChar] = ClassEscapeChar
		}
		inside[c.EscapeEnd] = ClassEscapeEnd
	}
	return outside, inside
}
