package dictation

// SegmentKind tells whether a segment is literal text or a blank the
// student must fill in.
type SegmentKind string

const (
	// FixedText is displayed verbatim, not editable by the student.
	FixedText SegmentKind = "text"
	// Blank holds the expected answer; it is rendered as an empty input field.
	Blank SegmentKind = "blank"
)

// Segment is one piece of a dictation's content. Segments sorted by Order
// concatenate back to the authored text with the bracket markup removed.
// For FixedText segments Content is the literal text; for Blank segments it
// is the expected answer with its original capitalization.
type Segment struct {
	ID          string      `json:"id,omitempty"`
	DictationID string      `json:"-"`
	Order       int         `json:"order"`
	Kind        SegmentKind `json:"kind"`
	Content     string      `json:"content"`
}
