package dictation

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/romangrishanov/ditado/core"
)

// CategoryRef is a category attached to a dictation.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Dictation struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Audio       []byte        `json:"-"`
	AudioMime   string        `json:"audio_mime,omitempty"`
	IsActive    bool          `json:"is_active"`
	AuthorID    string        `json:"author_id"`
	AuthorName  string        `json:"author_name"`
	Categories  []CategoryRef `json:"categories,omitempty"`
	Segments    []Segment     `json:"segments,omitempty"`
	CreatedAt   time.Time     `json:"created_at"` // UTC
	UpdatedAt   time.Time     `json:"updated_at"` // UTC
}

// Text reconstructs the authored text with the bracket markup restored.
func (d *Dictation) Text() string {
	var b strings.Builder
	for _, seg := range d.Segments {
		if seg.Kind == Blank {
			b.WriteString("[")
			b.WriteString(seg.Content)
			b.WriteString("]")
		} else {
			b.WriteString(seg.Content)
		}
	}
	return b.String()
}

// AudioDataURI encodes the audio as a base64 data URI for the frontend player.
func (d *Dictation) AudioDataURI() string {
	if len(d.Audio) == 0 {
		return ""
	}
	mime := d.AudioMime
	if mime == "" {
		mime = defaultAudioMime
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(d.Audio)
}

// Attempt is one graded submission of a dictation by a student.
type Attempt struct {
	ID          string          `json:"id"`
	DictationID string          `json:"dictation_id"`
	StudentID   string          `json:"student_id"`
	Score       float64         `json:"score"`
	Answers     []AttemptAnswer `json:"answers,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"` // UTC
}

// AttemptAnswer is the graded answer of a single blank within an Attempt.
type AttemptAnswer struct {
	SegmentID string    `json:"segment_id"`
	Expected  string    `json:"expected"`
	Provided  string    `json:"provided"`
	Correct   bool      `json:"correct"`
	ErrorKind ErrorKind `json:"error_kind"`
}

const defaultAudioMime = "audio/mpeg"

// NewDictation contains information needed to create a new Dictation.
type NewDictation struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Text        string   `json:"text" validate:"required"`
	Audio       string   `json:"audio"` // base64 data URI
	CategoryIDs []string `json:"category_ids"`
}

func (nd *NewDictation) Validate(validate *validator.Validate, catSvc CategoryService) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Description = core.CleanString(nd.Description)
	nd.Text = core.CleanString(nd.Text)

	if err := validate.Struct(nd); err != nil {
		return err
	}
	if !hasBlanks(nd.Text) {
		return core.NewValidationError(ErrNoBlanks, core.FieldError{Field: "text", Error: ErrNoBlanks.Error()})
	}
	if nd.Audio != "" {
		if _, _, err := DecodeAudio(nd.Audio); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "audio", Error: err.Error()})
		}
	}
	return validateCategoryIDs(nd.CategoryIDs, catSvc)
}

// UpdateDictation defines what information may be provided to modify an existing
// Dictation. The dictated text is immutable once created: graded attempt answers
// are keyed by segment ID, so only metadata may change.
type UpdateDictation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Audio       string   `json:"audio"` // base64 data URI
	IsActive    *bool    `json:"is_active"`
	CategoryIDs []string `json:"category_ids"`
}

func (ud *UpdateDictation) Validate(orig Dictation, validate *validator.Validate, catSvc CategoryService) error {
	if title := core.CleanString(ud.Title); title != "" {
		ud.Title = title
	} else {
		ud.Title = orig.Title
	}
	ud.Description = core.CleanString(ud.Description)

	if err := validate.Struct(ud); err != nil {
		return err
	}
	if ud.Audio != "" {
		if _, _, err := DecodeAudio(ud.Audio); err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "audio", Error: err.Error()})
		}
	}
	if ud.CategoryIDs == nil {
		return nil
	}
	return validateCategoryIDs(ud.CategoryIDs, catSvc)
}

// NewAttempt contains a student's answers keyed by blank segment ID.
type NewAttempt struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

func (na *NewAttempt) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

func hasBlanks(text string) bool {
	for _, seg := range ParseText(text) {
		if seg.Kind == Blank {
			return true
		}
	}
	return false
}

func validateCategoryIDs(ids []string, catSvc CategoryService) error {
	if len(ids) == 0 {
		return nil
	}
	if err := catSvc.ValidateIDs(ids); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "category_ids", Error: err.Error()})
	}
	return nil
}

// DecodeAudio decodes a base64 audio payload as sent by the frontend recorder,
// either a "data:<mime>;base64,<payload>" data URI or bare base64 (in which
// case the mime type defaults to audio/mpeg).
func DecodeAudio(data string) ([]byte, string, error) {
	mime := defaultAudioMime
	payload := data

	if strings.HasPrefix(data, "data:") {
		idx := strings.Index(data, ",")
		if idx < 0 {
			return nil, "", ErrInvalidAudio
		}
		header := data[len("data:"):idx]
		payload = data[idx+1:]
		if !strings.HasSuffix(header, ";base64") {
			return nil, "", ErrInvalidAudio
		}
		if m := strings.TrimSuffix(header, ";base64"); m != "" {
			mime = m
		}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidAudio
	}
	return raw, mime, nil
}

type QueryFilter struct {
	Search      string    `query:"search"`
	CategoryID  string    `query:"category"`
	AuthorID    string    `query:"author"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CategoryID == "" && qf.AuthorID == "" &&
		qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// AttemptFilter filters attempts; fields are ANDed together.
type AttemptFilter struct {
	DictationID string `query:"dictation"`
	StudentID   string `query:"student"`
}
