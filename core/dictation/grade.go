package dictation

// BlankResult is the grading outcome of a single blank.
type BlankResult struct {
	SegmentID string    `json:"segment_id"`
	Expected  string    `json:"expected"`
	Provided  string    `json:"provided"`
	Correct   bool      `json:"correct"`
	ErrorKind ErrorKind `json:"error_kind"`
}

// GradeResult is the grading outcome of a full submission.
type GradeResult struct {
	Score          float64       `json:"score"` // 0..100, 2 decimal places
	TotalBlanks    int           `json:"total_blanks"`
	CorrectCount   int           `json:"correct_count"`
	IncorrectCount int           `json:"incorrect_count"`
	Details        []BlankResult `json:"details"`
}

// Grade scores a set of answers against a dictation's segments. Every Blank
// segment produces one BlankResult, in segment order; a blank with no answer
// counts as an omission. Answers keyed by an unknown segment id are ignored.
func Grade(segments []Segment, answers map[string]string) GradeResult {
	var res GradeResult

	for _, seg := range segments {
		if seg.Kind != Blank {
			continue
		}
		provided := answers[seg.ID] // missing answer grades as ""
		correct, kind := Classify(seg.Content, provided)

		res.TotalBlanks++
		if correct {
			res.CorrectCount++
		} else {
			res.IncorrectCount++
		}
		res.Details = append(res.Details, BlankResult{
			SegmentID: seg.ID,
			Expected:  seg.Content,
			Provided:  provided,
			Correct:   correct,
			ErrorKind: kind,
		})
	}

	if res.TotalBlanks > 0 {
		res.Score = Round2(100 * float64(res.CorrectCount) / float64(res.TotalBlanks))
	}
	return res
}
