package classroom

import (
	"context"
	"sort"
	"time"

	"github.com/romangrishanov/ditado/core/dictation"
)

type (
	// AssignmentSummary is the teacher's report of one assignment, built from
	// each student's first attempt only.
	AssignmentSummary struct {
		Assignment     Assignment      `json:"assignment"`
		ClassSize      int             `json:"class_size"`
		SubmittedCount int             `json:"submitted_count"`
		AverageScore   float64         `json:"average_score"` // over submitted first attempts
		KindCounts     []KindCount     `json:"kind_counts"`   // class-wide, most frequent first
		WordCounts     []WordCount     `json:"word_counts"`   // most missed words first
		Students       []StudentResult `json:"students"`
	}

	// KindCount tallies one error category across the class.
	KindCount struct {
		Kind        dictation.ErrorKind `json:"kind"`
		Description string              `json:"description"`
		Count       int                 `json:"count"`
	}

	// WordCount tallies how often one dictated word was missed across the class.
	WordCount struct {
		Word  string `json:"word"`
		Count int    `json:"count"`
	}

	// StudentResult is one student's line in the report.
	StudentResult struct {
		StudentID       string              `json:"student_id"`
		StudentName     string              `json:"student_name"`
		Score           float64             `json:"score"`
		SubmittedAt     time.Time           `json:"submitted_at"`
		Late            bool                `json:"late"`
		WordCount       int                 `json:"word_count"`
		ErrorCount      int                 `json:"error_count"`
		MostCommonError dictation.ErrorKind `json:"most_common_error,omitempty"`
	}
)

func (svc *service) AssignmentReport(ctx context.Context, assignmentID string) (AssignmentSummary, error) {
	asg, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return AssignmentSummary{}, err
	}
	cls, err := svc.repo.GetClassroomByID(ctx, asg.ClassroomID)
	if err != nil {
		return AssignmentSummary{}, err
	}

	firsts, err := svc.dictSvc.FirstAttempts(ctx, asg.DictationID)
	if err != nil {
		return AssignmentSummary{}, err
	}

	summary := AssignmentSummary{
		Assignment: asg,
		ClassSize:  len(cls.StudentIDs),
		Students:   make([]StudentResult, 0, len(firsts)),
	}

	var scoreSum float64
	classKinds := make(map[dictation.ErrorKind]int)
	classWords := make(map[string]int)

	for _, att := range firsts {
		// the dictation may have been attempted outside this classroom
		if !cls.HasStudent(att.StudentID) {
			continue
		}

		res := StudentResult{
			StudentID:   att.StudentID,
			Score:       att.Score,
			SubmittedAt: att.SubmittedAt,
			Late:        !asg.DueAt.IsZero() && att.SubmittedAt.After(asg.DueAt),
			WordCount:   len(att.Answers),
		}
		if usr, err := svc.usrSvc.GetByID(ctx, att.StudentID); err == nil {
			res.StudentName = usr.Name
		}

		kinds := make(map[dictation.ErrorKind]int)
		for _, ans := range att.Answers {
			if ans.Correct {
				continue
			}
			res.ErrorCount++
			kinds[ans.ErrorKind]++
			classKinds[ans.ErrorKind]++
			classWords[ans.Expected]++
		}
		res.MostCommonError = mostCommonKind(kinds)

		summary.Students = append(summary.Students, res)
		summary.SubmittedCount++
		scoreSum += att.Score
	}

	if summary.SubmittedCount > 0 {
		summary.AverageScore = dictation.Round2(scoreSum / float64(summary.SubmittedCount))
	}
	summary.KindCounts = sortedKindCounts(classKinds)
	summary.WordCounts = sortedWordCounts(classWords)
	return summary, nil
}

// mostCommonKind picks the most frequent kind; ties break on the
// taxonomy order so reports stay deterministic.
func mostCommonKind(kinds map[dictation.ErrorKind]int) dictation.ErrorKind {
	var best dictation.ErrorKind
	var bestCount int
	for _, kind := range dictation.Kinds {
		if count := kinds[kind]; count > bestCount {
			best = kind
			bestCount = count
		}
	}
	return best
}

func sortedKindCounts(kinds map[dictation.ErrorKind]int) []KindCount {
	counts := make([]KindCount, 0, len(kinds))
	for kind, count := range kinds {
		counts = append(counts, KindCount{Kind: kind, Description: kind.Describe(), Count: count})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Kind < counts[j].Kind
	})
	return counts
}

func sortedWordCounts(words map[string]int) []WordCount {
	counts := make([]WordCount, 0, len(words))
	for word, count := range words {
		counts = append(counts, WordCount{Word: word, Count: count})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})
	return counts
}
