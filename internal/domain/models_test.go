package domain

import (
	"errors"
	"testing"
)

func TestNewQuizResultScoring(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		elapsed int
		want    QuizResult
	}{
		{name: "three of five", correct: 3, total: 5, elapsed: 17, want: QuizResult{Score: 6.0, DurationSeconds: 17}},
		{name: "all correct", correct: 3, total: 3, elapsed: 42, want: QuizResult{Score: 10.0, DurationSeconds: 42}},
		{name: "one third rounds down", correct: 1, total: 3, elapsed: 5, want: QuizResult{Score: 3.3, DurationSeconds: 5}},
		{name: "two thirds rounds up", correct: 2, total: 3, elapsed: 5, want: QuizResult{Score: 6.7, DurationSeconds: 5}},
		{name: "none correct", correct: 0, total: 4, elapsed: 0, want: QuizResult{Score: 0, DurationSeconds: 0}},
		{name: "no questions", correct: 0, total: 0, elapsed: 9, want: QuizResult{Score: 0, DurationSeconds: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewQuizResult(tt.correct, tt.total, tt.elapsed)
			if got != tt.want {
				t.Fatalf("NewQuizResult(%d, %d, %d) = %+v, want %+v", tt.correct, tt.total, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestNewQuizResultStaysInRange(t *testing.T) {
	for total := 1; total <= 20; total++ {
		for correct := 0; correct <= total; correct++ {
			res := NewQuizResult(correct, total, 0)
			if res.Score < 0 || res.Score > 10 {
				t.Fatalf("score %v out of range for %d/%d", res.Score, correct, total)
			}
		}
	}
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{
		ID:       "q1",
		Word:     "Brave",
		Sentence: "She was brave enough to speak.",
		Meaning:  "dũng cảm",
		Options:  []string{"dũng cảm", "nhút nhát", "vui vẻ"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}

	missingWord := valid
	missingWord.Sentence = "Nothing to see here."
	if err := missingWord.Validate(); err == nil {
		t.Fatalf("expected error when sentence lacks the word")
	}

	duplicated := valid
	duplicated.Options = []string{"dũng cảm", "dũng cảm", "vui vẻ"}
	if err := duplicated.Validate(); err == nil {
		t.Fatalf("expected error when meaning appears twice")
	}

	absent := valid
	absent.Options = []string{"nhút nhát", "vui vẻ"}
	if err := absent.Validate(); err == nil {
		t.Fatalf("expected error when meaning is not an option")
	}
}

func TestQuizProgressValidate(t *testing.T) {
	qs := make([]Question, 4)
	if err := (QuizProgress{Questions: qs, CurrentIndex: 2, CorrectCount: 1, ElapsedSeconds: 30}).Validate(); err != nil {
		t.Fatalf("expected valid progress, got %v", err)
	}
	if err := (QuizProgress{Questions: qs, CurrentIndex: 4, CorrectCount: 4}).Validate(); err != nil {
		t.Fatalf("expected finished progress to be valid, got %v", err)
	}
	if err := (QuizProgress{Questions: qs, CurrentIndex: 1, CorrectCount: 2}).Validate(); err == nil {
		t.Fatalf("expected error when correct exceeds index")
	}
	if err := (QuizProgress{Questions: qs, CurrentIndex: 5}).Validate(); err == nil {
		t.Fatalf("expected error when index exceeds total")
	}
	if err := (QuizProgress{}).Validate(); err == nil {
		t.Fatalf("expected error for empty progress")
	}
}

func TestSessionPatchApply(t *testing.T) {
	user := UserIdentity{Name: "Lan", Phone: "0912345678", Email: "lan@gmail.com"}
	progress := QuizProgress{Questions: make([]Question, 2), CurrentIndex: 1}
	rec := SessionPatch{UserData: &user, View: ViewQuiz, QuizState: &progress}.Apply(SessionRecord{})

	if rec.UserData == nil || *rec.UserData != user || rec.View != ViewQuiz || rec.QuizState == nil {
		t.Fatalf("unexpected record after first patch: %+v", rec)
	}

	result := QuizResult{Score: 5, DurationSeconds: 10}
	rec = SessionPatch{View: ViewResult, Result: &result, ClearQuizState: true}.Apply(rec)
	if rec.QuizState != nil {
		t.Fatalf("expected quiz state removed")
	}
	if rec.UserData == nil || rec.Result == nil || *rec.Result != result || rec.View != ViewResult {
		t.Fatalf("merge lost fields: %+v", rec)
	}

	rec = SessionPatch{View: ViewQuiz, ClearResult: true}.Apply(rec)
	if rec.Result != nil || rec.UserData == nil {
		t.Fatalf("expected result cleared and user kept: %+v", rec)
	}
}

func TestSessionPatchDoesNotAliasProgress(t *testing.T) {
	progress := QuizProgress{Questions: []Question{{ID: "a"}}}
	rec := SessionPatch{QuizState: &progress}.Apply(SessionRecord{})
	progress.Questions[0].ID = "changed"
	if rec.QuizState.Questions[0].ID != "a" {
		t.Fatalf("record shares question slice with caller")
	}
}

func TestNormalizeIdentity(t *testing.T) {
	got, err := NormalizeIdentity(UserIdentity{Name: "  Minh  ", Phone: "091-234 5678", Email: " minh.nguyen "})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := UserIdentity{Name: "Minh", Phone: "0912345678", Email: "minh.nguyen@gmail.com"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	kept, err := NormalizeIdentity(UserIdentity{Name: "A", Phone: "01234567890", Email: "a@school.edu.vn"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if kept.Email != "a@school.edu.vn" {
		t.Fatalf("expected email untouched, got %q", kept.Email)
	}

	cases := map[string]UserIdentity{
		"name":  {Name: " ", Phone: "0912345678", Email: "x"},
		"phone": {Name: "A", Phone: "12345", Email: "x"},
		"email": {Name: "A", Phone: "0912345678", Email: "  "},
	}
	for field, in := range cases {
		_, err := NormalizeIdentity(in)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != field {
			t.Fatalf("expected %s validation error, got %v", field, err)
		}
	}
}
