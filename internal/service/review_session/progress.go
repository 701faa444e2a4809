package review_session

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
)

// GradedCard is the schedule produced by grading a card.
type GradedCard struct {
	CardID      uuid.UUID `json:"card_id"`
	NewDueDate  time.Time `json:"new_due_date"`
	NewInterval int       `json:"new_interval"`
	EaseFactor  float64   `json:"ease_factor"`
}

// SessionProgress summarizes how far a session has come.
type SessionProgress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// GradeResult is returned by a successful GradeCurrentCard call.
type GradeResult struct {
	Success         bool            `json:"success"`
	GradedCard      GradedCard      `json:"graded_card"`
	SessionProgress SessionProgress `json:"session_progress"`
	SessionComplete bool            `json:"session_complete"`
}

// Progress counts cards in a session.
type Progress struct {
	Completed int `json:"completed"`
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}

// Timing describes how long a session has run. For terminal sessions the
// duration stops at EndTime.
type Timing struct {
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes float64    `json:"duration_minutes"`
}

// Performance aggregates the grades given so far. Accuracy is the
// percentage of passing grades; AverageResponseTimeMS only counts
// grades that carried a response time.
type Performance struct {
	AverageGrade          float64     `json:"average_grade"`
	Accuracy              float64     `json:"accuracy"`
	GradeDistribution     map[int]int `json:"grade_distribution"`
	AverageResponseTimeMS float64     `json:"average_response_time_ms"`
}

// ProgressView is the full progress report for one session.
type ProgressView struct {
	SessionID   string      `json:"session_id"`
	Status      Status      `json:"status"`
	Progress    Progress    `json:"progress"`
	Timing      Timing      `json:"timing"`
	Performance Performance `json:"performance"`
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func sessionProgress(s *session) SessionProgress {
	return SessionProgress{
		Completed: s.index,
		Total:     s.total(),
		Percent:   percent(s.index, s.total()),
	}
}

// progressView builds the report for s at now. The caller holds s.mu.
func progressView(s *session, now time.Time) *ProgressView {
	end := now
	var endTime *time.Time
	if s.endTime != nil {
		t := *s.endTime
		end, endTime = t, &t
	}

	return &ProgressView{
		SessionID: s.id,
		Status:    s.status,
		Progress: Progress{
			Completed: s.index,
			Remaining: s.total() - s.index,
			Total:     s.total(),
		},
		Timing: Timing{
			StartTime:       s.startTime,
			EndTime:         endTime,
			DurationMinutes: end.Sub(s.startTime).Minutes(),
		},
		Performance: performance(s.grades),
	}
}

func performance(grades []GradeEntry) Performance {
	p := Performance{GradeDistribution: make(map[int]int, int(domain.MaxGrade)+1)}
	for g := domain.MinGrade; g <= domain.MaxGrade; g++ {
		p.GradeDistribution[int(g)] = 0
	}
	if len(grades) == 0 {
		return p
	}

	var sum, passed, timed int
	var responseSum int64
	for _, e := range grades {
		sum += e.Grade
		p.GradeDistribution[e.Grade]++
		if domain.Grade(e.Grade).Passed() {
			passed++
		}
		if e.ResponseTimeMS != nil {
			responseSum += *e.ResponseTimeMS
			timed++
		}
	}

	p.AverageGrade = float64(sum) / float64(len(grades))
	p.Accuracy = percent(passed, len(grades))
	if timed > 0 {
		p.AverageResponseTimeMS = float64(responseSum) / float64(timed)
	}
	return p
}
