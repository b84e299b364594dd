package access

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/lectern/internal/api"
	"github.com/five82/lectern/internal/course"
	"github.com/five82/lectern/internal/viewer"
)

// Decision is the outcome of a detail request.
type Decision int

const (
	// DecisionPrompt asks the viewer to sign in; no detail is fetched.
	DecisionPrompt Decision = iota
	// DecisionFull shows the fetched detail.
	DecisionFull
)

func (d Decision) String() string {
	if d == DecisionFull {
		return "full"
	}
	return "prompt"
}

// Gate decides whether a course page is shown inline or behind a sign-in prompt.
type Gate struct {
	fetcher api.DetailAPI
	logger  *zap.Logger
}

// NewGate returns a Gate that fetches detail through fetcher.
func NewGate(fetcher api.DetailAPI, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{fetcher: fetcher, logger: logger}
}

// RequestDetail returns DecisionPrompt without touching the network for
// anonymous viewers. Authenticated viewers get DecisionFull and exactly one
// detail fetch; a fetch error is returned alongside DecisionFull. Lecture
// media is withheld until the course is purchased.
func (g *Gate) RequestDetail(ctx context.Context, courseID string, v viewer.Viewer) (Decision, *course.Detail, error) {
	if CanViewDetail(course.Course{ID: courseID}, v.Authenticated()) != Full {
		g.logger.Debug("detail gated", zap.String("course", courseID))
		return DecisionPrompt, nil, nil
	}
	if g.fetcher == nil {
		return DecisionFull, nil, fmt.Errorf("fetch course detail: no backend")
	}
	resp, err := g.fetcher.FetchCourseDetail(ctx, courseID)
	if err != nil {
		g.logger.Warn("detail fetch failed", zap.String("course", courseID), zap.Error(err))
		return DecisionFull, nil, fmt.Errorf("fetch course detail: %w", err)
	}
	detail := course.FromDetail(courseID, *resp)
	if !Entitled(v, detail.Course) {
		// Media is only handed out with the lecture screen.
		detail = Redact(detail, Preview)
	}
	g.logger.Info("detail loaded",
		zap.String("course", courseID),
		zap.Bool("purchased", detail.Course.Purchased),
		zap.Int("lectures", len(detail.Course.Lectures)),
	)
	return DecisionFull, &detail, nil
}
