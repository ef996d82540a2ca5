package chain

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"quiz-solver/internal/metrics"
	"quiz-solver/pkg/models"
)

// PageFetcher loads the quiz page at a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (models.PageContent, error)
}

// AnswerSolver turns page content into an answer.
type AnswerSolver interface {
	Solve(ctx context.Context, content, sourceURL string) (models.Answer, error)
}

// AnswerSubmitter grades an answer. Transport problems are expected to come
// back as an incorrect Verdict; a returned error ends the chain.
type AnswerSubmitter interface {
	Submit(ctx context.Context, identity models.Identity, quizURL string, answer models.Answer) (models.Verdict, error)
}

type State int

const (
	Running State = iota
	Completed
	TimedOut
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case TimedOut:
		return "timed_out"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrNoURL = errors.New("quiz url is empty")

// Result is the terminal outcome of a chain. Err is set only for Failed.
type Result struct {
	State      State
	Iterations int
	LastURL    string
	Err        error
}

type Options struct {
	Budget     time.Duration
	RetryDelay time.Duration
}

// Runner walks a quiz chain: fetch, solve, submit, then follow the verdict.
// A Runner is used for one chain at a time.
type Runner struct {
	fetcher   PageFetcher
	solver    AnswerSolver
	submitter AnswerSubmitter
	opts      Options
	metrics   *metrics.Metrics
	logger    *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(fetcher PageFetcher, solver AnswerSolver, submitter AnswerSubmitter, opts Options, m *metrics.Metrics, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		fetcher:   fetcher,
		solver:    solver,
		submitter: submitter,
		opts:      opts,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Run drives task to a terminal state. It never panics; a panic in any
// collaborator ends the chain as Failed.
func (r *Runner) Run(ctx context.Context, task models.QuizTask) (res Result) {
	log := r.logger.With(zap.String("start_url", task.URL))
	r.metrics.ChainStarted()
	start := r.now()

	defer func() {
		if p := recover(); p != nil {
			res.State = Failed
			res.Err = fmt.Errorf("panic: %v", p)
			log.Error("chain panicked",
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()),
			)
		}
		r.metrics.ChainFinished(res.State.String())
		log.Info("chain finished",
			zap.Stringer("state", res.State),
			zap.Int("iterations", res.Iterations),
			zap.String("last_url", res.LastURL),
			zap.Duration("elapsed", r.now().Sub(start)),
			zap.Error(res.Err),
		)
	}()

	if task.URL == "" {
		return Result{State: Failed, Err: ErrNoURL}
	}

	res = Result{State: Running, LastURL: task.URL}
	current := task.URL

	for {
		if elapsed := r.now().Sub(start); elapsed >= r.opts.Budget {
			log.Warn("time budget exhausted", zap.Duration("elapsed", elapsed), zap.String("url", current))
			res.State = TimedOut
			return res
		}
		if err := ctx.Err(); err != nil {
			res.State = Failed
			res.Err = err
			return res
		}

		res.Iterations++
		res.LastURL = current
		ilog := log.With(zap.String("url", current), zap.Int("iteration", res.Iterations))
		ilog.Info("fetching quiz")

		stageStart := r.now()
		content, err := r.fetcher.Fetch(ctx, current)
		r.metrics.ObserveStage("fetch", r.now().Sub(stageStart))
		if err != nil {
			ilog.Error("fetch failed", zap.Error(err))
			res.State = Failed
			res.Err = err
			return res
		}
		r.metrics.PageFetched(content.StatusCode, content.Narrowed)
		ilog.Info("quiz page loaded",
			zap.Int("status_code", content.StatusCode),
			zap.Duration("load_time", content.LoadTime),
			zap.Bool("narrowed", content.Narrowed),
			zap.Int("content_chars", len(content.HTML)),
		)

		stageStart = r.now()
		answer, err := r.solver.Solve(ctx, content.HTML, current)
		r.metrics.ObserveStage("solve", r.now().Sub(stageStart))
		if err != nil {
			ilog.Error("solve failed", zap.Error(err))
			res.State = Failed
			res.Err = err
			return res
		}
		ilog.Info("answer ready", zap.Stringer("kind", answer.Kind), zap.Stringer("answer", answer))

		stageStart = r.now()
		verdict, err := r.submitter.Submit(ctx, task.Identity, current, answer)
		r.metrics.ObserveStage("submit", r.now().Sub(stageStart))
		if err != nil {
			ilog.Error("submit failed", zap.Error(err))
			res.State = Failed
			res.Err = fmt.Errorf("submit %s: %w", current, err)
			return res
		}
		r.metrics.Attempt(verdict.Correct)

		if verdict.Correct {
			if verdict.NextURL == "" {
				ilog.Info("quiz chain completed")
				res.State = Completed
				return res
			}
			ilog.Info("correct, moving on", zap.String("next_url", verdict.NextURL))
			current = verdict.NextURL
			continue
		}

		ilog.Warn("incorrect answer", zap.String("reason", verdict.Reason), zap.String("next_url", verdict.NextURL))
		if verdict.NextURL != "" && verdict.NextURL != current {
			current = verdict.NextURL
			continue
		}

		if err := r.sleep(ctx, r.opts.RetryDelay); err != nil {
			res.State = Failed
			res.Err = err
			return res
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
