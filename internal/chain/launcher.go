package chain

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-solver/internal/config"
	"quiz-solver/internal/llm"
	"quiz-solver/internal/logging"
	"quiz-solver/internal/metrics"
	"quiz-solver/internal/page"
	"quiz-solver/internal/solver"
	"quiz-solver/internal/submit"
	"quiz-solver/pkg/models"
)

// Launcher starts chains with freshly built collaborators, so concurrent
// chains share nothing but the reasoning provider and the metrics registry.
type Launcher struct {
	cfg      *config.Config
	provider llm.Provider
	metrics  *metrics.Metrics
	logger   *logging.Logger

	// base is the parent context of every detached chain; cancelling it
	// is how shutdown reaches in-flight chains.
	base    context.Context
	wg      sync.WaitGroup
	running *registry
}

func NewLauncher(base context.Context, cfg *config.Config, provider llm.Provider, m *metrics.Metrics, logger *logging.Logger) *Launcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Launcher{
		cfg:      cfg,
		provider: provider,
		metrics:  m,
		logger:   logger,
		base:     base,
		running:  newRegistry(),
	}
}

// Launch starts a chain in the background and returns its ID immediately.
func (l *Launcher) Launch(quizURL string) string {
	task := l.newTask(quizURL)

	l.running.add(task.ID, task.URL)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.running.remove(task.ID)
		l.run(l.base, task)
	}()
	return task.ID
}

// Active reports how many launched chains have not finished yet.
func (l *Launcher) Active() int {
	return l.running.count()
}

// ActiveURLs lists the start URLs of chains that have not finished yet.
func (l *Launcher) ActiveURLs() []string {
	return l.running.startURLs()
}

// Run executes one chain in the foreground.
func (l *Launcher) Run(ctx context.Context, quizURL string) Result {
	return l.run(ctx, l.newTask(quizURL))
}

// Wait blocks until every launched chain has returned.
func (l *Launcher) Wait() {
	l.wg.Wait()
}

func (l *Launcher) newTask(quizURL string) models.QuizTask {
	return models.QuizTask{
		ID:       uuid.NewString(),
		URL:      quizURL,
		Identity: l.cfg.Identity(),
	}
}

func (l *Launcher) run(ctx context.Context, task models.QuizTask) Result {
	log := l.logger.Chain(task.ID)
	log.Info("chain launched", zap.String("url", task.URL))
	return l.newRunner(log).Run(ctx, task)
}

func (l *Launcher) newRunner(log *zap.Logger) *Runner {
	cfg := l.cfg
	gate := page.NewDomainManager(cfg.FetchRateLimit, cfg.UserAgent, cfg.RespectRobots)
	opts := page.Options{
		Timeout:      cfg.FetchTimeout,
		Settle:       cfg.FetchSettle,
		Selector:     cfg.ResultSelector,
		UserAgent:    cfg.UserAgent,
		ChromePath:   cfg.ChromePath,
		ChromeRemote: cfg.ChromeRemote,
		NoSandbox:    cfg.ChromeNoSandbox,
	}

	var fetcher page.Fetcher
	switch cfg.FetchMode {
	case config.FetchModeStatic:
		fetcher = page.NewStaticFetcher(opts, gate)
	default:
		fetcher = page.NewBrowserFetcher(opts, gate)
	}

	return NewRunner(
		fetcher,
		solver.New(l.provider, log),
		submit.New(fetcher, cfg.SubmitTimeout, log),
		Options{Budget: cfg.TimeBudget, RetryDelay: cfg.RetryDelay},
		l.metrics,
		log,
	)
}
