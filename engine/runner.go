package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codearena/platform/storage"
)

const defaultMatchTimeout = 2 * time.Minute

type Config struct {
	// Command is the interpreter the engine script runs under, e.g. "python3".
	Command string
	// ScriptPath is the engine entrypoint.
	ScriptPath string
	// SystemBotPath is the house bot fresh submissions are scored against.
	SystemBotPath string
	// ScratchDir holds transient artifacts and log files. Defaults to the
	// OS temp dir.
	ScratchDir string
	// MatchTimeout bounds one subprocess run. A hung engine is killed and
	// surfaced as a timeout failure. Defaults to 2 minutes.
	MatchTimeout time.Duration
	// ScoreColumn1/ScoreColumn2 are the 0-based columns of the log's last
	// row holding the final scores. Default to 7 and 8.
	ScoreColumn1 int
	ScoreColumn2 int
}

// MatchResult is one finished engine run: both final scores and the full
// parsed log.
type MatchResult struct {
	Score1 float64
	Score2 float64
	Log    *MatchLog
}

// Runner invokes the external match engine as a one-shot subprocess, one
// match at a time.
type Runner struct {
	cfg    Config
	files  storage.FileStore
	logger *slog.Logger
}

func NewRunner(cfg Config, files storage.FileStore, logger *slog.Logger) *Runner {
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = os.TempDir()
	}
	if cfg.MatchTimeout <= 0 {
		cfg.MatchTimeout = defaultMatchTimeout
	}
	if cfg.ScoreColumn1 == 0 && cfg.ScoreColumn2 == 0 {
		cfg.ScoreColumn1 = DefaultScoreColumn1
		cfg.ScoreColumn2 = DefaultScoreColumn2
	}
	return &Runner{cfg: cfg, files: files, logger: logger}
}

// PlayMatch fetches both bot artifacts and plays them against each other.
// The two downloads run concurrently; the engine run itself is synchronous.
func (r *Runner) PlayMatch(ctx context.Context, artifactKey1, artifactKey2 string) (*MatchResult, error) {
	var path1, path2 string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		path1, err = r.fetchArtifact(gctx, artifactKey1)
		return err
	})
	g.Go(func() error {
		var err error
		path2, err = r.fetchArtifact(gctx, artifactKey2)
		return err
	})
	if err := g.Wait(); err != nil {
		removeIfSet(path1)
		removeIfSet(path2)
		return nil, &Error{Kind: FailureArtifact, Err: err}
	}
	defer os.Remove(path1)
	defer os.Remove(path2)

	return r.run(ctx, path1, path2)
}

// PlayAgainstSystemBot scores a single submission by playing it as player 1
// against the configured house bot.
func (r *Runner) PlayAgainstSystemBot(ctx context.Context, artifactKey string) (*MatchResult, error) {
	path, err := r.fetchArtifact(ctx, artifactKey)
	if err != nil {
		return nil, &Error{Kind: FailureArtifact, Err: err}
	}
	defer os.Remove(path)

	return r.run(ctx, path, r.cfg.SystemBotPath)
}

func (r *Runner) run(ctx context.Context, botPath1, botPath2 string) (*MatchResult, error) {
	logFile := filepath.Join(r.cfg.ScratchDir, fmt.Sprintf("game_log_%s.csv", uuid.NewString()))
	defer os.Remove(logFile)

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.MatchTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.Command, r.cfg.ScriptPath,
		"--p1", botPath1, "--p2", botPath2, "--logfile", logFile)

	started := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Kind: FailureTimeout,
				Err: fmt.Errorf("match exceeded %v and was killed", r.cfg.MatchTimeout)}
		}
		return nil, &Error{Kind: FailureExec,
			Err: fmt.Errorf("engine exited abnormally: %w (output: %s)", err, truncateOutput(output))}
	}

	raw, err := os.ReadFile(logFile)
	if err != nil {
		return nil, &Error{Kind: FailureLog,
			Err: fmt.Errorf("engine exited cleanly but the log file is unreadable: %w", err)}
	}

	matchLog, err := ParseMatchLog(string(raw))
	if err != nil {
		return nil, &Error{Kind: FailureLog, Err: err}
	}

	score1, score2, err := matchLog.FinalScores(r.cfg.ScoreColumn1, r.cfg.ScoreColumn2)
	if err != nil {
		return nil, &Error{Kind: FailureLog, Err: err}
	}

	r.logger.Info("match finished",
		slog.Float64("score1", score1),
		slog.Float64("score2", score2),
		slog.Int("steps", len(matchLog.Steps)),
		slog.Duration("took", time.Since(started)))

	return &MatchResult{Score1: score1, Score2: score2, Log: matchLog}, nil
}

func (r *Runner) fetchArtifact(ctx context.Context, key string) (string, error) {
	body, err := r.files.Download(ctx, key)
	if err != nil {
		return "", err
	}
	defer body.Close()

	dst := filepath.Join(r.cfg.ScratchDir, uuid.NewString()+"_"+filepath.Base(key))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file for %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write artifact %s to scratch: %w", key, err)
	}
	return dst, nil
}

func removeIfSet(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func truncateOutput(output []byte) string {
	const max = 512
	if len(output) > max {
		return string(output[:max]) + "..."
	}
	return string(output)
}
