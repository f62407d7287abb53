package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"skill-platform/internal/domain"
	"skill-platform/internal/domain/model"
	"skill-platform/internal/domain/ports/adapter"
	"skill-platform/internal/domain/ports/repository"
)

var _ adapter.SkillExecutor = (*PreviewExecutor)(nil)

// VersionReader is the read-only slice of the skill repository the executor
// needs; it deliberately has no way to mutate anything.
type VersionReader interface {
	LatestVersion(ctx context.Context, tx repository.Tx, skillID int64) (*model.SkillVersion, error)
}

const previewLen = 400

// PreviewExecutor is the stand-in execution backend: it resolves the latest
// version of the skill and returns a simulated output built from the user
// input and a content preview. A sandboxed runner can replace it behind the
// SkillExecutor interface without touching the worker runner.
type PreviewExecutor struct {
	versions VersionReader
}

func NewPreviewExecutor(versions VersionReader) *PreviewExecutor {
	return &PreviewExecutor{versions: versions}
}

func (e *PreviewExecutor) Run(ctx context.Context, skillID int64, inputText string) (string, error) {
	latest, err := e.versions.LatestVersion(ctx, repository.NoTX, skillID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("skill %d: %w", skillID, domain.ErrNoVersion)
		}
		return "", fmt.Errorf("resolve skill %d content: %w", skillID, err)
	}

	preview := latest.SkillMD
	if len(preview) > previewLen {
		preview = preview[:previewLen]
	}
	preview = strings.ReplaceAll(preview, "\n", " ")

	return fmt.Sprintf(
		"Simulated runner output (replace with sandbox execution).\n\n"+
			"User input: %s\n"+
			"Skill version: v%d\n"+
			"Skill preview: %s",
		inputText, latest.Version, preview,
	), nil
}
