package usecase

import (
	"context"
	"fmt"

	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/core/ports"
)

// ProjectThreads lazily binds an assistant thread to a project. The
// binding is write-once: concurrent ensures converge on the thread
// that won the persisted bind.
type ProjectThreads struct {
	projects ports.ProjectRepository
	gateway  ports.AssistantGateway
}

func NewProjectThreads(projects ports.ProjectRepository, gateway ports.AssistantGateway) *ProjectThreads {
	return &ProjectThreads{projects: projects, gateway: gateway}
}

func (t *ProjectThreads) Ensure(ctx context.Context, project *domain.Project) (string, error) {
	if project.ThreadID != "" {
		return project.ThreadID, nil
	}

	threadID, err := t.gateway.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create assistant thread: %w", err)
	}

	err = t.projects.SetThreadID(ctx, project.ID, threadID)
	if err == nil {
		project.ThreadID = threadID
		return threadID, nil
	}
	if !domain.IsKind(err, domain.ErrConflict) {
		return "", fmt.Errorf("bind thread to project: %w", err)
	}

	// Lost the bind race: another ensure persisted first.
	stored, readErr := t.projects.GetByKey(ctx, domain.KeyFromID(project.ID))
	if readErr != nil {
		return "", fmt.Errorf("reload project after thread bind conflict: %w", readErr)
	}
	if stored.ThreadID == "" {
		return "", domain.WrapError(domain.ErrConflict, "ensure thread", fmt.Errorf("project %d has no thread after bind conflict", project.ID))
	}
	project.ThreadID = stored.ThreadID
	return stored.ThreadID, nil
}
