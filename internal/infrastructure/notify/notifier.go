package notify

import (
	"context"
	"log/slog"

	"github.com/aurumline/exportdesk/internal/core/domain"
)

// LogNotifier announces finished analyses on the structured log. It
// stands where an outbound mail transport would plug in.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AnalysisCompleted(ctx context.Context, doc *domain.Document) error {
	n.logger.InfoContext(ctx, "analysis_completed",
		"document_id", doc.ID,
		"document_guid", doc.GUID,
		"kind", string(doc.Kind),
		"project_id", doc.ProjectID,
	)
	return nil
}
