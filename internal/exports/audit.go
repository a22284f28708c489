package exports

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// AuditLog records successful offline-doc exports for the project
// activity screens.
type AuditLog struct {
	db *sql.DB
}

func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Record inserts one export event and returns its id.
func (l *AuditLog) Record(ctx context.Context, documentID, actorID string) (string, error) {
	id := uuid.New().String()

	const q = `
INSERT INTO export_logs (id, document_id, actor_id, exported_at)
VALUES ($1::uuid, $2, $3::uuid, now());
`
	if _, err := l.db.ExecContext(ctx, q, id, documentID, actorID); err != nil {
		return "", fmt.Errorf("record export: %w", err)
	}
	return id, nil
}
