package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovalAction enumerates review decisions.
type ApprovalAction string

const (
	ApprovalApprove     ApprovalAction = "APPROVE"
	ApprovalReject      ApprovalAction = "REJECT"
	ApprovalRenegotiate ApprovalAction = "RENEGOTIATE"
	ApprovalResubmit    ApprovalAction = "RESUBMIT"
)

// ApprovalLog is one review decision on a document.
type ApprovalLog struct {
	ID      int64
	Module  string
	RefID   uuid.UUID
	ActorID int64
	Action  ApprovalAction
	Round   int
	Note    string
	At      time.Time
}

// RefID derives a stable approval reference from a document key.
func RefID(module, key string) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(module+":"+key))
}

// ApprovalRecorder persists review history.
type ApprovalRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewApprovalRecorder constructs ApprovalRecorder.
func NewApprovalRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ApprovalRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApprovalRecorder{pool: pool, logger: logger}
}

// Record writes an approval entry.
func (r *ApprovalRecorder) Record(ctx context.Context, log ApprovalLog) error {
	if r == nil {
		return ErrNotInitialised
	}
	switch {
	case log.Module == "":
		return errors.New("approval module required")
	case log.RefID == uuid.Nil:
		return errors.New("approval ref id required")
	case log.Action == "":
		return errors.New("approval action required")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO approvals (module, ref_id, actor_id, action, round, note, at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())`, log.Module, log.RefID, log.ActorID, string(log.Action), log.Round, log.Note)
	if err != nil {
		r.logger.Error("record approval", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns the approvals of one document, oldest first.
func (r *ApprovalRecorder) List(ctx context.Context, module string, ref uuid.UUID) ([]ApprovalLog, error) {
	if r == nil {
		return nil, ErrNotInitialised
	}
	rows, err := r.pool.Query(ctx, `SELECT id, module, ref_id, actor_id, action, round, note, at
FROM approvals WHERE module=$1 AND ref_id=$2 ORDER BY at ASC, id ASC`, module, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ApprovalLog
	for rows.Next() {
		var entry ApprovalLog
		var action string
		if err := rows.Scan(&entry.ID, &entry.Module, &entry.RefID, &entry.ActorID, &action, &entry.Round, &entry.Note, &entry.At); err != nil {
			return nil, err
		}
		entry.Action = ApprovalAction(action)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
