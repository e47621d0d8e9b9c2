package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/deskwise/deskwise/store"
)

// ListConversationMessages returns the ordered history of a thread. An unknown
// thread yields an empty slice.
func (d *DB) ListConversationMessages(ctx context.Context, find *store.FindMessages) ([]*store.Message, error) {
	query := `
		SELECT m.id, m.uid, m.conversation_id, m.role, m.content, m.tool_calls, m.tool_call_id, m.tool_name, m.created_ts
		FROM conversation_message m
		INNER JOIN conversation c ON c.id = m.conversation_id
		WHERE c.thread_id = ` + placeholder(1) + `
		ORDER BY m.id ASC
	`

	rows, err := d.db.QueryContext(ctx, query, find.ThreadID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversation messages")
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		var message store.Message
		err := rows.Scan(
			&message.ID,
			&message.UID,
			&message.ConversationID,
			&message.Role,
			&message.Content,
			&message.ToolCalls,
			&message.ToolCallID,
			&message.ToolName,
			&message.CreatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation message")
		}
		list = append(list, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// AppendConversationMessages stores a batch of messages for a thread in one
// transaction, creating the conversation row on first use.
func (d *DB) AppendConversationMessages(ctx context.Context, threadID string, messages []*store.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	var conversationID int32
	err = tx.QueryRowContext(ctx, `SELECT id FROM conversation WHERE thread_id = `+placeholder(1), threadID).Scan(&conversationID)
	if err == sql.ErrNoRows {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO conversation (thread_id, created_ts, updated_ts)
			VALUES (`+placeholders(3)+`)
			RETURNING id
		`, threadID, now, now).Scan(&conversationID)
	}
	if err != nil {
		return errors.Wrap(err, "failed to resolve conversation")
	}

	stmt := `
		INSERT INTO conversation_message (uid, conversation_id, role, content, tool_calls, tool_call_id, tool_name, created_ts)
		VALUES (` + placeholders(8) + `)
	`
	for _, message := range messages {
		createdTs := message.CreatedTs
		if createdTs == 0 {
			createdTs = now
		}
		if _, err := tx.ExecContext(ctx, stmt,
			message.UID,
			conversationID,
			message.Role,
			message.Content,
			message.ToolCalls,
			message.ToolCallID,
			message.ToolName,
			createdTs,
		); err != nil {
			return errors.Wrap(err, "failed to insert conversation message")
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conversation SET updated_ts = `+placeholder(1)+` WHERE id = `+placeholder(2), now, conversationID); err != nil {
		return errors.Wrap(err, "failed to touch conversation")
	}

	return tx.Commit()
}
