package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const documentColumns = "id, agent_id, filename, original_name, mime_type, size, content, uploaded_by, created_at"

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var content sql.NullString
	if err := row.Scan(&d.ID, &d.AgentID, &d.Filename, &d.OriginalName, &d.MimeType, &d.Size, &content, &d.UploadedBy, &d.CreatedAt); err != nil {
		return nil, err
	}
	if content.Valid {
		d.Content = &content.String
	}
	return &d, nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, d *Document) error {
	d.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (agent_id, filename, original_name, mime_type, size, content, uploaded_by, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.AgentID, d.Filename, d.OriginalName, d.MimeType, d.Size, d.Content, d.UploadedBy, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read document id: %w", err)
	}
	d.ID = id
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id int64) (*Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) GetAgentDocuments(ctx context.Context, agentID int64) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE agent_id = ? ORDER BY created_at, id", agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// GetDocuments returns every attached document of the agent as
// {original name, content}; a NULL content becomes "".
func (s *SQLiteStore) GetDocuments(ctx context.Context, agentID int64) ([]DocumentContext, error) {
	docs, err := s.GetAgentDocuments(ctx, agentID)
	if err != nil {
		return nil, err
	}
	contexts := make([]DocumentContext, 0, len(docs))
	for _, d := range docs {
		content := ""
		if d.Content != nil {
			content = *d.Content
		}
		contexts = append(contexts, DocumentContext{Filename: d.OriginalName, Content: content})
	}
	return contexts, nil
}

func (s *SQLiteStore) UpdateDocumentContent(ctx context.Context, id int64, content string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE documents SET content = ? WHERE id = ?", content, id)
	if err != nil {
		return fmt.Errorf("failed to update document content: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("document %d not found, content not updated", id)
	}
	return nil
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
