// internal/store/ideas.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bizpilot/internal/models"
)

// CreateIdea inserts idea, assigning its id and timestamps.
func (s *Store) CreateIdea(ctx context.Context, idea *models.BusinessIdea) error {
	now := s.now()
	if idea.ID == "" {
		idea.ID = s.newID()
	}
	if idea.Status == "" {
		idea.Status = models.IdeaStatusDraft
	}
	idea.CreatedAt, idea.UpdatedAt = now, now

	doc, err := encodeDoc(idea)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, s.db,
		`INSERT INTO ideas (id, user_id, category, budget, status, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.ID, idea.UserID, string(idea.Category), string(idea.Budget), string(idea.Status), doc,
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("inserting idea: %w", err)
	}
	return nil
}

// GetIdea returns an idea owned by userID. An empty userID skips the
// ownership check.
func (s *Store) GetIdea(ctx context.Context, userID, id string) (*models.BusinessIdea, error) {
	query := `SELECT doc, (SELECT COUNT(*) FROM plans p WHERE p.idea_id = i.id) FROM ideas i WHERE i.id = ?`
	args := []any{id}
	if userID != "" {
		query += ` AND i.user_id = ?`
		args = append(args, userID)
	}
	var (
		doc   []byte
		count int
	)
	if err := s.queryRow(ctx, s.db, query, args...).Scan(&doc, &count); err != nil {
		return nil, notFound(err)
	}
	var idea models.BusinessIdea
	if err := decodeDoc(doc, &idea); err != nil {
		return nil, err
	}
	idea.PlanCount = count
	return &idea, nil
}

// UpdateIdea replaces the stored document of an owned idea.
func (s *Store) UpdateIdea(ctx context.Context, idea *models.BusinessIdea) error {
	idea.UpdatedAt = s.now()
	doc, err := encodeDoc(idea)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, s.db,
		`UPDATE ideas SET category = ?, budget = ?, status = ?, doc = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(idea.Category), string(idea.Budget), string(idea.Status), doc, formatTime(idea.UpdatedAt),
		idea.ID, idea.UserID)
	if err != nil {
		return fmt.Errorf("updating idea: %w", err)
	}
	return rowsAffected(res)
}

// DeleteIdea removes an owned idea and its plans. It returns the ids of
// the deleted plans.
func (s *Store) DeleteIdea(ctx context.Context, userID, id string) ([]string, error) {
	var planIDs []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := s.query(ctx, tx, `SELECT id FROM plans WHERE idea_id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("listing idea plans: %w", err)
		}
		for rows.Next() {
			var pid string
			if err := rows.Scan(&pid); err != nil {
				rows.Close()
				return err
			}
			planIDs = append(planIDs, pid)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := s.exec(ctx, tx, `DELETE FROM plans WHERE idea_id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("deleting plans: %w", err)
		}
		res, err := s.exec(ctx, tx, `DELETE FROM ideas WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("deleting idea: %w", err)
		}
		return rowsAffected(res)
	})
	if err != nil {
		return nil, err
	}
	return planIDs, nil
}

// ListIdeas returns one page of a user's ideas, newest first.
func (s *Store) ListIdeas(ctx context.Context, q models.IdeaQuery) ([]models.BusinessIdea, models.Pagination, error) {
	page, limit := models.NormalizePage(q.Page, q.Limit)

	where := []string{"i.user_id = ?"}
	args := []any{q.UserID}
	if q.Category != "" {
		where = append(where, "i.category = ?")
		args = append(args, string(q.Category))
	}
	if q.Status != "" {
		where = append(where, "i.status = ?")
		args = append(args, string(q.Status))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM ideas i WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("counting ideas: %w", err)
	}

	rows, err := s.query(ctx, s.db,
		`SELECT i.doc, (SELECT COUNT(*) FROM plans p WHERE p.idea_id = i.id) FROM ideas i WHERE `+cond+
			` ORDER BY i.created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, models.Offset(page, limit))...)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("listing ideas: %w", err)
	}
	defer rows.Close()

	ideas := make([]models.BusinessIdea, 0, limit)
	for rows.Next() {
		var (
			doc   []byte
			count int
		)
		if err := rows.Scan(&doc, &count); err != nil {
			return nil, models.Pagination{}, fmt.Errorf("scanning idea: %w", err)
		}
		var idea models.BusinessIdea
		if err := decodeDoc(doc, &idea); err != nil {
			return nil, models.Pagination{}, err
		}
		idea.PlanCount = count
		ideas = append(ideas, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("iterating ideas: %w", err)
	}
	return ideas, models.NewPagination(page, limit, total), nil
}
