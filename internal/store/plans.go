// internal/store/plans.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"bizpilot/internal/models"
)

// CreatePlan inserts plan, assigning its id and timestamps. Derived fields
// are recomputed first.
func (s *Store) CreatePlan(ctx context.Context, plan *models.BusinessPlan) error {
	return s.insertPlan(ctx, s.db, plan, s.now())
}

// CreatePlans inserts all plans in one transaction. Either every plan is
// stored or none is.
func (s *Store) CreatePlans(ctx context.Context, plans []*models.BusinessPlan) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, plan := range plans {
			if err := s.insertPlan(ctx, tx, plan, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) insertPlan(ctx context.Context, q DBTX, plan *models.BusinessPlan, now time.Time) error {
	if plan.ID == "" {
		plan.ID = s.newID()
	}
	if plan.Status == "" {
		plan.Status = models.PlanStatusDraft
	}
	if plan.Exports == nil {
		plan.Exports = []models.ExportRecord{}
	}
	plan.CreatedAt, plan.UpdatedAt = now, now
	plan.Recalculate()

	doc, err := encodeDoc(plan)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, q,
		`INSERT INTO plans (id, user_id, idea_id, type, status, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.UserID, plan.IdeaID, string(plan.Type), string(plan.Status), doc,
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("inserting plan %s: %w", plan.Type, err)
	}
	return nil
}

// DeletePlansForIdea removes every plan of an owned idea and returns the
// removed ids.
func (s *Store) DeletePlansForIdea(ctx context.Context, userID, ideaID string) ([]string, error) {
	var ids []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := s.query(ctx, tx, `SELECT id FROM plans WHERE idea_id = ? AND user_id = ?`, ideaID, userID)
		if err != nil {
			return fmt.Errorf("listing idea plans: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM plans WHERE idea_id = ? AND user_id = ?`, ideaID, userID); err != nil {
			return fmt.Errorf("deleting plans: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetPlan returns a plan owned by userID. An empty userID skips the
// ownership check.
func (s *Store) GetPlan(ctx context.Context, userID, id string) (*models.BusinessPlan, error) {
	query := `SELECT doc FROM plans WHERE id = ?`
	args := []any{id}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	var doc []byte
	if err := s.queryRow(ctx, s.db, query, args...).Scan(&doc); err != nil {
		return nil, notFound(err)
	}
	return decodePlan(doc)
}

// UpdatePlan recomputes derived fields and replaces the stored document.
func (s *Store) UpdatePlan(ctx context.Context, plan *models.BusinessPlan) error {
	plan.UpdatedAt = s.now()
	plan.Recalculate()
	doc, err := encodeDoc(plan)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, s.db,
		`UPDATE plans SET status = ?, doc = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(plan.Status), doc, formatTime(plan.UpdatedAt), plan.ID, plan.UserID)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}
	return rowsAffected(res)
}

// ListPlans returns one page of a user's plans, newest first.
func (s *Store) ListPlans(ctx context.Context, q models.PlanQuery) ([]models.BusinessPlan, models.Pagination, error) {
	page, limit := models.NormalizePage(q.Page, q.Limit)

	where := []string{"user_id = ?"}
	args := []any{q.UserID}
	if q.IdeaID != "" {
		where = append(where, "idea_id = ?")
		args = append(args, q.IdeaID)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(q.Type))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM plans WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, models.Pagination{}, fmt.Errorf("counting plans: %w", err)
	}

	plans, err := s.scanPlans(ctx,
		`SELECT doc FROM plans WHERE `+cond+` ORDER BY created_at DESC, type ASC LIMIT ? OFFSET ?`,
		append(args, limit, models.Offset(page, limit))...)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return plans, models.NewPagination(page, limit, total), nil
}

// PlansForIdea returns an idea's plans in generation order.
func (s *Store) PlansForIdea(ctx context.Context, userID, ideaID string) ([]models.BusinessPlan, error) {
	plans, err := s.scanPlans(ctx,
		`SELECT doc FROM plans WHERE idea_id = ? AND user_id = ? ORDER BY created_at ASC`, ideaID, userID)
	if err != nil {
		return nil, err
	}
	sortByPlanType(plans)
	return plans, nil
}

func (s *Store) scanPlans(ctx context.Context, query string, args ...any) ([]models.BusinessPlan, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	plans := []models.BusinessPlan{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		p, err := decodePlan(doc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	return plans, nil
}

// decodePlan never trusts stored derived values.
func decodePlan(doc []byte) (*models.BusinessPlan, error) {
	var p models.BusinessPlan
	if err := decodeDoc(doc, &p); err != nil {
		return nil, err
	}
	p.Recalculate()
	return &p, nil
}

// sortByPlanType orders plans conservative, aggressive, lean. Plans created
// in the same generation share near-identical timestamps.
func sortByPlanType(plans []models.BusinessPlan) {
	rank := map[models.PlanType]int{}
	for i, t := range models.PlanTypes {
		rank[t] = i
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return rank[plans[i].Type] < rank[plans[j].Type]
	})
}
