// internal/store/analytics.go
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"bizpilot/internal/models"
)

// CountBucket is one group of an aggregate count.
type CountBucket struct {
	ID    string `json:"_id"`
	Count int    `json:"count"`
}

type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthBucket struct {
	ID    YearMonth `json:"_id"`
	Count int       `json:"count"`
}

// IdeaAnalytics summarizes a user's ideas.
type IdeaAnalytics struct {
	Categories   []CountBucket `json:"categories"`
	Budgets      []CountBucket `json:"budgets"`
	MonthlyTrend []MonthBucket `json:"monthlyTrend"`
}

// TrendMonths is how far back the monthly trend looks.
const TrendMonths = 6

// IdeaAnalytics counts ideas by category (most frequent first), by budget
// and per calendar month over the last TrendMonths months.
func (s *Store) IdeaAnalytics(ctx context.Context, userID string) (*IdeaAnalytics, error) {
	categories, err := s.countBy(ctx,
		`SELECT category, COUNT(*) FROM ideas WHERE user_id = ? GROUP BY category ORDER BY COUNT(*) DESC, category ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("counting ideas by category: %w", err)
	}
	budgets, err := s.countBy(ctx,
		`SELECT budget, COUNT(*) FROM ideas WHERE user_id = ? GROUP BY budget ORDER BY budget ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("counting ideas by budget: %w", err)
	}

	since := formatTime(s.now().AddDate(0, -TrendMonths, 0))
	months, err := s.countBy(ctx,
		`SELECT substr(created_at, 1, 7), COUNT(*) FROM ideas WHERE user_id = ? AND created_at >= ?
		 GROUP BY substr(created_at, 1, 7) ORDER BY substr(created_at, 1, 7) ASC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("counting ideas by month: %w", err)
	}

	trend := make([]MonthBucket, 0, len(months))
	for _, m := range months {
		ym, err := parseYearMonth(m.ID)
		if err != nil {
			return nil, err
		}
		trend = append(trend, MonthBucket{ID: ym, Count: m.Count})
	}

	return &IdeaAnalytics{Categories: categories, Budgets: budgets, MonthlyTrend: trend}, nil
}

func (s *Store) countBy(ctx context.Context, query string, args ...any) ([]CountBucket, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []CountBucket{}
	for rows.Next() {
		var b CountBucket
		if err := rows.Scan(&b.ID, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// parseYearMonth reads "2024-05".
func parseYearMonth(s string) (YearMonth, error) {
	year, month, ok := strings.Cut(s, "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("malformed month key %q", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return YearMonth{}, fmt.Errorf("malformed month key %q: %w", s, err)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return YearMonth{}, fmt.Errorf("malformed month key %q: %w", s, err)
	}
	return YearMonth{Year: y, Month: m}, nil
}

type DashboardStats struct {
	TotalIdeas    int `json:"totalIdeas"`
	TotalPlans    int `json:"totalPlans"`
	SavedPlans    int `json:"savedPlans"`
	ArchivedPlans int `json:"archivedPlans"`
}

// Dashboard is the landing page summary of a user.
type Dashboard struct {
	Stats       DashboardStats        `json:"stats"`
	RecentIdeas []models.BusinessIdea `json:"recentIdeas"`
	RecentPlans []models.BusinessPlan `json:"recentPlans"`
}

// RecentLimit is how many recent ideas and plans the dashboard shows.
const RecentLimit = 5

func (s *Store) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	var d Dashboard
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM ideas WHERE user_id = ?`, userID).Scan(&d.Stats.TotalIdeas); err != nil {
		return nil, fmt.Errorf("counting ideas: %w", err)
	}

	byStatus, err := s.countBy(ctx, `SELECT status, COUNT(*) FROM plans WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("counting plans: %w", err)
	}
	for _, b := range byStatus {
		d.Stats.TotalPlans += b.Count
		switch models.PlanStatus(b.ID) {
		case models.PlanStatusSaved:
			d.Stats.SavedPlans = b.Count
		case models.PlanStatusArchived:
			d.Stats.ArchivedPlans = b.Count
		}
	}

	d.RecentIdeas, _, err = s.ListIdeas(ctx, models.IdeaQuery{UserID: userID, Page: 1, Limit: RecentLimit})
	if err != nil {
		return nil, err
	}
	d.RecentPlans, _, err = s.ListPlans(ctx, models.PlanQuery{UserID: userID, Page: 1, Limit: RecentLimit})
	if err != nil {
		return nil, err
	}
	return &d, nil
}
