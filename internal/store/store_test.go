// internal/store/store_test.go
package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bizpilot/internal/common/database"
	"bizpilot/internal/models"
	"bizpilot/internal/planning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a migrated in-memory SQLite store whose clock
// advances one second per call.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, database.DriverSQLite)
	clock := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func createUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Ada", Email: email, PasswordHash: "hash", Role: models.RoleUser, IsActive: true, Preferences: models.DefaultPreferences()}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func createIdea(t *testing.T, s *Store, userID string, category models.Category) *models.BusinessIdea {
	t.Helper()
	idea := &models.BusinessIdea{
		UserID:      userID,
		Title:       "Sourdough Corner",
		Description: "A neighbourhood bakery",
		Category:    category,
		Budget:      models.BudgetMedium,
	}
	require.NoError(t, s.CreateIdea(context.Background(), idea))
	return idea
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := createUser(t, s, "  Ada@Example.COM ")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.False(t, u.Stats.JoinedAt.IsZero())

	got, err := s.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, "auto", got.Preferences.Theme)

	err = s.CreateUser(ctx, &models.User{Name: "Other", Email: "ada@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.MutateUser(ctx, u.ID, func(u *models.User) error {
		u.Stats.TotalPlansSaved++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Stats.TotalPlansSaved)

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stats.TotalPlansSaved)

	_, err = s.MutateUser(ctx, u.ID, func(u *models.User) error { return fmt.Errorf("nope") })
	assert.EqualError(t, err, "nope")
}

func TestIdeas_ListFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := createUser(t, s, "a@example.com")
	other := createUser(t, s, "b@example.com")

	var ids []string
	for i := 0; i < 5; i++ {
		cat := models.CategoryFood
		if i%2 == 1 {
			cat = models.CategoryRetail
		}
		ids = append(ids, createIdea(t, s, owner.ID, cat).ID)
	}
	createIdea(t, s, other.ID, models.CategoryFood)

	ideas, page, err := s.ListIdeas(ctx, models.IdeaQuery{UserID: owner.ID, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 2, Total: 5, Pages: 3}, page)
	require.Len(t, ideas, 2)
	assert.Equal(t, ids[4], ideas[0].ID, "newest first")
	assert.Equal(t, ids[3], ideas[1].ID)

	ideas, page, err = s.ListIdeas(ctx, models.IdeaQuery{UserID: owner.ID, Category: models.CategoryRetail})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, models.DefaultPageSize, page.Limit)
	for _, idea := range ideas {
		assert.Equal(t, models.CategoryRetail, idea.Category)
	}

	_, page, err = s.ListIdeas(ctx, models.IdeaQuery{UserID: owner.ID, Status: models.IdeaStatusCompleted})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestIdeas_OwnershipAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := createUser(t, s, "a@example.com")
	idea := createIdea(t, s, owner.ID, models.CategoryFood)
	assert.Equal(t, models.IdeaStatusDraft, idea.Status)

	_, err := s.GetIdea(ctx, "someone-else", idea.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	idea.Status = models.IdeaStatusCompleted
	idea.Metadata.AIModel = planning.TemplateModel
	require.NoError(t, s.UpdateIdea(ctx, idea))

	got, err := s.GetIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusCompleted, got.Status)
	assert.Equal(t, "template", got.Metadata.AIModel)

	foreign := *idea
	foreign.UserID = "someone-else"
	assert.ErrorIs(t, s.UpdateIdea(ctx, &foreign), ErrNotFound)
}

func TestPlans_GenerateListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := createUser(t, s, "a@example.com")
	idea := createIdea(t, s, owner.ID, models.CategoryFood)

	gen := planning.NewGenerator(nil, s, planning.DefaultGeneratorConfig(), nil, nil)
	res, err := gen.Generate(ctx, idea.Snapshot())
	require.NoError(t, err)
	require.Len(t, res.Plans, 3)

	plans, err := s.PlansForIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	for i, p := range plans {
		assert.Equal(t, models.PlanTypes[i], p.Type)
		assert.Equal(t, res.Plans[i].ID, p.ID)
		assert.Len(t, p.Months, models.MonthsPerPlan)
	}

	got, err := s.GetIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.PlanCount)

	plan := plans[1]
	require.True(t, plan.SetTaskCompleted(1, "Operations and logistics", true))
	plan.Status = models.PlanStatusSaved
	require.NoError(t, s.UpdatePlan(ctx, &plan))

	reloaded, err := s.GetPlan(ctx, owner.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusSaved, reloaded.Status)
	assert.Equal(t, 4, reloaded.CompletionPercent, "1 of 24 tasks")
	assert.Equal(t, reloaded.TaskCostTotal(), reloaded.TotalBudgetEstimate)

	saved, page, err := s.ListPlans(ctx, models.PlanQuery{UserID: owner.ID, Status: models.PlanStatusSaved})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, plan.ID, saved[0].ID)

	lean, _, err := s.ListPlans(ctx, models.PlanQuery{UserID: owner.ID, Type: models.PlanTypeLean})
	require.NoError(t, err)
	require.Len(t, lean, 1)

	_, err = s.GetPlan(ctx, "intruder", plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := s.DeleteIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{plans[0].ID, plans[1].ID, plans[2].ID}, deleted)

	_, err = s.GetPlan(ctx, owner.ID, plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteIdea(ctx, owner.ID, idea.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePlans_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := createUser(t, s, "a@example.com")
	idea := createIdea(t, s, owner.ID, models.CategoryFood)

	batch := func() []*models.BusinessPlan {
		plans := make([]*models.BusinessPlan, len(models.PlanTypes))
		for i, pt := range models.PlanTypes {
			plans[i] = &models.BusinessPlan{UserID: owner.ID, IdeaID: idea.ID, Type: pt}
		}
		return plans
	}

	// the second insert violates the primary key
	broken := batch()
	broken[0].ID, broken[1].ID = "dup", "dup"
	err := s.CreatePlans(ctx, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggressive")

	left, err := s.PlansForIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	require.NoError(t, s.CreatePlans(ctx, batch()))
	plans, err := s.PlansForIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Len(t, plans, 3)

	removed, err := s.DeletePlansForIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 3)
	got, err := s.GetIdea(ctx, owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PlanCount)
}

func TestAnalyticsAndDashboard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := createUser(t, s, "a@example.com")

	createIdea(t, s, owner.ID, models.CategoryFood)
	createIdea(t, s, owner.ID, models.CategoryFood)
	idea := createIdea(t, s, owner.ID, models.CategoryRetail)

	gen := planning.NewGenerator(nil, s, planning.DefaultGeneratorConfig(), nil, nil)
	res, err := gen.Generate(ctx, idea.Snapshot())
	require.NoError(t, err)
	saved := res.Plans[0]
	saved.Status = models.PlanStatusSaved
	require.NoError(t, s.UpdatePlan(ctx, &saved))

	a, err := s.IdeaAnalytics(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []CountBucket{{ID: "food", Count: 2}, {ID: "retail", Count: 1}}, a.Categories)
	assert.Equal(t, []CountBucket{{ID: "medium", Count: 3}}, a.Budgets)
	assert.Equal(t, []MonthBucket{{ID: YearMonth{Year: 2024, Month: 6}, Count: 3}}, a.MonthlyTrend)

	d, err := s.Dashboard(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{TotalIdeas: 3, TotalPlans: 3, SavedPlans: 1}, d.Stats)
	assert.Len(t, d.RecentIdeas, 3)
	assert.Len(t, d.RecentPlans, 3)
	assert.Equal(t, idea.ID, d.RecentIdeas[0].ID)
}
