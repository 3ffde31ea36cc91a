package recommend_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gigline/internal/domain"
	"gigline/internal/recommend"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ago(days int) string {
	return now.AddDate(0, 0, -days).Format(time.RFC3339)
}

func TestTaskScore(t *testing.T) {
	worker := domain.User{ID: "w", Skills: []string{"React"}}
	task := domain.Task{
		CreatorID:      "c",
		RequiredSkills: []string{"React", "TypeScript"},
		Budget:         300,
		Urgent:         true,
		CreatedAt:      ago(2),
	}
	// overlap 1*30 + urgent 20 + budget cap 25 + recency 25-2*2
	require.InDelta(t, 96, recommend.TaskScore(task, worker, now), 1e-9)

	task.Urgent = false
	require.InDelta(t, 76, recommend.TaskScore(task, worker, now), 1e-9)

	// budget bonus caps at 25
	task.Budget = 10000
	require.InDelta(t, 76, recommend.TaskScore(task, worker, now), 1e-9)

	// recency decay bottoms out at zero
	task.CreatedAt = ago(20)
	require.InDelta(t, 55, recommend.TaskScore(task, worker, now), 1e-9)
}

func TestTaskScoreRecencyFloor(t *testing.T) {
	worker := domain.User{ID: "w"}
	fresh := domain.Task{CreatorID: "c", Budget: 10, CreatedAt: now.Format(time.RFC3339)}
	dayOld := domain.Task{CreatorID: "c", Budget: 10, CreatedAt: ago(1)}
	// anything younger than a day scores like a day-old task
	require.InDelta(t, recommend.TaskScore(dayOld, worker, now), recommend.TaskScore(fresh, worker, now), 1e-9)

	// beyond the floor, older tasks score strictly less until the decay runs out
	prev := recommend.TaskScore(dayOld, worker, now)
	for days := 2; days <= 12; days++ {
		s := recommend.TaskScore(domain.Task{CreatorID: "c", Budget: 10, CreatedAt: ago(days)}, worker, now)
		require.Less(t, s, prev)
		prev = s
	}
}

func TestWorkerScore(t *testing.T) {
	task := domain.Task{CreatorID: "c", RequiredSkills: []string{"Design", "Illustration"}}
	worker := domain.User{
		Skills:         []string{"Design", "Illustration", "Photography"},
		AverageRating:  4.5,
		CompletedTasks: 10,
	}
	// overlap 2*30 + rating 4.5*8 + track record capped at 20
	require.InDelta(t, 116, recommend.WorkerScore(task, worker), 1e-9)

	worker.CompletedTasks = 3
	require.InDelta(t, 105, recommend.WorkerScore(task, worker), 1e-9)
}

func TestGigScore(t *testing.T) {
	client := domain.User{ID: "c", Skills: []string{"React", "SEO"}}
	seller := domain.User{ID: "s", AverageRating: 4.0}
	gig := domain.Gig{
		UserID:        "s",
		Tags:          []string{"React", "Responsive"},
		StartingPrice: 50,
		DeliveryDays:  5,
	}
	// overlap 1*20 + rating 4.0*10 + delivery 20-5*2 + price 30-50/10
	require.InDelta(t, 95, recommend.GigScore(gig, client, seller), 1e-9)

	// zero delivery days falls back to the seven-day default
	gig.DeliveryDays = 0
	require.InDelta(t, 91, recommend.GigScore(gig, client, seller), 1e-9)

	// an expensive slow gig keeps only overlap and reputation
	gig.DeliveryDays = 15
	gig.StartingPrice = 400
	require.InDelta(t, 60, recommend.GigScore(gig, client, seller), 1e-9)
}

func TestTasksRankingAndFilters(t *testing.T) {
	worker := domain.User{ID: "w", Skills: []string{"React"}}
	tasks := []domain.Task{
		{ID: "own", CreatorID: "w", Status: "open", RequiredSkills: []string{"React"}, Budget: 100, CreatedAt: ago(1)},
		{ID: "closed", CreatorID: "c", Status: "completed", RequiredSkills: []string{"React"}, Budget: 100, CreatedAt: ago(1)},
		{ID: "weak", CreatorID: "c", Status: "open", RequiredSkills: []string{"Python"}, Budget: 50, CreatedAt: ago(1)},
		{ID: "strong", CreatorID: "c", Status: "open", RequiredSkills: []string{"React"}, Budget: 100, CreatedAt: ago(1)},
	}
	got := recommend.Tasks(tasks, worker, now, 10)
	require.Len(t, got, 2)
	require.Equal(t, "strong", got[0].ID)
	require.Equal(t, "weak", got[1].ID)
}

func TestTasksTruncatesToLimit(t *testing.T) {
	worker := domain.User{ID: "w"}
	var tasks []domain.Task
	for i := 0; i < 8; i++ {
		tasks = append(tasks, domain.Task{
			ID: fmt.Sprintf("t%d", i), CreatorID: "c", Status: "open",
			Budget: 10, CreatedAt: ago(1),
		})
	}
	got := recommend.Tasks(tasks, worker, now, 3)
	require.Len(t, got, 3)
	// equal scores keep collection order
	require.Equal(t, "t0", got[0].ID)
	require.Equal(t, "t1", got[1].ID)
	require.Equal(t, "t2", got[2].ID)
}

func TestWorkersExcludesCreator(t *testing.T) {
	task := domain.Task{ID: "t", CreatorID: "c", RequiredSkills: []string{"SEO"}}
	users := []domain.User{
		{ID: "c", Skills: []string{"SEO"}},
		{ID: "novice"},
		{ID: "expert", Skills: []string{"SEO"}, AverageRating: 5, CompletedTasks: 20},
	}
	got := recommend.Workers(task, users, 10)
	require.Len(t, got, 2)
	require.Equal(t, "expert", got[0].ID)
	require.Equal(t, "novice", got[1].ID)
}

func TestGigsExcludesOwnListings(t *testing.T) {
	client := domain.User{ID: "c", Skills: []string{"React"}}
	users := []domain.User{client, {ID: "s1", AverageRating: 3}, {ID: "s2", AverageRating: 5}}
	gigs := []domain.Gig{
		{ID: "mine", UserID: "c", Tags: []string{"React"}},
		{ID: "ok", UserID: "s1", Tags: []string{"React"}, StartingPrice: 100, DeliveryDays: 7},
		{ID: "best", UserID: "s2", Tags: []string{"React"}, StartingPrice: 100, DeliveryDays: 7},
	}
	got := recommend.Gigs(gigs, users, client, 10)
	require.Len(t, got, 2)
	require.Equal(t, "best", got[0].ID)
	require.Equal(t, "ok", got[1].ID)
}
