// Package recommend ranks tasks, workers and gigs with weighted linear
// scores. Functions are pure and deterministic given their inputs and a
// clock value; nothing here touches storage.
package recommend

import (
	"sort"
	"time"

	"gigline/internal/domain"
)

const defaultDeliveryDays = 7

func overlap(required, have []string) int {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range required {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

// daysSince floors at one day so brand-new entries do not get an outsized
// recency bonus.
func daysSince(createdAt string, now time.Time) float64 {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return 1
	}
	days := now.Sub(t).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}

// TaskScore rates how attractive a task is for a worker: skill overlap,
// urgency, budget (capped) and a recency decay that floors at zero.
func TaskScore(t domain.Task, worker domain.User, now time.Time) float64 {
	score := float64(overlap(t.RequiredSkills, worker.Skills)) * 30
	if t.Urgent {
		score += 20
	}
	budget := t.Budget / 10
	if budget > 25 {
		budget = 25
	}
	score += budget
	decay := 25 - daysSince(t.CreatedAt, now)*2
	if decay > 0 {
		score += decay
	}
	return score
}

// WorkerScore rates how suited a worker is for a task.
func WorkerScore(t domain.Task, worker domain.User) float64 {
	score := float64(overlap(t.RequiredSkills, worker.Skills)) * 30
	score += worker.AverageRating * 8
	track := float64(worker.CompletedTasks) * 3
	if track > 20 {
		track = 20
	}
	return score + track
}

// GigScore rates a gig for a client: tag overlap with the client's skills,
// seller reputation, delivery speed and price.
func GigScore(g domain.Gig, client, seller domain.User) float64 {
	score := float64(overlap(g.Tags, client.Skills)) * 20
	score += seller.AverageRating * 10
	days := g.DeliveryDays
	if days == 0 {
		days = defaultDeliveryDays
	}
	if speed := 20 - float64(days)*2; speed > 0 {
		score += speed
	}
	if price := 30 - g.StartingPrice/10; price > 0 {
		score += price
	}
	return score
}

// Tasks returns up to limit open tasks for a worker, best first, skipping
// the worker's own posts. Ties keep collection order.
func Tasks(tasks []domain.Task, worker domain.User, now time.Time, limit int) []domain.Task {
	type scored struct {
		task  domain.Task
		score float64
	}
	var ranked []scored
	for _, t := range tasks {
		if t.Status != "open" || t.CreatorID == worker.ID {
			continue
		}
		ranked = append(ranked, scored{task: t, score: TaskScore(t, worker, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	res := make([]domain.Task, 0, len(ranked))
	for _, s := range ranked {
		res = append(res, s.task)
	}
	return truncateTasks(res, limit)
}

// Workers returns up to limit candidate workers for a task, best first.
func Workers(task domain.Task, users []domain.User, limit int) []domain.User {
	type scored struct {
		user  domain.User
		score float64
	}
	var ranked []scored
	for _, u := range users {
		if u.ID == task.CreatorID {
			continue
		}
		ranked = append(ranked, scored{user: u, score: WorkerScore(task, u)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	res := make([]domain.User, 0, len(ranked))
	for _, s := range ranked {
		res = append(res, s.user)
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

// Gigs returns up to limit gigs for a client, best first, skipping the
// client's own listings. Gigs whose seller cannot be resolved score zero.
func Gigs(gigs []domain.Gig, users []domain.User, client domain.User, limit int) []domain.Gig {
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	type scored struct {
		gig   domain.Gig
		score float64
	}
	var ranked []scored
	for _, g := range gigs {
		if g.UserID == client.ID {
			continue
		}
		var score float64
		if seller, ok := byID[g.UserID]; ok {
			score = GigScore(g, client, seller)
		}
		ranked = append(ranked, scored{gig: g, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	res := make([]domain.Gig, 0, len(ranked))
	for _, s := range ranked {
		res = append(res, s.gig)
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func truncateTasks(tasks []domain.Task, limit int) []domain.Task {
	if limit > 0 && len(tasks) > limit {
		return tasks[:limit]
	}
	return tasks
}
