package app

import (
	"context"
	"fmt"
	"time"

	"gigline/internal/domain"
	"gigline/internal/repo"
)

// SeedDemo loads the demo marketplace: four users with rating and wallet
// history, four open tasks and three gigs. Wallet figures satisfy
// balance == earnings - spent, with the opening balance anchoring the
// ledger fold at the seeded amount.
func SeedDemo(ctx context.Context, r repo.Repo) error {
	now := time.Now().UTC()
	ts := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format(time.RFC3339)
	}

	users := []domain.User{
		{
			ID: "user-1", Name: "Alex Rivera",
			Bio:    "Full-stack developer with 5 years of experience in React and Node.js.",
			Skills: []string{"JavaScript", "TypeScript", "React", "Node.js"},
			CompletedTasks: 12, AverageRating: 4.7, TotalRatings: 10,
			WalletBalance: 2500, TotalEarnings: 4200, TotalSpent: 1700, OpeningBalance: 2500,
			CreatedAt: ts(30),
		},
		{
			ID: "user-2", Name: "Sam Chen",
			Bio:    "Creative designer specializing in UI/UX and brand identity.",
			Skills: []string{"Design", "UI/UX", "Illustration", "Photography"},
			CompletedTasks: 8, AverageRating: 4.9, TotalRatings: 7,
			WalletBalance: 1800, TotalEarnings: 3100, TotalSpent: 1300, OpeningBalance: 1800,
			CreatedAt: ts(28),
		},
		{
			ID: "user-3", Name: "Jordan Lee",
			Bio:    "Content writer and marketing strategist.",
			Skills: []string{"Writing", "Marketing", "SEO", "Social Media"},
			CompletedTasks: 15, AverageRating: 4.5, TotalRatings: 13,
			WalletBalance: 3200, TotalEarnings: 5500, TotalSpent: 2300, OpeningBalance: 3200,
			CreatedAt: ts(26),
		},
		{
			ID: "user-4", Name: "Taylor Kim",
			Bio:    "Data analyst and Python developer.",
			Skills: []string{"Python", "Data Entry", "Accounting", "DevOps"},
			CompletedTasks: 6, AverageRating: 4.3, TotalRatings: 5,
			WalletBalance: 900, TotalEarnings: 1400, TotalSpent: 500, OpeningBalance: 900,
			CreatedAt: ts(24),
		},
	}

	tasks := []domain.Task{
		{
			ID: "task-1", CreatorID: "user-2", Title: "Build a React Landing Page",
			Description:    "Need a responsive landing page with modern design, animations, and mobile support.",
			RequiredSkills: []string{"React", "TypeScript", "UI/UX"},
			Budget:         300, Deadline: now.AddDate(0, 0, 21).Format(time.RFC3339),
			Urgent: true, Status: "open", CreatedAt: ts(4),
		},
		{
			ID: "task-2", CreatorID: "user-3", Title: "SEO Audit for E-commerce Site",
			Description:    "Perform a comprehensive SEO audit and provide actionable recommendations.",
			RequiredSkills: []string{"SEO", "Marketing", "Writing"},
			Budget:         150, Deadline: now.AddDate(0, 0, 9).Format(time.RFC3339),
			Status: "open", CreatedAt: ts(3),
		},
		{
			ID: "task-3", CreatorID: "user-1", Title: "Design App Icon Set",
			Description:    "Create a set of 20 custom icons for a mobile application.",
			RequiredSkills: []string{"Design", "Illustration"},
			Budget:         200, Deadline: now.AddDate(0, 0, 18).Format(time.RFC3339),
			Status: "open", CreatedAt: ts(2),
		},
		{
			ID: "task-4", CreatorID: "user-4", Title: "Write API Documentation",
			Description:    "Document REST API endpoints with examples and error codes.",
			RequiredSkills: []string{"Writing", "JavaScript", "Node.js"},
			Budget:         180, Deadline: now.AddDate(0, 0, 13).Format(time.RFC3339),
			Urgent: true, Status: "open", CreatedAt: ts(2),
		},
	}

	gigs := []domain.Gig{
		{
			ID: "gig-1", UserID: "user-1", Category: "Web Development",
			Description:   "I will build a responsive React website with modern UI.",
			StartingPrice: 200, Tags: []string{"React", "TypeScript", "Responsive"}, DeliveryDays: 7,
			CreatedAt: ts(5),
		},
		{
			ID: "gig-2", UserID: "user-2", Category: "Design & Creative",
			Description:   "I will create stunning UI/UX designs for your app or website.",
			StartingPrice: 150, Tags: []string{"UI/UX", "Figma", "Mobile Design"}, DeliveryDays: 5,
			CreatedAt: ts(4),
		},
		{
			ID: "gig-3", UserID: "user-3", Category: "Writing & Translation",
			Description:   "I will write SEO-optimized blog posts and website copy.",
			StartingPrice: 50, Tags: []string{"SEO", "Blog", "Copywriting"}, DeliveryDays: 3,
			CreatedAt: ts(3),
		},
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, u := range users {
		if err := r.InsertUserTx(ctx, tx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	for _, t := range tasks {
		if err := r.InsertTaskTx(ctx, tx, t); err != nil {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}
	}
	for _, g := range gigs {
		if err := r.InsertGigTx(ctx, tx, g); err != nil {
			return fmt.Errorf("seed gig %s: %w", g.ID, err)
		}
	}
	return tx.Commit()
}
