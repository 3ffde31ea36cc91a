package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"gigline/internal/app"
	"gigline/internal/config"
	"gigline/internal/db"
	"gigline/internal/domain"
	"gigline/internal/engine"
	"gigline/internal/migrate"
	"gigline/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "gig",
	Short: "Gigline CLI",
	Long: `Gigline is a local-first gig marketplace.
- Tasks: one-off jobs posted by clients; workers apply, one gets selected,
  work flows open -> in_progress -> submitted (-> revision_requested)* -> completed.
- Gigs: standing service listings; clients purchase them via orders, which the
  seller first accepts or rejects before the same work loop runs.
- Completion settles the budget through the wallet ledger as a payment/earning
  pair, and the client may rate the worker once.
- The session (current user and role) is a stored convenience; switch identity
  at will with 'gig user switch'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("GIGLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "act as this user id (defaults to the stored session)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log engine activity")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(gigCmd())
	rootCmd.AddCommand(orderCmd())
	rootCmd.AddCommand(walletCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(configCmd())
}

// --- user ---

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users and the session"}
	cmd.AddCommand(userListCmd())
	cmd.AddCommand(userShowCmd())
	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userSwitchCmd())
	cmd.AddCommand(userRoleCmd())
	cmd.AddCommand(userProfileCmd())
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				users, err := e.Repo.ListUsers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				t := newTable("ID", "NAME", "SKILLS", "RATING", "DONE", "BALANCE")
				for _, u := range users {
					marker := u.ID
					if u.ID == session.UserID {
						marker += " *"
					}
					t.AppendRow(table.Row{marker, u.Name, strings.Join(u.Skills, ", "),
						fmt.Sprintf("%.1f (%d)", u.AverageRating, u.TotalRatings), u.CompletedTasks,
						fmt.Sprintf("$%.2f", u.WalletBalance)})
				}
				t.Render()
				return nil
			})
		},
	}
}

func userShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a user (defaults to the session user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				id := session.UserID
				if len(args) == 1 {
					id = args[0]
				}
				u, err := e.Repo.GetUser(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	}
	return cmd
}

func userAddCmd() *cobra.Command {
	var name, bio, avatar string
	var skills []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				u, err := e.CreateUser(ctx, engine.UserCreateOptions{Name: name, Bio: bio, Skills: skills, Avatar: avatar})
				if err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "skill (repeatable)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func userSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <user-id>",
		Short: "Switch the session to another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				u, err := e.SwitchUser(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("now acting as %s (%s)\n", u.Name, u.ID)
				return nil
			})
		},
	}
}

func userRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <client|student>",
		Short: "Switch the session role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				return e.SwitchRole(ctx, domain.Role(args[0]))
			})
		},
	}
}

func userProfileCmd() *cobra.Command {
	var name, bio, avatar string
	var skills []string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the acting user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				upd := engine.ProfileUpdate{}
				if cmd.Flags().Changed("name") {
					upd.Name = &name
				}
				if cmd.Flags().Changed("bio") {
					upd.Bio = &bio
				}
				if cmd.Flags().Changed("avatar") {
					upd.Avatar = &avatar
				}
				if cmd.Flags().Changed("skill") {
					upd.Skills = skills
				}
				u, err := e.UpdateProfile(ctx, actorID(session), upd)
				if err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "skill (repeatable, replaces the set)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	return cmd
}

// --- task ---

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Post and work tasks"}
	cmd.AddCommand(taskCreateCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskShowCmd())
	cmd.AddCommand(taskApplyCmd())
	cmd.AddCommand(taskApplicationsCmd())
	cmd.AddCommand(taskSelectCmd())
	cmd.AddCommand(taskSubmitCmd())
	cmd.AddCommand(taskReviseCmd())
	cmd.AddCommand(taskCompleteCmd())
	cmd.AddCommand(taskRateCmd())
	return cmd
}

func taskCreateCmd() *cobra.Command {
	var title, description, deadline string
	var skills []string
	var budget float64
	var urgent bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
					ActorID:        actorID(session),
					Title:          title,
					Description:    description,
					RequiredSkills: skills,
					Budget:         budget,
					Deadline:       deadline,
					Urgent:         urgent,
				})
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "required skill (repeatable)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (RFC3339 or free-form)")
	cmd.Flags().BoolVar(&urgent, "urgent", false, "urgent flag")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				tasks, err := e.Repo.ListTasks(ctx, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				t := newTable("ID", "TITLE", "STATUS", "BUDGET", "SKILLS", "URGENT")
				for _, tk := range tasks {
					t.AppendRow(table.Row{tk.ID, tk.Title, tk.Status, fmt.Sprintf("$%.0f", tk.Budget),
						strings.Join(tk.RequiredSkills, ", "), tk.Urgent})
				}
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				t, err := e.Repo.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
}

func taskApplyCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "apply <task-id>",
		Short: "Apply to an open task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				a, err := e.ApplyToTask(ctx, args[0], actorID(session), message)
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "pitch to the creator")
	return cmd
}

func taskApplicationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "applications <task-id>",
		Short: "List applications on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				apps, err := e.Repo.ListApplications(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(apps)
				}
				t := newTable("ID", "APPLICANT", "STATUS", "MESSAGE")
				for _, a := range apps {
					t.AppendRow(table.Row{a.ID, a.ApplicantID, a.Status, a.Message})
				}
				t.Render()
				return nil
			})
		},
	}
}

func taskSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <task-id> <applicant-id>",
		Short: "Select an applicant and start the work",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				t, err := e.SelectApplicant(ctx, args[0], args[1], actorID(session))
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
}

func taskSubmitCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "submit <task-id>",
		Short: "Submit work on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				t, err := e.SubmitTask(ctx, args[0], actorID(session), message)
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "submission note")
	return cmd
}

func taskReviseCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "revise <task-id>",
		Short: "Request a revision on submitted work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				t, err := e.RequestRevision(ctx, args[0], actorID(session), message)
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "what to change")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func taskCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Accept submitted work and pay the worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				t, err := e.CompleteTask(ctx, args[0], actorID(session))
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
}

func taskRateCmd() *cobra.Command {
	var score float64
	var comment string
	cmd := &cobra.Command{
		Use:   "rate <task-id>",
		Short: "Rate the worker on a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				r, err := e.RateTask(ctx, args[0], actorID(session), score, comment)
				if err != nil {
					return err
				}
				return printJSON(r)
			})
		},
	}
	cmd.Flags().Float64Var(&score, "score", 0, "score 1-5")
	cmd.Flags().StringVar(&comment, "comment", "", "review comment")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

// --- gig ---

func gigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "gig", Short: "Publish and browse gigs"}
	cmd.AddCommand(gigCreateCmd())
	cmd.AddCommand(gigListCmd())
	cmd.AddCommand(gigShowCmd())
	return cmd
}

func gigCreateCmd() *cobra.Command {
	var category, description string
	var tags []string
	var price float64
	var deliveryDays int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a gig",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				g, err := e.CreateGig(ctx, engine.GigCreateOptions{
					ActorID:       actorID(session),
					Category:      category,
					Description:   description,
					StartingPrice: price,
					Tags:          tags,
					DeliveryDays:  deliveryDays,
				})
				if err != nil {
					return err
				}
				return printJSON(g)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "gig category")
	cmd.Flags().StringVar(&description, "description", "", "what you offer")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().Float64Var(&price, "price", 0, "starting price")
	cmd.Flags().IntVar(&deliveryDays, "delivery-days", 0, "delivery window in days (default 7)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func gigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List gigs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				gigs, err := e.Repo.ListGigs(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(gigs)
				}
				t := newTable("ID", "SELLER", "CATEGORY", "PRICE", "DELIVERY", "TAGS")
				for _, g := range gigs {
					t.AppendRow(table.Row{g.ID, g.UserID, g.Category, fmt.Sprintf("$%.0f", g.StartingPrice),
						fmt.Sprintf("%dd", g.DeliveryDays), strings.Join(g.Tags, ", ")})
				}
				t.Render()
				return nil
			})
		},
	}
}

func gigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <gig-id>",
		Short: "Show a gig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				g, err := e.Repo.GetGig(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(g)
			})
		},
	}
}

// --- order ---

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "order", Short: "Purchase gigs and track orders"}
	cmd.AddCommand(orderPlaceCmd())
	cmd.AddCommand(orderListCmd())
	cmd.AddCommand(orderShowCmd())
	cmd.AddCommand(orderAcceptCmd())
	cmd.AddCommand(orderRejectCmd())
	cmd.AddCommand(orderSubmitCmd())
	cmd.AddCommand(orderReviseCmd())
	cmd.AddCommand(orderCompleteCmd())
	cmd.AddCommand(orderRateCmd())
	return cmd
}

func orderPlaceCmd() *cobra.Command {
	var description, deadline string
	var budget float64
	cmd := &cobra.Command{
		Use:   "place <gig-id>",
		Short: "Place an order against a gig",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				o, err := e.PlaceOrder(ctx, engine.OrderCreateOptions{
					ActorID:     actorID(session),
					GigID:       args[0],
					Description: description,
					Budget:      budget,
					Deadline:    deadline,
				})
				if err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what you need")
	cmd.Flags().Float64Var(&budget, "budget", 0, "agreed budget")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

func orderListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders you are involved in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				userID := actorID(session)
				if all {
					userID = ""
				}
				orders, err := e.Repo.ListOrders(ctx, userID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(orders)
				}
				t := newTable("ID", "GIG", "CLIENT", "SELLER", "STATUS", "BUDGET")
				for _, o := range orders {
					t.AppendRow(table.Row{o.ID, o.GigID, o.ClientID, o.StudentID, o.Status, fmt.Sprintf("$%.0f", o.Budget)})
				}
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every order")
	return cmd
}

func orderShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				o, err := e.Repo.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
}

func orderActionCmd(use, short string, fn func(context.Context, engine.Engine, string, string) (domain.Order, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <order-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				o, err := fn(ctx, e, args[0], actorID(session))
				if err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
}

func orderAcceptCmd() *cobra.Command {
	return orderActionCmd("accept", "Accept a pending order", func(ctx context.Context, e engine.Engine, id, actor string) (domain.Order, error) {
		return e.AcceptOrder(ctx, id, actor)
	})
}

func orderRejectCmd() *cobra.Command {
	return orderActionCmd("reject", "Decline a pending order", func(ctx context.Context, e engine.Engine, id, actor string) (domain.Order, error) {
		return e.RejectOrder(ctx, id, actor)
	})
}

func orderSubmitCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "submit <order-id>",
		Short: "Submit work on an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				o, err := e.SubmitOrder(ctx, args[0], actorID(session), message)
				if err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "submission note")
	return cmd
}

func orderReviseCmd() *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "revise <order-id>",
		Short: "Request a revision on a submitted order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				o, err := e.RequestOrderRevision(ctx, args[0], actorID(session), message)
				if err != nil {
					return err
				}
				return printJSON(o)
			})
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "what to change")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func orderCompleteCmd() *cobra.Command {
	return orderActionCmd("complete", "Accept submitted work and pay the seller", func(ctx context.Context, e engine.Engine, id, actor string) (domain.Order, error) {
		return e.CompleteOrder(ctx, id, actor)
	})
}

func orderRateCmd() *cobra.Command {
	var score float64
	var comment string
	cmd := &cobra.Command{
		Use:   "rate <order-id>",
		Short: "Rate the seller on a completed order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				r, err := e.RateOrder(ctx, args[0], actorID(session), score, comment)
				if err != nil {
					return err
				}
				return printJSON(r)
			})
		},
	}
	cmd.Flags().Float64Var(&score, "score", 0, "score 1-5")
	cmd.Flags().StringVar(&comment, "comment", "", "review comment")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

// --- wallet ---

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "wallet", Short: "Wallet and ledger"}
	cmd.AddCommand(walletShowCmd())
	cmd.AddCommand(walletVerifyCmd())
	return cmd
}

func walletShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the acting user's wallet and transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				s, err := e.Wallet(ctx, actorID(session))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Printf("%s  balance $%.2f  earned $%.2f  spent $%.2f\n",
					s.User.Name, s.User.WalletBalance, s.User.TotalEarnings, s.User.TotalSpent)
				t := newTable("DIRECTION", "AMOUNT", "COUNTERPARTY", "REF", "AT")
				for _, x := range s.Incoming {
					t.AppendRow(table.Row{"in", fmt.Sprintf("$%.2f", x.Amount), x.FromUserID, x.RefID, x.CreatedAt})
				}
				for _, x := range s.Outgoing {
					t.AppendRow(table.Row{"out", fmt.Sprintf("$%.2f", x.Amount), x.ToUserID, x.RefID, x.CreatedAt})
				}
				t.Render()
				return nil
			})
		},
	}
}

func walletVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored balances against the transaction log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				mismatches, err := e.VerifyBalances(ctx)
				if err != nil {
					return err
				}
				if len(mismatches) == 0 {
					fmt.Println("ok: all balances match the ledger")
					return nil
				}
				return printJSON(mismatches)
			})
		},
	}
}

// --- notifications ---

func notifyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "notify", Short: "Notifications"}
	cmd.AddCommand(notifyListCmd())
	cmd.AddCommand(notifyReadCmd())
	return cmd
}

func notifyListCmd() *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the acting user's notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				items, err := e.Notifications(ctx, actorID(session), unread)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				t := newTable("ID", "READ", "MESSAGE", "LINK", "AT")
				for _, n := range items {
					t.AppendRow(table.Row{n.ID, n.Read, n.Message, n.Link, n.CreatedAt})
				}
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread")
	return cmd
}

func notifyReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				return e.MarkNotificationRead(ctx, args[0])
			})
		},
	}
}

// --- recommend ---

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "recommend", Short: "Ranked suggestions"}
	cmd.AddCommand(recommendTasksCmd())
	cmd.AddCommand(recommendWorkersCmd())
	cmd.AddCommand(recommendGigsCmd())
	return cmd
}

func recommendTasksCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Open tasks matching the acting user's skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				tasks, err := e.RecommendedTasks(ctx, actorID(session), limit)
				if err != nil {
					return err
				}
				return printJSON(tasks)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default from config)")
	return cmd
}

func recommendWorkersCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "workers <task-id>",
		Short: "Candidate workers for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				users, err := e.RecommendedWorkers(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return printJSON(users)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default from config)")
	return cmd
}

func recommendGigsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "gigs",
		Short: "Gigs for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, session domain.Session) error {
				gigs, err := e.RecommendedGigs(ctx, actorID(session), limit)
				if err != nil {
					return err
				}
				return printJSON(gigs)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default from config)")
	return cmd
}

// --- log / catalog / config ---

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Audit log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, _ domain.Session) error {
				items, err := e.Repo.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSON(items)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Show the skill and category catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg.Catalog)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Workspace config"}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default gigline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			return os.WriteFile(path, []byte(config.GenerateDefault()), 0o644)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine, domain.Session) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	session, err := app.ResolveSession(ctx, r, cfg)
	if err != nil {
		return err
	}
	log := zap.NewNop()
	if viper.GetBool("verbose") {
		if dev, err := zap.NewDevelopment(); err == nil {
			log = dev
			defer log.Sync()
		}
	}
	e := engine.New(conn, cfg, log)
	return fn(ctx, e, session)
}

// actorID resolves who the command acts as: the --actor-id override when
// set, otherwise the stored session user.
func actorID(session domain.Session) string {
	if id := viper.GetString("actor-id"); id != "" {
		return id
	}
	return session.UserID
}

func newTable(headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	row := make(table.Row, 0, len(headers))
	for _, h := range headers {
		row = append(row, h)
	}
	t.AppendHeader(row)
	return t
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
