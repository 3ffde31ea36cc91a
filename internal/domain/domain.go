package domain

type Role string

const (
	RoleClient  Role = "client"
	RoleStudent Role = "student"
)

type User struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Bio            string   `json:"bio,omitempty"`
	Skills         []string `json:"skills"`
	Avatar         string   `json:"avatar,omitempty"`
	CompletedTasks int      `json:"completed_tasks"`
	AverageRating  float64  `json:"average_rating"`
	TotalRatings   int      `json:"total_ratings"`
	WalletBalance  float64  `json:"wallet_balance"`
	TotalEarnings  float64  `json:"total_earnings"`
	TotalSpent     float64  `json:"total_spent"`
	OpeningBalance float64  `json:"opening_balance"`
	CreatedAt      string   `json:"created_at" format:"date-time"`
}

type Task struct {
	ID                  string   `json:"id"`
	CreatorID           string   `json:"creator_id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	RequiredSkills      []string `json:"required_skills"`
	Budget              float64  `json:"budget"`
	Deadline            string   `json:"deadline"`
	Urgent              bool     `json:"urgent"`
	Status              string   `json:"status" enum:"open,in_progress,submitted,revision_requested,completed"`
	SelectedApplicantID *string  `json:"selected_applicant_id,omitempty"`
	Rated               bool     `json:"rated"`
	AcceptedAt          *string  `json:"accepted_at,omitempty" format:"date-time"`
	SubmissionMessage   *string  `json:"submission_message,omitempty"`
	RevisionMessages    []string `json:"revision_messages,omitempty"`
	CreatedAt           string   `json:"created_at" format:"date-time"`
}

type Application struct {
	ID          string `json:"id"`
	TaskID      string `json:"task_id"`
	ApplicantID string `json:"applicant_id"`
	Message     string `json:"message,omitempty"`
	Status      string `json:"status" enum:"pending,selected,rejected"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Gig struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	StartingPrice float64  `json:"starting_price"`
	Tags          []string `json:"tags"`
	DeliveryDays  int      `json:"delivery_days"`
	CreatedAt     string   `json:"created_at" format:"date-time"`
}

type Order struct {
	ID                string   `json:"id"`
	GigID             string   `json:"gig_id"`
	ClientID          string   `json:"client_id"`
	StudentID         string   `json:"student_id"`
	Description       string   `json:"description"`
	Budget            float64  `json:"budget"`
	Deadline          string   `json:"deadline"`
	Status            string   `json:"status" enum:"pending,rejected,in_progress,submitted,revision_requested,completed"`
	AcceptedAt        *string  `json:"accepted_at,omitempty" format:"date-time"`
	SubmissionMessage *string  `json:"submission_message,omitempty"`
	RevisionMessages  []string `json:"revision_messages,omitempty"`
	Rated             bool     `json:"rated"`
	CreatedAt         string   `json:"created_at" format:"date-time"`
}

type Rating struct {
	ID         string  `json:"id"`
	RefID      string  `json:"ref_id"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	Score      float64 `json:"score"`
	Comment    string  `json:"comment,omitempty"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

type Transaction struct {
	ID         string  `json:"id"`
	FromUserID string  `json:"from_user_id"`
	ToUserID   string  `json:"to_user_id"`
	RefID      string  `json:"ref_id"`
	Amount     float64 `json:"amount"`
	Type       string  `json:"type" enum:"payment,earning"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
}

type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	Link      string `json:"link,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Session is the stored convenience identity the CLI acts as. The engine
// never reads it; every operation takes an explicit actor id.
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role" enum:"client,student"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
