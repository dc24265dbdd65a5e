package transport

// TaskRequest is the body of task create and update calls.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	TTL int `json:"ttl_seconds"`
}

// ProfileUpdateRequest leaves absent fields untouched.
type ProfileUpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Image *string `json:"image"`
}
