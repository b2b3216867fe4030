package domain

import "time"

// Client is the application view of a client row
type Client struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	FullName        string    `json:"fullName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	PassportNumber  string    `json:"passportNumber,omitempty"`
	Nationality     string    `json:"nationality,omitempty"`
	CountryOfOrigin string    `json:"countryOfOrigin,omitempty"`
	CityOfResidence string    `json:"cityOfResidence,omitempty"`
	Status          string    `json:"status"`
	ExpedientNumber int       `json:"expedientNumber"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Service is a catalog template with its ordered milestone templates
type Service struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	Description           string             `json:"description,omitempty"`
	Category              string             `json:"category"`
	BasePrice             float64            `json:"basePrice"`
	EstimatedCost         float64            `json:"estimatedCost"`
	Complexity            string             `json:"complexity"`
	RequiredDocuments     []string           `json:"requiredDocuments"`
	EstimatedDurationDays *int               `json:"estimatedDurationDays,omitempty"`
	IsActive              bool               `json:"isActive"`
	Milestones            []ServiceMilestone `json:"milestones"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// ServiceMilestone is one step template
type ServiceMilestone struct {
	ID                   string   `json:"id"`
	ServiceID            string   `json:"serviceId"`
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	OrderNumber          int      `json:"orderNumber"`
	IsPaymentRequired    bool     `json:"isPaymentRequired"`
	DefaultPaymentAmount *float64 `json:"defaultPaymentAmount,omitempty"`
	PaymentPercentage    *float64 `json:"paymentPercentage,omitempty"`
}

// Case is the read model of a client_services row
type Case struct {
	ID                 string            `json:"id"`
	ClientID           string            `json:"clientId"`
	ClientName         string            `json:"clientName,omitempty"`
	ServiceID          string            `json:"serviceId"`
	ServiceName        string            `json:"serviceName,omitempty"`
	AssignedLawyerID   *string           `json:"assignedLawyerId,omitempty"`
	AssignedLawyerName string            `json:"assignedLawyerName,omitempty"`
	TotalPrice         float64           `json:"totalPrice"`
	InitialPayment     float64           `json:"initialPayment"`
	AmountOwed         float64           `json:"amountOwed"`
	PricePaid          float64           `json:"pricePaid"`
	PriceRemaining     float64           `json:"priceRemaining"`
	Status             CaseStatus        `json:"status"`
	StartDate          time.Time         `json:"startDate"`
	EndDate            *time.Time        `json:"endDate,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	Milestones         []CaseMilestone   `json:"milestones"`
	Progress           MilestoneProgress `json:"progress"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// CaseMilestone is the per-case tracked state of a milestone
type CaseMilestone struct {
	ID                 string     `json:"id"`
	CaseID             string     `json:"caseId"`
	ServiceMilestoneID *string    `json:"serviceMilestoneId,omitempty"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	OrderNumber        int        `json:"orderNumber"`
	IsCompleted        bool       `json:"isCompleted"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	IsPaymentRequired  bool       `json:"isPaymentRequired"`
	PaymentAmount      float64    `json:"paymentAmount"`
	IsPaymentCollected bool       `json:"isPaymentCollected"`
	PaymentCollectedAt *time.Time `json:"paymentCollectedAt,omitempty"`
	DueDate            *time.Time `json:"dueDate,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

// Notification is a per-user message
type Notification struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	RelatedID   *string    `json:"relatedId,omitempty"`
	RelatedType *string    `json:"relatedType,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// User is a staff member; the password hash never leaves the service layer
type User struct {
	ID                   string     `json:"id"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	FullName             string     `json:"fullName"`
	Email                string     `json:"email"`
	Role                 string     `json:"role"`
	IsActive             bool       `json:"isActive"`
	CommissionPercentage *float64   `json:"commissionPercentage,omitempty"`
	HourlyRate           *float64   `json:"hourlyRate,omitempty"`
	LastLoginAt          *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// MonthlySummary is the cached accounting rollup for a month
type MonthlySummary struct {
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	TotalIncome     float64   `json:"totalIncome"`
	LawyerPayments  float64   `json:"lawyerPayments"`
	GeneralExpenses float64   `json:"generalExpenses"`
	TotalExpenses   float64   `json:"totalExpenses"`
	NetProfit       float64   `json:"netProfit"`
	ProfitMargin    float64   `json:"profitMargin"`
	CompletedCases  int       `json:"completedCases"`
	NewCases        int       `json:"newCases"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// LawyerPayment is money paid to a lawyer for a period
type LawyerPayment struct {
	ID          string    `json:"id"`
	LawyerID    string    `json:"lawyerId"`
	PaymentDate time.Time `json:"paymentDate"`
	PeriodYear  int       `json:"periodYear"`
	PeriodMonth int       `json:"periodMonth"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	Notes       string    `json:"notes,omitempty"`
}

// GeneralExpense is an operating cost
type GeneralExpense struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	ExpenseDate time.Time `json:"expenseDate"`
}

// WorkHours is a lawyer time entry
type WorkHours struct {
	ID          string    `json:"id"`
	LawyerID    string    `json:"lawyerId"`
	CaseID      *string   `json:"caseId,omitempty"`
	Date        time.Time `json:"date"`
	Hours       float64   `json:"hours"`
	IsBillable  bool      `json:"isBillable"`
	Description string    `json:"description,omitempty"`
}

// ServiceIncome groups income by catalog service
type ServiceIncome struct {
	ServiceName string  `json:"serviceName"`
	CaseCount   int     `json:"caseCount"`
	TotalIncome float64 `json:"totalIncome"`
}

// LawyerPerformance groups cases by lawyer. TotalValue is contracted (totalPrice),
// TotalCollected is money received (pricePaid).
type LawyerPerformance struct {
	LawyerName       string  `json:"lawyerName"`
	CaseCount        int     `json:"caseCount"`
	TotalValue       float64 `json:"totalValue"`
	TotalCollected   float64 `json:"totalCollected"`
	AverageCaseValue float64 `json:"averageCaseValue"`
}

// LawyerPayout is a computed (not persisted) payment proposal
type LawyerPayout struct {
	LawyerID string  `json:"lawyerId"`
	Period   string  `json:"period"`
	Method   string  `json:"method"`
	Basis    float64 `json:"basis"` // paid amount for commission, billable hours for hourly
	Rate     float64 `json:"rate"`
	Amount   float64 `json:"amount"`
}
