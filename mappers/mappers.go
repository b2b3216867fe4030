// Package mappers translates storage rows (package models) into application
// records (package domain) and back. Every entity has exactly one function per
// direction and every field is handled explicitly.
package mappers

import (
	"immigration_crm_go/domain"
	"immigration_crm_go/models"
	"sort"
)

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ClientToRecord maps a client row
func ClientToRecord(c models.Client) domain.Client {
	return domain.Client{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		FullName:        c.FullName(),
		Email:           c.Email,
		Phone:           str(c.Phone),
		PassportNumber:  str(c.PassportNumber),
		Nationality:     str(c.Nationality),
		CountryOfOrigin: str(c.CountryOfOrigin),
		CityOfResidence: str(c.CityOfResidence),
		Status:          c.Status,
		ExpedientNumber: c.ExpedientNumber,
		Notes:           str(c.Notes),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// ClientToRow maps a client record. FullName is derived and dropped.
func ClientToRow(c domain.Client) models.Client {
	return models.Client{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		Phone:           ptr(c.Phone),
		PassportNumber:  ptr(c.PassportNumber),
		Nationality:     ptr(c.Nationality),
		CountryOfOrigin: ptr(c.CountryOfOrigin),
		CityOfResidence: ptr(c.CityOfResidence),
		Status:          c.Status,
		ExpedientNumber: c.ExpedientNumber,
		Notes:           ptr(c.Notes),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// ServiceMilestoneToRecord maps a milestone template row
func ServiceMilestoneToRecord(m models.ServiceMilestone) domain.ServiceMilestone {
	return domain.ServiceMilestone{
		ID:                   m.ID,
		ServiceID:            m.ServiceID,
		Name:                 m.Name,
		Description:          str(m.Description),
		OrderNumber:          m.OrderNumber,
		IsPaymentRequired:    m.IsPaymentRequired,
		DefaultPaymentAmount: m.DefaultPaymentAmount,
		PaymentPercentage:    m.PaymentPercentage,
	}
}

// ServiceMilestoneToRow maps a milestone template record
func ServiceMilestoneToRow(m domain.ServiceMilestone) models.ServiceMilestone {
	return models.ServiceMilestone{
		ID:                   m.ID,
		ServiceID:            m.ServiceID,
		Name:                 m.Name,
		Description:          ptr(m.Description),
		OrderNumber:          m.OrderNumber,
		IsPaymentRequired:    m.IsPaymentRequired,
		DefaultPaymentAmount: m.DefaultPaymentAmount,
		PaymentPercentage:    m.PaymentPercentage,
	}
}

// ServiceToRecord maps a service row; templates come out ordered by orderNumber
func ServiceToRecord(s models.Service) domain.Service {
	docs := []string(s.RequiredDocuments)
	if docs == nil {
		docs = []string{}
	}
	templates := make([]models.ServiceMilestone, len(s.Milestones))
	copy(templates, s.Milestones)
	sort.SliceStable(templates, func(i, j int) bool { return templates[i].OrderNumber < templates[j].OrderNumber })

	milestones := make([]domain.ServiceMilestone, 0, len(templates))
	for _, m := range templates {
		milestones = append(milestones, ServiceMilestoneToRecord(m))
	}

	return domain.Service{
		ID:                    s.ID,
		Name:                  s.Name,
		Description:           str(s.Description),
		Category:              s.Category,
		BasePrice:             s.BasePrice,
		EstimatedCost:         s.EstimatedCost,
		Complexity:            s.Complexity,
		RequiredDocuments:     docs,
		EstimatedDurationDays: s.EstimatedDurationDays,
		IsActive:              s.IsActive,
		Milestones:            milestones,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

// ServiceToRow maps a service record including its templates
func ServiceToRow(s domain.Service) models.Service {
	var milestones []models.ServiceMilestone
	for _, m := range s.Milestones {
		milestones = append(milestones, ServiceMilestoneToRow(m))
	}
	return models.Service{
		ID:                    s.ID,
		Name:                  s.Name,
		Description:           ptr(s.Description),
		Category:              s.Category,
		BasePrice:             s.BasePrice,
		EstimatedCost:         s.EstimatedCost,
		Complexity:            s.Complexity,
		RequiredDocuments:     s.RequiredDocuments,
		EstimatedDurationDays: s.EstimatedDurationDays,
		IsActive:              s.IsActive,
		Milestones:            milestones,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

// CaseMilestoneToRecord maps a case milestone row
func CaseMilestoneToRecord(m models.CaseMilestone) domain.CaseMilestone {
	return domain.CaseMilestone{
		ID:                 m.ID,
		CaseID:             m.CaseID,
		ServiceMilestoneID: m.ServiceMilestoneID,
		Name:               m.Name,
		Description:        str(m.Description),
		OrderNumber:        m.OrderNumber,
		IsCompleted:        m.IsCompleted,
		CompletedAt:        m.CompletedAt,
		IsPaymentRequired:  m.IsPaymentRequired,
		PaymentAmount:      m.PaymentAmount,
		IsPaymentCollected: m.IsPaymentCollected,
		PaymentCollectedAt: m.PaymentCollectedAt,
		DueDate:            m.DueDate,
		Notes:              str(m.Notes),
	}
}

// CaseMilestoneToRow maps a case milestone record
func CaseMilestoneToRow(m domain.CaseMilestone) models.CaseMilestone {
	return models.CaseMilestone{
		ID:                 m.ID,
		CaseID:             m.CaseID,
		ServiceMilestoneID: m.ServiceMilestoneID,
		Name:               m.Name,
		Description:        ptr(m.Description),
		OrderNumber:        m.OrderNumber,
		IsCompleted:        m.IsCompleted,
		CompletedAt:        m.CompletedAt,
		IsPaymentRequired:  m.IsPaymentRequired,
		PaymentAmount:      m.PaymentAmount,
		IsPaymentCollected: m.IsPaymentCollected,
		PaymentCollectedAt: m.PaymentCollectedAt,
		DueDate:            m.DueDate,
		Notes:              ptr(m.Notes),
	}
}

// CaseToRecord maps a case row. Names come from preloaded associations when present;
// status, paid and remaining amounts and progress are derived.
func CaseToRecord(c models.Case) domain.Case {
	rows := make([]models.CaseMilestone, len(c.Milestones))
	copy(rows, c.Milestones)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OrderNumber < rows[j].OrderNumber })

	milestones := make([]domain.CaseMilestone, 0, len(rows))
	for _, m := range rows {
		milestones = append(milestones, CaseMilestoneToRecord(m))
	}

	paid := domain.PricePaid(c.InitialPayment, rows)

	record := domain.Case{
		ID:               c.ID,
		ClientID:         c.ClientID,
		ServiceID:        c.ServiceID,
		AssignedLawyerID: c.AssignedLawyerID,
		TotalPrice:       c.TotalPrice,
		InitialPayment:   c.InitialPayment,
		AmountOwed:       c.AmountOwed,
		PricePaid:        paid,
		PriceRemaining:   domain.PriceRemaining(c.TotalPrice, paid),
		Status:           domain.MapCaseStatus(c.Status),
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		Notes:            str(c.Notes),
		Milestones:       milestones,
		Progress:         domain.ComputeProgress(rows),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	if c.Client.ID != "" {
		record.ClientName = c.Client.FullName()
	}
	if c.Service.ID != "" {
		record.ServiceName = c.Service.Name
	}
	if c.AssignedLawyer != nil {
		record.AssignedLawyerName = c.AssignedLawyer.FullName()
	}
	return record
}

// CaseToRow maps a case record. Derived fields are dropped.
func CaseToRow(c domain.Case) models.Case {
	var milestones []models.CaseMilestone
	for _, m := range c.Milestones {
		milestones = append(milestones, CaseMilestoneToRow(m))
	}
	return models.Case{
		ID:               c.ID,
		ClientID:         c.ClientID,
		ServiceID:        c.ServiceID,
		AssignedLawyerID: c.AssignedLawyerID,
		TotalPrice:       c.TotalPrice,
		InitialPayment:   c.InitialPayment,
		AmountOwed:       c.AmountOwed,
		Status:           domain.StorageStatus(c.Status),
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		Notes:            ptr(c.Notes),
		Milestones:       milestones,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// NotificationToRecord maps a notification row
func NotificationToRecord(n models.Notification) domain.Notification {
	return domain.Notification{
		ID:          n.ID,
		UserID:      n.UserID,
		Type:        n.Type,
		Priority:    n.Priority,
		Title:       n.Title,
		Message:     n.Message,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		RelatedID:   n.RelatedID,
		RelatedType: n.RelatedType,
		CreatedAt:   n.CreatedAt,
	}
}

// NotificationToRow maps a notification record
func NotificationToRow(n domain.Notification) models.Notification {
	return models.Notification{
		ID:          n.ID,
		UserID:      n.UserID,
		Type:        n.Type,
		Priority:    n.Priority,
		Title:       n.Title,
		Message:     n.Message,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		RelatedID:   n.RelatedID,
		RelatedType: n.RelatedType,
		CreatedAt:   n.CreatedAt,
	}
}

// UserToRecord maps a user row without the password hash
func UserToRecord(u models.User) domain.User {
	return domain.User{
		ID:                   u.ID,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		FullName:             u.FullName(),
		Email:                u.Email,
		Role:                 u.Role,
		IsActive:             u.IsActive,
		CommissionPercentage: u.CommissionPercentage,
		HourlyRate:           u.HourlyRate,
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
	}
}

// UserToRow maps a user record. The password is set by the user service only.
func UserToRow(u domain.User) models.User {
	return models.User{
		ID:                   u.ID,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Email:                u.Email,
		Role:                 u.Role,
		IsActive:             u.IsActive,
		CommissionPercentage: u.CommissionPercentage,
		HourlyRate:           u.HourlyRate,
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
	}
}

// MonthlySummaryToRecord maps a summary row
func MonthlySummaryToRecord(s models.MonthlySummary) domain.MonthlySummary {
	return domain.MonthlySummary{
		Year:            s.Year,
		Month:           s.Month,
		TotalIncome:     s.TotalIncome,
		LawyerPayments:  s.LawyerPayments,
		GeneralExpenses: s.GeneralExpenses,
		TotalExpenses:   s.TotalExpenses,
		NetProfit:       s.NetProfit,
		ProfitMargin:    s.ProfitMargin,
		CompletedCases:  s.CompletedCases,
		NewCases:        s.NewCases,
		GeneratedAt:     s.GeneratedAt,
	}
}

// MonthlySummaryToRow maps a summary record
func MonthlySummaryToRow(s domain.MonthlySummary) models.MonthlySummary {
	return models.MonthlySummary{
		Year:            s.Year,
		Month:           s.Month,
		TotalIncome:     s.TotalIncome,
		LawyerPayments:  s.LawyerPayments,
		GeneralExpenses: s.GeneralExpenses,
		TotalExpenses:   s.TotalExpenses,
		NetProfit:       s.NetProfit,
		ProfitMargin:    s.ProfitMargin,
		CompletedCases:  s.CompletedCases,
		NewCases:        s.NewCases,
		GeneratedAt:     s.GeneratedAt,
	}
}

// LawyerPaymentToRecord maps a lawyer payment row
func LawyerPaymentToRecord(p models.LawyerPayment) domain.LawyerPayment {
	return domain.LawyerPayment{
		ID:          p.ID,
		LawyerID:    p.LawyerID,
		PaymentDate: p.PaymentDate,
		PeriodYear:  p.PeriodYear,
		PeriodMonth: p.PeriodMonth,
		Amount:      p.Amount,
		Method:      p.Method,
		Notes:       str(p.Notes),
	}
}

// LawyerPaymentToRow maps a lawyer payment record
func LawyerPaymentToRow(p domain.LawyerPayment) models.LawyerPayment {
	return models.LawyerPayment{
		ID:          p.ID,
		LawyerID:    p.LawyerID,
		PaymentDate: p.PaymentDate,
		PeriodYear:  p.PeriodYear,
		PeriodMonth: p.PeriodMonth,
		Amount:      p.Amount,
		Method:      p.Method,
		Notes:       ptr(p.Notes),
	}
}

// GeneralExpenseToRecord maps an expense row
func GeneralExpenseToRecord(e models.GeneralExpense) domain.GeneralExpense {
	return domain.GeneralExpense{
		ID:          e.ID,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		ExpenseDate: e.ExpenseDate,
	}
}

// GeneralExpenseToRow maps an expense record
func GeneralExpenseToRow(e domain.GeneralExpense) models.GeneralExpense {
	return models.GeneralExpense{
		ID:          e.ID,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		ExpenseDate: e.ExpenseDate,
	}
}

// WorkHoursToRecord maps a time entry row
func WorkHoursToRecord(w models.WorkHours) domain.WorkHours {
	return domain.WorkHours{
		ID:          w.ID,
		LawyerID:    w.LawyerID,
		CaseID:      w.CaseID,
		Date:        w.Date,
		Hours:       w.Hours,
		IsBillable:  w.IsBillable,
		Description: str(w.Description),
	}
}

// WorkHoursToRow maps a time entry record
func WorkHoursToRow(w domain.WorkHours) models.WorkHours {
	return models.WorkHours{
		ID:          w.ID,
		LawyerID:    w.LawyerID,
		CaseID:      w.CaseID,
		Date:        w.Date,
		Hours:       w.Hours,
		IsBillable:  w.IsBillable,
		Description: ptr(w.Description),
	}
}
