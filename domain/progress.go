package domain

import "immigration_crm_go/models"

// MilestoneProgress holds milestone completion statistics
type MilestoneProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Percent   int `json:"percent"` // Completion percentage (0-100)
}

// ComputeProgress counts completed milestones
func ComputeProgress(milestones []models.CaseMilestone) MilestoneProgress {
	p := MilestoneProgress{Total: len(milestones)}
	for _, m := range milestones {
		if m.IsCompleted {
			p.Completed++
		}
	}
	p.Pending = p.Total - p.Completed
	if p.Total > 0 {
		p.Percent = (p.Completed * 100) / p.Total
	}
	return p
}
