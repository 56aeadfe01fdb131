// Package httpapi is the thin gin transport of SPEC_FULL.md §4.8: it makes
// spec.md §6.3's SolutionSummaryDto reachable over HTTP and websocket. It is
// not the dashboard and not a replacement for the CLI — only the wire shape
// those collaborators already expect.
package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/bellum/bellum/pkg/domain"
)

// ISODuration renders a time.Duration as an ISO-8601 duration
// ("PT5M", "PT1H30M", "PT0S"), the wire format spec.md §6.3 requires.
type ISODuration time.Duration

// MarshalJSON implements json.Marshaler.
func (d ISODuration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + formatISODuration(time.Duration(d)) + `"`), nil
}

func formatISODuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	neg := d < 0
	if neg {
		d = -d
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		fmt.Fprintf(&b, "%dS", seconds)
	}
	return b.String()
}

// TaskDto is one task's wire representation inside a ProjectDto.
type TaskDto struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Priority    string       `json:"priority"`
	Skills      domain.SkillMap `json:"requiredSkills"`
	DependsOn   *string      `json:"dependsOn,omitempty"`
	Assigned    bool         `json:"assigned"`
	Employee    *string      `json:"employee,omitempty"`
	StartAt     *time.Time   `json:"startAt,omitempty"`
	Duration    *ISODuration `json:"duration,omitempty"`
	Pinned      bool         `json:"pinned"`
}

// EmployeeDto is one employee's wire representation inside a ProjectDto.
type EmployeeDto struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Skills domain.SkillMap `json:"skills"`
}

// ProjectDto is the full wire representation of a domain.Project.
type ProjectDto struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	KickOff   time.Time     `json:"kickOff"`
	Employees []EmployeeDto `json:"employees"`
	Tasks     []TaskDto     `json:"tasks"`
}

// NewProjectDto converts a domain.Project into its wire shape.
func NewProjectDto(p *domain.Project) ProjectDto {
	employees := make([]EmployeeDto, 0, len(p.Employees()))
	for _, e := range p.Employees() {
		employees = append(employees, EmployeeDto{ID: e.ID().String(), Name: e.Name(), Skills: e.Skills()})
	}

	tasks := make([]TaskDto, 0, len(p.Tasks()))
	for _, t := range p.Tasks() {
		dto := TaskDto{
			ID:          t.ID().String(),
			Description: t.Description(),
			Priority:    t.Priority().String(),
			Skills:      t.RequiredSkills(),
		}
		if dep, ok := t.DependsOn(); ok {
			s := dep.String()
			dto.DependsOn = &s
		}
		if at, ok := domain.IsAssigned(t); ok {
			dto.Assigned = true
			dto.Pinned = at.Pinned()
			empID := at.Employee().String()
			dto.Employee = &empID
			startAt := at.StartAt()
			dto.StartAt = &startAt
			dur := ISODuration(at.Duration())
			dto.Duration = &dur
		}
		tasks = append(tasks, dto)
	}

	return ProjectDto{ID: p.ID().String(), Name: p.Name(), KickOff: p.KickOff(), Employees: employees, Tasks: tasks}
}

// SolutionHistoryEntryDto is one entry of solutionHistory (spec.md §6.3).
type SolutionHistoryEntryDto struct {
	SolverDuration ISODuration `json:"solverDuration"`
	MaxDuration    ISODuration `json:"maxDuration"`
	PriorityCost   int         `json:"priorityCost"`
	Valid          bool        `json:"valid"`
	Optimal        bool        `json:"optimal"`
}

// SolutionSummaryDto is the authoritative JSON shape of spec.md §6.3.
type SolutionSummaryDto struct {
	Solutions       []ProjectDto              `json:"solutions"`
	SolutionHistory []SolutionHistoryEntryDto `json:"solutionHistory"`
	SolverStats     map[string]any            `json:"solverStats"`
}

// NewSolutionSummaryDto builds the DTO from a run's accumulated solutions.
func NewSolutionSummaryDto(solutions []domain.SchedulerSolution) SolutionSummaryDto {
	dto := SolutionSummaryDto{
		Solutions:       make([]ProjectDto, 0, len(solutions)),
		SolutionHistory: make([]SolutionHistoryEntryDto, 0, len(solutions)),
	}
	for _, s := range solutions {
		dto.Solutions = append(dto.Solutions, NewProjectDto(s.Project))
		dto.SolutionHistory = append(dto.SolutionHistory, SolutionHistoryEntryDto{
			SolverDuration: ISODuration(s.Duration),
			MaxDuration:    ISODuration(s.Project.TotalDuration()),
			PriorityCost:   s.Project.PriorityCost(),
			Valid:          s.IsValid(),
			Optimal:        s.Optimal,
		})
	}
	if len(solutions) > 0 {
		dto.SolverStats = solutions[len(solutions)-1].Stats
	}
	return dto
}
