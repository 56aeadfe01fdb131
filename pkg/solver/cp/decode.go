package cp

import (
	"fmt"
	"time"

	"github.com/bellum/bellum/pkg/domain"
)

// decodeProject maps a complete assignment back onto a Project, following
// spec.md §4.4's decoding rule: `task.assign(employees[a], kickOff +
// start·min, duration·min)`, preserving the pinned flag.
func decodeProject(base *domain.Project, m *model, assignment []taskAssignment) (*domain.Project, error) {
	tasks := make([]domain.Task, len(m.tasks))
	for i, tm := range m.tasks {
		a := assignment[i]
		if !a.assigned {
			return nil, fmt.Errorf("cp: task %q has no decided assignment", tm.description)
		}

		unassigned, err := domain.NewUnassignedTaskWithID(tm.id, tm.description, tm.priority, tm.requiredSkills, tm.dependsOnID)
		if err != nil {
			return nil, err
		}
		startAt := m.kickOff.Add(time.Duration(a.start) * time.Minute)
		duration := time.Duration(a.duration) * time.Minute
		tasks[i] = unassigned.Assign(m.employees[a.employeeIdx].ID(), startAt, duration, a.pinned)
	}

	return domain.NewProjectWithID(base.ID(), base.Name(), base.KickOff(), m.employees, tasks)
}
