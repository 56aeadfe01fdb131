// Package ga implements the metaheuristic solver of spec.md §4.5: a
// permutation genetic algorithm with a greedy list-scheduling decoder. No
// genetic-algorithm library appears anywhere in the retrieval pack, so this
// component (like pkg/solver/cp) is necessarily original, hand-rolled
// search — see DESIGN.md.
package ga

import (
	"time"

	"github.com/bellum/bellum/pkg/domain"
	"github.com/bellum/bellum/pkg/estimator"
)

type employeeOption struct {
	employeeIdx int
	minutes     int
}

type taskModel struct {
	id               domain.Identifier[domain.Task]
	description      string
	priority         domain.Priority
	requiredSkills   domain.SkillMap
	dependsOnID      *domain.Identifier[domain.Task]
	predecessorIdx   int // -1 if none
	options          []employeeOption
	pinned           bool
	pinnedEmployee   int
	pinnedStart      int
	pinnedDuration   int
	inputEmployeeIdx int // >= 0 if the input had a non-pinned hint assignment
}

type model struct {
	kickOff   time.Time
	employees []domain.Employee
	tasks     []taskModel
}

func buildModel(project *domain.Project, matrix *estimator.EstimationMatrix) *model {
	tasks := project.Tasks()
	employees := project.Employees()

	taskIndexByID := make(map[string]int, len(tasks))
	for i, t := range tasks {
		taskIndexByID[t.ID().String()] = i
	}

	tm := make([]taskModel, len(tasks))
	for i, t := range tasks {
		predIdx := -1
		var depID *domain.Identifier[domain.Task]
		if id, ok := t.DependsOn(); ok {
			idCopy := id
			depID = &idCopy
			if idx, ok := taskIndexByID[id.String()]; ok {
				predIdx = idx
			}
		}

		var options []employeeOption
		for ei, e := range employees {
			d, err := matrix.Estimate(e.ID(), t.ID())
			if err != nil {
				continue
			}
			options = append(options, employeeOption{employeeIdx: ei, minutes: int(d / time.Minute)})
		}

		entry := taskModel{
			id:               t.ID(),
			description:      t.Description(),
			priority:         t.Priority(),
			requiredSkills:   t.RequiredSkills(),
			dependsOnID:      depID,
			predecessorIdx:   predIdx,
			options:          options,
			pinnedEmployee:   -1,
			inputEmployeeIdx: -1,
		}
		if assigned, ok := domain.IsAssigned(t); ok {
			idx := indexOfEmployee(employees, assigned.Employee())
			if assigned.Pinned() {
				entry.pinned = true
				entry.pinnedEmployee = idx
				entry.pinnedStart = int(assigned.StartAt().Sub(project.KickOff()) / time.Minute)
				entry.pinnedDuration = int(assigned.Duration() / time.Minute)
			} else {
				entry.inputEmployeeIdx = idx
			}
		}
		tm[i] = entry
	}

	return &model{kickOff: project.KickOff(), employees: employees, tasks: tm}
}

func indexOfEmployee(employees []domain.Employee, id domain.Identifier[domain.Employee]) int {
	for i, e := range employees {
		if e.ID().Equal(id) {
			return i
		}
	}
	return -1
}
