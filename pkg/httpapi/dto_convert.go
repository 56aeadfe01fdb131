package httpapi

import (
	"fmt"
	"time"

	"github.com/bellum/bellum/pkg/domain"
)

// ToProject rebuilds a domain.Project from a request-body ProjectDto. This
// is glue code for the "schedule"/`POST /runs` entry points, not a
// conforming RTS parser (spec.md explicitly excludes that from scope).
func (p ProjectDto) ToProject() (*domain.Project, error) {
	employees := make([]domain.Employee, 0, len(p.Employees))
	for _, e := range p.Employees {
		id, err := domain.IdentifierFromString[domain.Employee](e.ID)
		if err != nil {
			return nil, fmt.Errorf("httpapi: employee %q: %w", e.Name, err)
		}
		employee, err := domain.NewEmployeeWithID(id, e.Name, e.Skills)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}

	tasks := make([]domain.Task, 0, len(p.Tasks))
	for _, dto := range p.Tasks {
		id, err := domain.IdentifierFromString[domain.Task](dto.ID)
		if err != nil {
			return nil, fmt.Errorf("httpapi: task %q: %w", dto.Description, err)
		}
		priority, err := priorityFromString(dto.Priority)
		if err != nil {
			return nil, err
		}
		var dep *domain.Identifier[domain.Task]
		if dto.DependsOn != nil {
			depID, err := domain.IdentifierFromString[domain.Task](*dto.DependsOn)
			if err != nil {
				return nil, fmt.Errorf("httpapi: task %q dependsOn: %w", dto.Description, err)
			}
			dep = &depID
		}

		unassigned, err := domain.NewUnassignedTaskWithID(id, dto.Description, priority, dto.Skills, dep)
		if err != nil {
			return nil, err
		}

		if !dto.Assigned {
			tasks = append(tasks, unassigned)
			continue
		}
		if dto.Employee == nil || dto.StartAt == nil || dto.Duration == nil {
			return nil, fmt.Errorf("httpapi: task %q marked assigned but missing employee/startAt/duration", dto.Description)
		}
		empID, err := domain.IdentifierFromString[domain.Employee](*dto.Employee)
		if err != nil {
			return nil, fmt.Errorf("httpapi: task %q employee: %w", dto.Description, err)
		}
		tasks = append(tasks, unassigned.Assign(empID, *dto.StartAt, time.Duration(*dto.Duration), dto.Pinned))
	}

	id, err := domain.IdentifierFromString[domain.Project](p.ID)
	if err != nil {
		id = domain.NewIdentifier[domain.Project]()
	}
	return domain.NewProjectWithID(id, p.Name, p.KickOff, employees, tasks)
}

func priorityFromString(s string) (domain.Priority, error) {
	switch s {
	case "CRITICAL":
		return domain.PriorityCritical, nil
	case "MAJOR":
		return domain.PriorityMajor, nil
	case "MINOR":
		return domain.PriorityMinor, nil
	default:
		return 0, fmt.Errorf("httpapi: unknown priority %q", s)
	}
}
