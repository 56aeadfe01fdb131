package domain

import "github.com/hashicorp/go-memdb"

// taskRow and employeeRow exist only because memdb's field indexers work by
// reflecting over exported struct fields, and Task/Employee expose their id
// through a method, not a field. They are a storage-only detail: nothing
// outside this package ever sees a *Row value.
type taskRow struct {
	ID   string
	Task Task
}

type employeeRow struct {
	ID       string
	Employee Employee
}

func projectDBSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"tasks": {
				Name: "tasks",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			"employees": {
				Name: "employees",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
}

// newProjectStore builds a fresh, fully-populated memdb.MemDB for one
// Project snapshot. Project is immutable, so the store is built once at
// construction and never mutated again — there is no need for memdb's
// transactional semantics beyond "write everything, then only ever read".
func newProjectStore(tasks []Task, employees []Employee) (*memdb.MemDB, error) {
	db, err := memdb.NewMemDB(projectDBSchema())
	if err != nil {
		return nil, err
	}
	txn := db.Txn(true)
	for _, t := range tasks {
		if err := txn.Insert("tasks", taskRow{ID: t.ID().String(), Task: t}); err != nil {
			txn.Abort()
			return nil, err
		}
	}
	for _, e := range employees {
		if err := txn.Insert("employees", employeeRow{ID: e.ID().String(), Employee: e}); err != nil {
			txn.Abort()
			return nil, err
		}
	}
	txn.Commit()
	return db, nil
}

func lookupTask(db *memdb.MemDB, id string) (Task, bool) {
	txn := db.Txn(false)
	raw, err := txn.First("tasks", "id", id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(taskRow).Task, true
}

func lookupEmployee(db *memdb.MemDB, id string) (Employee, bool) {
	txn := db.Txn(false)
	raw, err := txn.First("employees", "id", id)
	if err != nil || raw == nil {
		return Employee{}, false
	}
	return raw.(employeeRow).Employee, true
}
