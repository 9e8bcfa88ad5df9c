package app

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks a CLI command that may mutate the record store.
// Operations are created in memory with ID=0. Only mutating commands
// persist them, which assigns an auto-increment ID that also versions the
// exported database in the vaults.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
}

// NewOperation creates a new in-memory operation.
func NewOperation(operation, parameters string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: parameters,
		Status:     StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Record marks the operation failed when err is non-nil. A failed
// operation stays failed.
func (op *Operation) Record(err error) {
	if err != nil {
		op.Status = StatusError
	}
}
