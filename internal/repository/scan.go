package repository

// Minimal row abstractions so scan helpers work for both QueryRow and Query
// results.

type scannable interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}
