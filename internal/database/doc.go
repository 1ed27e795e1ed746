// Package database provides the data access layer for the library service.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL), migrations
//	├── errors.go        # Driver-independent constraint violation checks
//	├── authors/         # Author CRUD and book counts
//	├── books/           # Book CRUD and filtered listing
//	├── borrows/         # Borrow records (the ledger's storage)
//	├── users/           # Library members
//	└── audit/           # Audit trail
//
// # Open borrow constraint
//
// Migrate creates a partial unique index on borrow_records(book_id) restricted
// to rows where returned_at IS NULL. Both SQLite and PostgreSQL support it, so
// "at most one open borrow per book" holds no matter how many requests race.
// Callers detect the violation with IsUniqueViolation.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//	borrowRepo := borrows.NewRepository(db.DB)
//	record, err := borrowRepo.FindOpen(ctx, bookID, userID)
//
// Each Repository satisfies a small store interface declared by its consumer,
// checked at compile time with var _ Iface = (*Repository)(nil) on the consumer side.
package database
