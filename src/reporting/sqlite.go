package reporting

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/will-rowe/galah/src/pipeline"
)

const createDistances = `CREATE TABLE IF NOT EXISTS distances (
	genome1 TEXT NOT NULL,
	genome2 TEXT NOT NULL,
	ani REAL NOT NULL,
	completeness1 REAL,
	contamination1 REAL,
	completeness2 REAL,
	contamination2 REAL
)`

const insertDistance = `INSERT INTO distances (genome1, genome2, ani, completeness1, contamination1, completeness2, contamination2) VALUES (?, ?, ?, ?, ?, ?, ?)`

// DistanceDB stores distance records in a SQLite table, in a single transaction
type DistanceDB struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
}

// OpenDistanceDB opens (or creates) the database and starts the transaction
func OpenDistanceDB(path string) (*DistanceDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open database %v", path)
	}
	if _, err := db.Exec(createDistances); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "could not create distance table in %v", path)
	}
	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not start transaction")
	}
	stmt, err := tx.Prepare(insertDistance)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, errors.Wrap(err, "could not prepare insert")
	}
	return &DistanceDB{db: db, tx: tx, stmt: stmt}, nil
}

// Add inserts a single record
func (DistanceDB *DistanceDB) Add(r pipeline.DistanceRecord) error {
	_, err := DistanceDB.stmt.Exec(r.GenomeA, r.GenomeB, r.ANI,
		r.QualityA.Completeness, r.QualityA.Contamination,
		r.QualityB.Completeness, r.QualityB.Contamination)
	if err != nil {
		return errors.Wrapf(err, "could not insert distance for %v vs %v", r.GenomeA, r.GenomeB)
	}
	DistanceDB.count++
	return nil
}

// Count is the number of records added so far
func (DistanceDB *DistanceDB) Count() int {
	return DistanceDB.count
}

// Close commits the records and closes the database
func (DistanceDB *DistanceDB) Close() error {
	defer DistanceDB.db.Close()
	DistanceDB.stmt.Close()
	if err := DistanceDB.tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit distances")
	}
	return nil
}
