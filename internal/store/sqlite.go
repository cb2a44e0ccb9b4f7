// Package store fournit la persistance SQLite de la plateforme : identités,
// agrégats de réputation et avis. C'est la seule implémentation du contrat
// reputation.Store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mattn/go-sqlite3"

	"confiancy_back_end/internal/reputation"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	email           TEXT UNIQUE NOT NULL,
	password        TEXT NOT NULL,
	code_email      TEXT NOT NULL DEFAULT '',
	try_code_email  INTEGER NOT NULL DEFAULT 0,
	time_code_email INTEGER NOT NULL DEFAULT 0,

	discord_email   TEXT UNIQUE,
	discord_id      TEXT UNIQUE,

	github_email    TEXT UNIQUE,
	github_id       TEXT UNIQUE
);

CREATE TABLE IF NOT EXISTS users (
	user_id      INTEGER NOT NULL PRIMARY KEY,
	username     TEXT UNIQUE NOT NULL,
	avatar       TEXT,

	score        INTEGER NOT NULL DEFAULT 50,
	review_count INTEGER NOT NULL DEFAULT 0 CHECK(review_count >= 0),
	given_count  INTEGER NOT NULL DEFAULT 0 CHECK(given_count >= 0),
	weighted_sum REAL    NOT NULL DEFAULT 0,
	weight_total REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS reviews (
	author_id  INTEGER NOT NULL,
	target_id  INTEGER NOT NULL,

	rating     INTEGER NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	weight     REAL NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (author_id, target_id)
);
CREATE INDEX IF NOT EXISTS idx_reviews_target ON reviews(target_id, created_at DESC);

CREATE TABLE IF NOT EXISTS badges (
	user_id INTEGER NOT NULL PRIMARY KEY,

	verify  INTEGER NOT NULL DEFAULT 0,
	premium INTEGER NOT NULL DEFAULT 0,
	job     INTEGER NOT NULL DEFAULT 0,
	staff   INTEGER NOT NULL DEFAULT 0
);
`

// Délai maximal d'une transaction : au-delà, l'opération échoue avec une
// erreur transitoire plutôt que de rester bloquée.
const txTimeout = 5 * time.Second

type Store struct {
	db *sql.DB
}

// Open ouvre (ou crée) la base au chemin donné et applique le schéma.
// _txlock=immediate fait démarrer chaque transaction d'écriture avec le
// verrou writer déjà pris : deux soumissions concurrentes pour la même cible
// ne peuvent pas entrelacer leur read-modify-write.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ouverture base: %w", err)
	}

	// WAL autorise les lectures concurrentes mais SQLite n'a qu'un writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration schéma: %w", err)
	}

	log.Println("✅ Base SQLite prête :", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB expose la connexion pour les dépôts annexes (identités, badges).
func (s *Store) DB() *sql.DB { return s.db }

// WithTx exécute fn dans une transaction IMMEDIATE. Toute erreur de fn annule
// l'ensemble ; un verrou non obtenu dans le délai remonte en ErrConflict.
func (s *Store) WithTx(ctx context.Context, fn func(tx reputation.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteErr(err)
	}

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		tx.Rollback()
		return mapSQLiteErr(err)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return mapSQLiteErr(err)
	}
	return nil
}

func (s *Store) GetUserAggregate(ctx context.Context, userID int64) (reputation.Aggregate, error) {
	return scanAggregate(s.db.QueryRowContext(ctx, `
		SELECT user_id, weighted_sum, weight_total, review_count, given_count, score
		FROM users WHERE user_id = ?`, userID))
}

func (s *Store) GetReview(ctx context.Context, authorID, targetID int64) (*reputation.Review, error) {
	return scanReview(s.db.QueryRowContext(ctx, `
		SELECT author_id, target_id, rating, comment, weight, created_at
		FROM reviews WHERE author_id = ? AND target_id = ?`, authorID, targetID))
}

func (s *Store) ListReviewsForTarget(ctx context.Context, targetID int64) ([]reputation.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT author_id, target_id, rating, comment, weight, created_at
		FROM reviews WHERE target_id = ? ORDER BY created_at DESC`, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []reputation.Review
	for rows.Next() {
		var (
			r         reputation.Review
			createdAt int64
		)
		if err := rows.Scan(&r.AuthorID, &r.TargetID, &r.Rating, &r.Comment, &r.Weight, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// --- Transaction ---

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) UserAggregate(userID int64) (reputation.Aggregate, error) {
	return scanAggregate(t.tx.QueryRow(`
		SELECT user_id, weighted_sum, weight_total, review_count, given_count, score
		FROM users WHERE user_id = ?`, userID))
}

func (t *sqliteTx) VerifyLevel(userID int64) (int, error) {
	var level int
	err := t.tx.QueryRow(`SELECT verify FROM badges WHERE user_id = ?`, userID).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return level, err
}

func (t *sqliteTx) Review(authorID, targetID int64) (*reputation.Review, error) {
	return scanReview(t.tx.QueryRow(`
		SELECT author_id, target_id, rating, comment, weight, created_at
		FROM reviews WHERE author_id = ? AND target_id = ?`, authorID, targetID))
}

func (t *sqliteTx) InsertReview(r reputation.Review) error {
	_, err := t.tx.Exec(`
		INSERT INTO reviews (author_id, target_id, rating, comment, weight, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.AuthorID, r.TargetID, r.Rating, r.Comment, r.Weight, r.CreatedAt.Unix())
	if isConstraintErr(err) {
		return reputation.ErrDuplicateReview
	}
	return err
}

func (t *sqliteTx) DeleteReview(authorID, targetID int64) error {
	_, err := t.tx.Exec(`DELETE FROM reviews WHERE author_id = ? AND target_id = ?`, authorID, targetID)
	return err
}

func (t *sqliteTx) UpdateAggregate(userID int64, weightedSum, weightTotal float64, reviewCount, score int) error {
	res, err := t.tx.Exec(`
		UPDATE users SET weighted_sum = ?, weight_total = ?, review_count = ?, score = ?
		WHERE user_id = ?`,
		weightedSum, weightTotal, reviewCount, score, userID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (t *sqliteTx) SetGivenCount(userID int64, givenCount int) error {
	res, err := t.tx.Exec(`UPDATE users SET given_count = ? WHERE user_id = ?`, givenCount, userID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// --- Helpers ---

func scanAggregate(row *sql.Row) (reputation.Aggregate, error) {
	var a reputation.Aggregate
	err := row.Scan(&a.UserID, &a.WeightedSum, &a.WeightTotal, &a.ReviewCount, &a.GivenCount, &a.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return reputation.Aggregate{}, reputation.ErrUnknownUser
	}
	return a, err
}

func scanReview(row *sql.Row) (*reputation.Review, error) {
	var (
		r         reputation.Review
		createdAt int64
	)
	err := row.Scan(&r.AuthorID, &r.TargetID, &r.Rating, &r.Comment, &r.Weight, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &r, nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return reputation.ErrUnknownUser
	}
	return nil
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return reputation.ErrConflict
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return reputation.ErrConflict
	}
	return err
}
