package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"confiancy_back_end/internal/models"
	"confiancy_back_end/internal/reputation"
)

var (
	ErrEmailTaken    = errors.New("cette adresse email est déjà utilisée")
	ErrUsernameTaken = errors.New("ce pseudo est déjà pris")
	ErrOAuthLinked   = errors.New("ce compte externe est déjà lié à un autre utilisateur")
)

// CreateCredentials enregistre un compte non vérifié avec son code email.
func (s *Store) CreateCredentials(ctx context.Context, email, passwordHash, code string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (email, password, code_email, try_code_email, time_code_email)
		VALUES (?, ?, ?, 0, ?)`,
		email, passwordHash, code, time.Now().Unix())
	if isConstraintErr(err) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) CredentialsByEmail(ctx context.Context, email string) (*models.Credentials, error) {
	return scanCredentials(s.db.QueryRowContext(ctx, credentialsQuery+` WHERE email = ?`, email))
}

func (s *Store) CredentialsByID(ctx context.Context, id int64) (*models.Credentials, error) {
	return scanCredentials(s.db.QueryRowContext(ctx, credentialsQuery+` WHERE id = ?`, id))
}

func (s *Store) CredentialsByProvider(ctx context.Context, provider, providerID string) (*models.Credentials, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	return scanCredentials(s.db.QueryRowContext(ctx, credentialsQuery+` WHERE `+column+`_id = ?`, providerID))
}

const credentialsQuery = `
	SELECT id, email, password, code_email, try_code_email, time_code_email,
	       discord_email, discord_id, github_email, github_id
	FROM credentials`

func scanCredentials(row *sql.Row) (*models.Credentials, error) {
	var c models.Credentials
	err := row.Scan(&c.ID, &c.Email, &c.Password, &c.CodeEmail, &c.TryCodeEmail, &c.TimeCodeMail,
		&c.DiscordEmail, &c.DiscordID, &c.GithubEmail, &c.GithubID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetEmailCode remplace le code de vérification et remet le compteur d'essais
// à zéro.
func (s *Store) SetEmailCode(ctx context.Context, id int64, code string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET code_email = ?, try_code_email = 0, time_code_email = ?
		WHERE id = ?`, code, time.Now().Unix(), id)
	return err
}

func (s *Store) IncrementCodeTry(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET try_code_email = try_code_email + 1 WHERE id = ?`, id)
	return err
}

func (s *Store) ClearEmailCode(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET code_email = '', try_code_email = 0, time_code_email = 0
		WHERE id = ?`, id)
	return err
}

func (s *Store) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE credentials SET password = ? WHERE id = ?`, passwordHash, id)
	return err
}

// LinkProvider attache une identité Discord ou GitHub au compte. La contrainte
// UNIQUE bloque une identité déjà liée ailleurs.
func (s *Store) LinkProvider(ctx context.Context, id int64, provider, providerID, providerEmail string) error {
	column, err := providerColumn(provider)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE credentials SET `+column+`_id = ?, `+column+`_email = ? WHERE id = ?`,
		providerID, providerEmail, id)
	if isConstraintErr(err) {
		return ErrOAuthLinked
	}
	return err
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case "discord":
		return "discord", nil
	case "github":
		return "github", nil
	}
	return "", errors.New("fournisseur OAuth inconnu : " + provider)
}

// CreateProfile crée le profil public et sa ligne badges lors de la
// vérification email. L'identifiant est celui des credentials.
func (s *Store) CreateProfile(ctx context.Context, userID int64, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO users (user_id, username, score, review_count, given_count, weighted_sum, weight_total)
		VALUES (?, ?, ?, 0, 0, 0, 0)`, userID, username, reputation.NeutralScore); err != nil {
		if isConstraintErr(err) {
			return ErrUsernameTaken
		}
		return err
	}
	if _, err := tx.Exec(`INSERT INTO badges (user_id) VALUES (?)`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`, username).Scan(&n)
	return n > 0, err
}

const userQuery = `
	SELECT u.user_id, u.username, u.avatar, u.score, u.review_count, u.given_count,
	       b.verify, b.premium, b.job, b.staff
	FROM users u JOIN badges b ON b.user_id = u.user_id`

func (s *Store) UserByID(ctx context.Context, userID int64) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, userQuery+` WHERE u.user_id = ?`, userID))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, userQuery+` WHERE u.username = ? COLLATE NOCASE`, username))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u                  models.User
		premium, job, staff int
	)
	err := row.Scan(&u.UserID, &u.Username, &u.Avatar, &u.Score, &u.ReviewCount, &u.GivenCount,
		&u.Badges.Verify, &premium, &job, &staff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Badges.Premium = premium != 0
	u.Badges.Job = job != 0
	u.Badges.Staff = staff != 0
	return &u, nil
}

func (s *Store) SetAvatar(ctx context.Context, userID int64, avatarURL string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE user_id = ?`, avatarURL, userID)
	return err
}

// IncrementVerify monte le niveau de vérification d'un cran, à la liaison
// d'une identité OAuth.
func (s *Store) IncrementVerify(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE badges SET verify = verify + 1 WHERE user_id = ?`, userID)
	return err
}

func (s *Store) SetPremium(ctx context.Context, userID int64, premium bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE badges SET premium = ? WHERE user_id = ?`, boolInt(premium), userID)
	return err
}

func (s *Store) IsStaff(ctx context.Context, userID int64) (bool, error) {
	var staff int
	err := s.db.QueryRowContext(ctx, `SELECT staff FROM badges WHERE user_id = ?`, userID).Scan(&staff)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return staff != 0, err
}

// ReceivedReviews liste les avis reçus par un utilisateur, pseudo de
// l'auteur inclus.
func (s *Store) ReceivedReviews(ctx context.Context, targetID int64) ([]models.ReviewEntry, error) {
	return s.listReviews(ctx, `
		SELECT r.author_id, a.username, r.target_id, '', r.rating, r.comment, r.weight, r.created_at
		FROM reviews r JOIN users a ON a.user_id = r.author_id
		WHERE r.target_id = ? ORDER BY r.created_at DESC`, targetID)
}

// GivenReviews liste les avis déposés par un utilisateur, pseudo de la cible
// inclus.
func (s *Store) GivenReviews(ctx context.Context, authorID int64) ([]models.ReviewEntry, error) {
	return s.listReviews(ctx, `
		SELECT r.author_id, '', r.target_id, t.username, r.rating, r.comment, r.weight, r.created_at
		FROM reviews r JOIN users t ON t.user_id = r.target_id
		WHERE r.author_id = ? ORDER BY r.created_at DESC`, authorID)
}

func (s *Store) listReviews(ctx context.Context, query string, id int64) ([]models.ReviewEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ReviewEntry
	for rows.Next() {
		var (
			e         models.ReviewEntry
			createdAt int64
		)
		if err := rows.Scan(&e.AuthorID, &e.AuthorUsername, &e.TargetID, &e.TargetUsername,
			&e.Rating, &e.Comment, &e.Weight, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AuthoredReviewTargets donne les cibles des avis déposés par un compte,
// pour les rétracter un à un avant sa suppression.
func (s *Store) AuthoredReviewTargets(ctx context.Context, authorID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target_id FROM reviews WHERE author_id = ?`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []int64
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// PurgeAccount efface toute trace d'un compte : credentials, profil, badges
// et avis le visant. Les avis qu'il a déposés doivent avoir été rétractés
// avant l'appel. Les auteurs des avis effacés perdent l'avis de leur compteur
// given_count : il doit toujours compter les avis actifs, rien d'autre.
func (s *Store) PurgeAccount(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`UPDATE users SET given_count = MAX(given_count - 1, 0)
			WHERE user_id IN (SELECT author_id FROM reviews WHERE target_id = ?)`,
		`DELETE FROM reviews WHERE target_id = ?`,
		`DELETE FROM badges WHERE user_id = ?`,
		`DELETE FROM users WHERE user_id = ?`,
		`DELETE FROM credentials WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AccountsByEmailDomain retrouve les comptes inscrits avec une adresse d'un
// domaine donné, pour la purge après mise en liste noire.
func (s *Store) AccountsByEmailDomain(ctx context.Context, domain string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM credentials WHERE email LIKE ? ORDER BY id`, "%@"+domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
