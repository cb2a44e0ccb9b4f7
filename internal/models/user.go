package models

import "time"

// Credentials est la ligne d'authentification d'un compte : mot de passe,
// code de vérification email et identités OAuth liées.
type Credentials struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Password     string `json:"-"`
	CodeEmail    string `json:"-"`
	TryCodeEmail int    `json:"-"`
	TimeCodeMail int64  `json:"-"`

	DiscordEmail *string `json:"discordEmail,omitempty"`
	DiscordID    *string `json:"discordId,omitempty"`
	GithubEmail  *string `json:"githubEmail,omitempty"`
	GithubID     *string `json:"githubId,omitempty"`
}

// User est le profil public d'un compte vérifié, agrégats de réputation
// compris.
type User struct {
	UserID      int64   `json:"userId"`
	Username    string  `json:"username"`
	Avatar      *string `json:"avatar,omitempty"`
	Score       int     `json:"score"`
	ReviewCount int     `json:"reviewCount"`
	GivenCount  int     `json:"givenCount"`
	Badges      Badges  `json:"badges"`
}

// Badges regroupe les distinctions d'un compte. Verify est un niveau :
// il augmente à chaque identité OAuth liée.
type Badges struct {
	Verify  int  `json:"verify"`
	Premium bool `json:"premium"`
	Job     bool `json:"job"`
	Staff   bool `json:"staff"`
}

// ReviewEntry est un avis enrichi des pseudos pour l'affichage.
type ReviewEntry struct {
	AuthorID       int64     `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	TargetID       int64     `json:"targetId"`
	TargetUsername string    `json:"targetUsername,omitempty"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	Weight         float64   `json:"weight"`
	CreatedAt      time.Time `json:"createdAt"`
}
