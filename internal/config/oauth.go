package config

import (
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Les configs sont construites à la demande : Load() doit avoir chargé le
// .env avant le premier appel. Elles servent au parcours de liaison, la
// connexion OAuth passe par goth.
func DiscordOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  os.Getenv("API_BASE_URL") + "/api/auth/link/discord/callback",
		ClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		ClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		Scopes:       []string{"identify", "email"},
		Endpoint:     endpoints.Discord,
	}
}

func GithubOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  os.Getenv("API_BASE_URL") + "/api/auth/link/github/callback",
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     endpoints.GitHub,
	}
}
