package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"confiancy_back_end/internal/config"
)

// OAuthProvider regroupe la config oauth2 et la récupération d'identité
// d'un fournisseur de badge (Discord ou GitHub).
type OAuthProvider struct {
	Name     string
	Config   *oauth2.Config
	UserURL  string
	idField  string
	mapEmail func(map[string]interface{}) string
}

func ProviderFor(name string) (*OAuthProvider, error) {
	switch name {
	case "discord":
		return &OAuthProvider{
			Name:    "discord",
			Config:  config.DiscordOAuthConfig(),
			UserURL: "https://discord.com/api/users/@me",
			idField: "id",
			mapEmail: func(data map[string]interface{}) string {
				email, _ := data["email"].(string)
				return email
			},
		}, nil
	case "github":
		return &OAuthProvider{
			Name:    "github",
			Config:  config.GithubOAuthConfig(),
			UserURL: "https://api.github.com/user",
			idField: "id",
			mapEmail: func(data map[string]interface{}) string {
				email, _ := data["email"].(string)
				return email
			},
		}, nil
	default:
		return nil, fmt.Errorf("provider inconnu: %s", name)
	}
}

func (p *OAuthProvider) GetAuthURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.Config.Exchange(ctx, code)
}

// Identity est le compte distant rattaché côté fournisseur
type Identity struct {
	ID    string
	Email string
}

// FetchIdentity interroge l'API du fournisseur avec le token obtenu
func (p *OAuthProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	client := p.Config.Client(ctx, token)

	resp, err := client.Get(p.UserURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: statut %d", p.Name, resp.StatusCode)
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	id := ""
	switch v := data[p.idField].(type) {
	case string:
		id = v
	case float64:
		// GitHub renvoie un id numérique
		id = fmt.Sprintf("%.0f", v)
	}
	if id == "" {
		return nil, fmt.Errorf("%s: identifiant absent de la réponse", p.Name)
	}

	return &Identity{ID: id, Email: p.mapEmail(data)}, nil
}
