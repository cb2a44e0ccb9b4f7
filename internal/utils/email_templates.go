package utils

import (
	"fmt"
	"os"
)

func frontendURL() string {
	url := os.Getenv("FRONTEND_URL")
	if url == "" {
		url = "http://localhost:5173"
	}
	return url
}

// emailShell habille le contenu avec l'en-tête et le pied communs à tous les
// emails de la plateforme.
func emailShell(title, headline, content string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #f5f5f5;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
                    <tr>
                        <td style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 28px; font-weight: 700;">%s</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 40px 30px;">
                            %s
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 20px 30px; background-color: #f8f9fa; border-radius: 0 0 12px 12px; text-align: center;">
                            <p style="margin: 0; color: #999999; font-size: 13px;">
                                L'équipe Confiancy
                            </p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`, title, headline, content)
}

// codeBlock met un code à usage unique en évidence.
func codeBlock(code string) string {
	return fmt.Sprintf(`
<table role="presentation" style="width: 100%%; margin: 25px 0;">
    <tr>
        <td style="text-align: center;">
            <div style="display: inline-block; padding: 18px 35px; background-color: #f0f0ff; border: 2px dashed #667eea; border-radius: 8px; font-size: 26px; font-weight: 700; letter-spacing: 4px; color: #333333;">%s</div>
        </td>
    </tr>
</table>`, code)
}

// SendVerificationCodeEmail envoie le code de confirmation d'inscription.
// Le code expire après 30 minutes.
func SendVerificationCodeEmail(to, code string) error {
	content := fmt.Sprintf(`
<p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    Bienvenue sur <strong>Confiancy</strong> ! Voici votre code de vérification :
</p>
%s
<p style="margin: 20px 0 0 0; color: #666666; font-size: 14px; line-height: 1.6;">
    Ce code expire dans 30 minutes. Si vous n'êtes pas à l'origine de cette inscription, ignorez simplement cet email.
</p>`, codeBlock(code))

	return SendEmail(to, "🔑 Votre code de vérification Confiancy", emailShell("Code de vérification", "🔑 Vérifiez votre email", content), nil)
}

// SendPasswordResetEmail envoie le code de réinitialisation de mot de passe.
func SendPasswordResetEmail(to, code string) error {
	content := fmt.Sprintf(`
<p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    Une réinitialisation de mot de passe a été demandée pour votre compte. Voici votre code :
</p>
%s
<p style="margin: 20px 0 0 0; color: #666666; font-size: 14px; line-height: 1.6;">
    Ce code expire dans 30 minutes. Si vous n'avez rien demandé, votre mot de passe reste inchangé.
</p>`, codeBlock(code))

	return SendEmail(to, "🔒 Réinitialisation de votre mot de passe", emailShell("Réinitialisation", "🔒 Réinitialisation du mot de passe", content), nil)
}

// SendWelcomeEmail confirme la création du profil après vérification.
func SendWelcomeEmail(to, username string) error {
	content := fmt.Sprintf(`
<p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    Bonjour <strong>%s</strong>, votre profil est prêt ! 🎉
</p>
<p style="margin: 0 0 25px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    Vous démarrez avec un score de confiance neutre de 50%%. Il évoluera au fil des avis que la communauté laissera sur votre profil.
</p>
<table role="presentation" style="width: 100%%; margin: 25px 0;">
    <tr>
        <td style="text-align: center;">
            <a href="%s/profile" style="display: inline-block; padding: 14px 35px; background-color: #667eea; color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: 600; font-size: 16px;">Voir mon profil</a>
        </td>
    </tr>
</table>
<p style="margin: 20px 0 0 0; color: #666666; font-size: 14px; line-height: 1.6;">
    Astuce : liez votre compte Discord ou GitHub pour obtenir un badge de vérification et donner plus de poids à vos avis.
</p>`, username, frontendURL())

	return SendEmail(to, "🎉 Bienvenue sur Confiancy !", emailShell("Bienvenue", "🎉 Bienvenue sur Confiancy !", content), nil)
}

// SendNewReviewEmail prévient un utilisateur qu'il a reçu un avis.
func SendNewReviewEmail(to, username, authorUsername string, rating int) error {
	content := fmt.Sprintf(`
<p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    Bonjour <strong>%s</strong>,
</p>
<p style="margin: 0 0 25px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    <strong>%s</strong> vient de laisser un avis <strong>%d/10</strong> sur votre profil.
</p>
<table role="presentation" style="width: 100%%; margin: 25px 0;">
    <tr>
        <td style="text-align: center;">
            <a href="%s/profile" style="display: inline-block; padding: 14px 35px; background-color: #667eea; color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: 600; font-size: 16px;">Voir mon score</a>
        </td>
    </tr>
</table>`, username, authorUsername, rating, frontendURL())

	return SendEmail(to, "⭐ Nouvel avis sur votre profil", emailShell("Nouvel avis", "⭐ Vous avez reçu un avis", content), nil)
}

// SendWarningEmail envoie un avertissement de la modération.
func SendWarningEmail(to, username, reason string) error {
	content := fmt.Sprintf(`
<p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    Bonjour <strong>%s</strong>,
</p>
<p style="margin: 0 0 20px 0; color: #333333; font-size: 16px; line-height: 1.6;">
    Votre compte a reçu un avertissement de la modération :
</p>
<table role="presentation" style="width: 100%%; margin: 20px 0;">
    <tr>
        <td style="padding: 20px; background-color: #fff8e6; border-left: 4px solid #f59e0b; border-radius: 4px; color: #333333; font-size: 15px;">%s</td>
    </tr>
</table>
<p style="margin: 20px 0 0 0; color: #666666; font-size: 14px; line-height: 1.6;">
    En cas de récidive, votre compte pourra être suspendu. Si vous pensez qu'il s'agit d'une erreur, répondez à cet email.
</p>`, username, reason)

	return SendEmail(to, "⚠️ Avertissement de la modération", emailShell("Avertissement", "⚠️ Avertissement", content), nil)
}
