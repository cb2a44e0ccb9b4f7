package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// GenerateProfileQR génère un QR vers le profil public, en base64 prêt à
// mettre dans <img src="...">
func GenerateProfileQR(username string) (string, error) {
	profileURL := fmt.Sprintf("%s/u/%s", frontendURL(), url.PathEscape(username))

	png, err := qrcode.Encode(profileURL, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RenderTrustCertificatePDF charge la page certificat du front et l'imprime
// en PDF. Le front rend le score, les badges et le QR passés en query.
func RenderTrustCertificatePDF(userID int64, username string, score int, qrBase64 string) ([]byte, error) {
	q := url.Values{}
	q.Set("id", fmt.Sprintf("%d", userID))
	q.Set("username", username)
	q.Set("score", fmt.Sprintf("%d", score))
	q.Set("qr", qrBase64)

	fullURL := fmt.Sprintf("%s?%s", certificateBaseURL(), q.Encode())

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	// timeout pour éviter de bloquer
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdfBuf []byte

	err := chromedp.Run(ctx,
		chromedp.Navigate(fullURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return pdfBuf, nil
}

// Helper: récupère l'URL de la page certificat du front depuis l'env
func certificateBaseURL() string {
	u := os.Getenv("FRONTEND_CERTIFICATE_URL")
	if u == "" {
		// fallback local dev
		return "http://localhost:5173/certificate"
	}
	return u
}
