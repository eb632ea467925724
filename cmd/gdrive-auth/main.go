// Command gdrive-auth runs the OAuth consent flow once and prints the refresh
// token expected in GDRIVE_REFRESH_TOKEN.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"

	"cgiad/internal/pkg/logger"
)

const consentTimeout = 3 * time.Minute

func main() {
	_ = godotenv.Load()
	log := logger.New(logger.Config{Level: "info", Format: "text", ServiceName: "gdrive-auth"})

	token, err := run(context.Background(), log, os.Getenv("GDRIVE_CLIENT_ID"), os.Getenv("GDRIVE_CLIENT_SECRET"))
	if err != nil {
		log.LogFatal("authorization failed", err)
	}
	fmt.Println(token)
}

func run(ctx context.Context, log *logger.Logger, clientID, clientSecret string) (string, error) {
	clientID, clientSecret = strings.TrimSpace(clientID), strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return "", errors.New("GDRIVE_CLIENT_ID and GDRIVE_CLIENT_SECRET are required")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("listen for callback: %w", err)
	}
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", ln.Addr().(*net.TCPAddr).Port)

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
		RedirectURL:  redirectURL,
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}
	codes := make(chan callbackResult, 1)

	srv := &http.Server{
		Handler:      callbackHandler(state, codes),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	// prompt=consent makes Google issue a refresh token even on re-authorization.
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	log.Info("open this URL in a browser to authorize Drive access", "url", authURL)
	log.Info("waiting for authorization", "redirect_url", redirectURL, "timeout", consentTimeout.String())

	var res callbackResult
	select {
	case res = <-codes:
	case <-time.After(consentTimeout):
		return "", errors.New("timed out waiting for authorization")
	}
	if res.err != nil {
		return "", res.err
	}

	tok, err := conf.Exchange(ctx, res.code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if strings.TrimSpace(tok.RefreshToken) == "" {
		return "", errors.New("no refresh token returned; revoke the app at https://myaccount.google.com/permissions and retry")
	}
	return tok.RefreshToken, nil
}

type callbackResult struct {
	code string
	err  error
}

func callbackHandler(state string, out chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("invalid state")
		case q.Get("error") != "":
			res.err = fmt.Errorf("auth error: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("missing code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Authorized. You can close this window.")
		}
		select {
		case out <- res:
		default:
		}
	})
	return mux
}

func randomState() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
