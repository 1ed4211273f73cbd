package bootstrap

import (
	"net/url"

	"github.com/target/eventnav/internal/service"
)

func completeInput(begin *service.BeginLoginResult) service.CompleteLoginInput {
	code := ""
	if u, err := url.Parse(begin.AuthURL); err == nil {
		code = u.Query().Get("code")
	}
	return service.CompleteLoginInput{Code: code, State: begin.State, Nonce: begin.Nonce}
}

func serviceInput(eventID string, app *App) service.EvaluateInput {
	return service.EvaluateInput{EventID: eventID, Identity: app.Sessions.CurrentIdentity()}
}
