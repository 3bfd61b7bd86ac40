package handler

import (
	"net/http"

	"club25-backend/bootstrap"
	"club25-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
)

var serverless http.Handler

func init() {
	app, err := bootstrap.New()
	if err != nil {
		log.Fatal().Err(err).Msg("club25 api bootstrap failed")
	}
	serverless = router.Handler(app)
}

// Handler is the Vercel entry point; vercel.json rewrites every path here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	serverless.ServeHTTP(w, r)
}
