package main

import (
	"context"

	"github.com/shandysiswandi/bankvault/internal/app"
)

// @title           Bankvault API
// @version         1.0
// @description     Bankvault stores banking credentials encrypted and discloses them after a one-time code check.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()
	application.Stop(ctx)
}
