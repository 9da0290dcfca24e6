package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/datasprint/internal/app"
)

const shutdownTimeout = 15 * time.Second

// @title           DATASPRINT API
// @version         1.0
// @description     DATASPRINT hackathon team registration, authentication and admin dashboard APIs.
// @contact.name    DATASPRINT Committee
// @contact.email   datasprint@example.com
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Stop(ctx)
}
